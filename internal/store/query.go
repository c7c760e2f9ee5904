// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meshintel/trial-engine/pkg/types"
)

// QueryOptions holds parameters for record store queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string matched against titles
	// and source abstracts.
	Query string

	// StudyType filters by study design.
	StudyType types.StudyType

	// MinConfidence filters out records whose overall extraction
	// confidence falls below the threshold.
	MinConfidence float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.StudyType == "" && q.MinConfidence == 0
}

// QueryResult is a summary row with the full record attached.
type QueryResult struct {
	ID                        string                     `json:"id" yaml:"id"`
	Title                     string                     `json:"title" yaml:"title"`
	NCTNumber                 string                     `json:"nct_number" yaml:"nct_number"`
	StudyType                 types.StudyType            `json:"study_type" yaml:"study_type"`
	ExtractionConfidence      float64                    `json:"extraction_confidence" yaml:"extraction_confidence"`
	DataCompletenessScore     float64                    `json:"data_completeness_score" yaml:"data_completeness_score"`
	ClinicalSignificanceScore float64                    `json:"clinical_significance_score" yaml:"clinical_significance_score"`
	CreatedAt                 string                     `json:"created_at" yaml:"created_at"`
	Record                    *types.ComprehensiveRecord `json:"record,omitempty" yaml:"record,omitempty"`
}

// Query retrieves records with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted newest first otherwise.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.title, r.nct_number, r.study_type,
				r.extraction_confidence, r.completeness, r.significance,
				r.created_at, r.record
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.title, r.nct_number, r.study_type,
				r.extraction_confidence, r.completeness, r.significance,
				r.created_at, r.record
			FROM records r
			WHERE 1=1`)
	}

	if opts.StudyType != "" {
		qb.WriteString(` AND r.study_type = ?`)
		args = append(args, string(opts.StudyType))
	}

	if opts.MinConfidence > 0 {
		qb.WriteString(` AND r.extraction_confidence >= ?`)
		args = append(args, opts.MinConfidence)
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.created_at DESC, r.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying record store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			studyType  string
			recordJSON string
		)

		if err := rows.Scan(
			&qr.ID, &qr.Title, &qr.NCTNumber, &studyType,
			&qr.ExtractionConfidence, &qr.DataCompletenessScore,
			&qr.ClinicalSignificanceScore, &qr.CreatedAt, &recordJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.StudyType = types.StudyType(studyType)

		var rec types.ComprehensiveRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", qr.ID, err)
		}
		qr.Record = &rec

		results = append(results, qr)
	}

	return results, rows.Err()
}
