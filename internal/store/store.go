// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction records in SQLite and serves
// full-text retrieval over titles and source abstracts.
//
// The FTS5 index requires mattn/go-sqlite3 compiled with the
// sqlite_fts5 build tag; the mage Build and Test targets set it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/trial-engine/pkg/types"
)

const defaultDBFile = "trial-engine.db"

// Store manages the record database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the SQLite database named by cfg.Path and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = defaultDBFile
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			nct_number TEXT,
			study_type TEXT,
			extraction_confidence REAL,
			completeness REAL,
			significance REAL,
			source_text TEXT,
			created_at TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_nct ON records(nct_number)`,
		`CREATE INDEX IF NOT EXISTS idx_records_study_type ON records(study_type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(title, source_text, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, title, source_text) VALUES (new.rowid, new.title, new.source_text);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title, source_text) VALUES('delete', old.rowid, old.title, old.source_text);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title, source_text) VALUES('delete', old.rowid, old.title, old.source_text);
				INSERT INTO records_fts(rowid, title, source_text) VALUES (new.rowid, new.title, new.source_text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

const upsertRecord = `INSERT INTO records
	(id, title, nct_number, study_type, extraction_confidence,
	 completeness, significance, source_text, created_at, record)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title=excluded.title, nct_number=excluded.nct_number,
		study_type=excluded.study_type,
		extraction_confidence=excluded.extraction_confidence,
		completeness=excluded.completeness,
		significance=excluded.significance,
		source_text=excluded.source_text,
		created_at=excluded.created_at, record=excluded.record`

// Save upserts a single record keyed by its abstract ID.
func (s *Store) Save(ctx context.Context, rec *types.ComprehensiveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertRecord,
		rec.AbstractID,
		rec.StudyIdentification.Title,
		nctNumber(rec),
		string(rec.StudyDesign.StudyType),
		rec.ExtractionConfidence,
		rec.DataCompletenessScore,
		rec.ClinicalSignificanceScore,
		rec.SourceText,
		rec.ExtractionTimestamp.UTC().Format(time.RFC3339),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.AbstractID, err)
	}
	return nil
}

// SaveSummary holds counts from a batch save.
type SaveSummary struct {
	Saved  int
	Failed int
}

// SaveAll upserts a batch of records in one transaction and writes a
// progress line per record to w.
func (s *Store) SaveAll(ctx context.Context, records []*types.ComprehensiveRecord, w io.Writer) (SaveSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var summary SaveSummary
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.AbstractID, err)
			summary.Failed++
			continue
		}

		_, err = stmt.ExecContext(ctx,
			rec.AbstractID,
			rec.StudyIdentification.Title,
			nctNumber(rec),
			string(rec.StudyDesign.StudyType),
			rec.ExtractionConfidence,
			rec.DataCompletenessScore,
			rec.ClinicalSignificanceScore,
			rec.SourceText,
			rec.ExtractionTimestamp.UTC().Format(time.RFC3339),
			string(data),
		)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.AbstractID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "stored  %s (confidence %.2f)\n", rec.AbstractID, rec.ExtractionConfidence)
		summary.Saved++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing batch: %w", err)
	}

	fmt.Fprintf(w, "\nstored: %d, failed: %d\n", summary.Saved, summary.Failed)
	return summary, nil
}

func nctNumber(rec *types.ComprehensiveRecord) string {
	if rec.StudyIdentification.NCTNumber != nil {
		return *rec.StudyIdentification.NCTNumber
	}
	return ""
}
