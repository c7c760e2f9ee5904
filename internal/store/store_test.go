// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/trial-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.StoreConfig{
		Path:       filepath.Join(t.TempDir(), "trial-engine.db"),
		MaxResults: 20,
	}
	s, err := NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id, title string) *types.ComprehensiveRecord {
	nct := "NCT01234567"
	return &types.ComprehensiveRecord{
		AbstractID:          id,
		ExtractionTimestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		StudyIdentification: types.StudyIdentification{
			Title:     title,
			NCTNumber: &nct,
		},
		StudyDesign: types.StudyDesign{
			StudyType: types.StudyPhase3,
		},
		TreatmentRegimens: []types.TreatmentRegimen{
			{RegimenName: "DVd"},
		},
		ExtractionConfidence:      0.82,
		DataCompletenessScore:     0.6,
		ClinicalSignificanceScore: 0.45,
		SourceText:                "Daratumumab plus bortezomib in relapsed multiple myeloma",
	}
}

func TestNewStoreCreatesSchema(t *testing.T) {
	s := testStore(t)

	tables := []string{"records", "records_fts"}
	for _, table := range tables {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.NotZero(t, count, "table %s does not exist", table)
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")
	s, err := NewStore(types.StoreConfig{Path: dbPath})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestSaveStoresAllColumns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("abs-1", "Phase 3 DVd versus Vd in relapsed myeloma")
	require.NoError(t, s.Save(ctx, rec))

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "abs-1", r.ID)
	assert.Equal(t, "Phase 3 DVd versus Vd in relapsed myeloma", r.Title)
	assert.Equal(t, "NCT01234567", r.NCTNumber)
	assert.Equal(t, types.StudyPhase3, r.StudyType)
	assert.Equal(t, 0.82, r.ExtractionConfidence)
	assert.Equal(t, 0.6, r.DataCompletenessScore)
	assert.Equal(t, 0.45, r.ClinicalSignificanceScore)
	assert.Equal(t, "2026-03-14T09:30:00Z", r.CreatedAt)

	// The full record round-trips through the JSON column.
	require.NotNil(t, r.Record)
	assert.Equal(t, rec.SourceText, r.Record.SourceText)
	require.Len(t, r.Record.TreatmentRegimens, 1)
	assert.Equal(t, "DVd", r.Record.TreatmentRegimens[0].RegimenName)
}

func TestSaveUpserts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRecord("abs-1", "Original title")))

	updated := sampleRecord("abs-1", "Corrected title")
	updated.ExtractionConfidence = 0.91
	require.NoError(t, s.Save(ctx, updated))

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Corrected title", results[0].Title)
	assert.Equal(t, 0.91, results[0].ExtractionConfidence)
}

func TestSaveNilNCTNumber(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("abs-1", "Registry study")
	rec.StudyIdentification.NCTNumber = nil
	require.NoError(t, s.Save(ctx, rec))

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].NCTNumber)
}

func TestSaveAll(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	records := []*types.ComprehensiveRecord{
		sampleRecord("abs-1", "First study"),
		sampleRecord("abs-2", "Second study"),
		sampleRecord("abs-3", "Third study"),
	}

	var buf strings.Builder
	summary, err := s.SaveAll(ctx, records, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Saved)
	assert.Zero(t, summary.Failed)
	assert.Contains(t, buf.String(), "stored  abs-2")
	assert.Contains(t, buf.String(), "stored: 3, failed: 0")

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryFullText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	dara := sampleRecord("abs-dara", "Daratumumab combination in relapsed myeloma")
	dara.SourceText = "Daratumumab plus bortezomib and dexamethasone improved PFS"
	car := sampleRecord("abs-car", "CAR-T cell therapy outcomes")
	car.SourceText = "Ciltacabtagene autoleucel in heavily pretreated patients"
	require.NoError(t, s.Save(ctx, dara))
	require.NoError(t, s.Save(ctx, car))

	results, err := s.Query(ctx, QueryOptions{Query: "daratumumab"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abs-dara", results[0].ID)

	// Source text is indexed, not just titles.
	results, err = s.Query(ctx, QueryOptions{Query: "ciltacabtagene"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abs-car", results[0].ID)
}

func TestQueryFullTextAfterUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("abs-1", "Ixazomib maintenance study")
	require.NoError(t, s.Save(ctx, rec))

	rec.StudyIdentification.Title = "Carfilzomib induction study"
	require.NoError(t, s.Save(ctx, rec))

	// The FTS triggers must drop the old title from the index.
	results, err := s.Query(ctx, QueryOptions{Query: "ixazomib"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Query(ctx, QueryOptions{Query: "carfilzomib"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryMinConfidence(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	low := sampleRecord("abs-low", "Low confidence study")
	low.ExtractionConfidence = 0.3
	high := sampleRecord("abs-high", "High confidence study")
	high.ExtractionConfidence = 0.9
	require.NoError(t, s.Save(ctx, low))
	require.NoError(t, s.Save(ctx, high))

	results, err := s.Query(ctx, QueryOptions{MinConfidence: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abs-high", results[0].ID)
}

func TestQueryStudyType(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p3 := sampleRecord("abs-p3", "Phase 3 study")
	retro := sampleRecord("abs-retro", "Retrospective review")
	retro.StudyDesign.StudyType = types.StudyRetrospective
	require.NoError(t, s.Save(ctx, p3))
	require.NoError(t, s.Save(ctx, retro))

	results, err := s.Query(ctx, QueryOptions{StudyType: types.StudyRetrospective})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abs-retro", results[0].ID)
}

func TestQueryMaxResults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, sampleRecord(fmt.Sprintf("abs-%d", i), fmt.Sprintf("Study %d", i))))
	}

	results, err := s.Query(ctx, QueryOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQueryDefaultLimit(t *testing.T) {
	cfg := types.StoreConfig{
		Path:       filepath.Join(t.TempDir(), "trial-engine.db"),
		MaxResults: 3,
	}
	s, err := NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, sampleRecord(fmt.Sprintf("abs-%d", i), fmt.Sprintf("Study %d", i))))
	}

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 10}.IsEmpty())
	assert.False(t, QueryOptions{Query: "myeloma"}.IsEmpty())
	assert.False(t, QueryOptions{StudyType: types.StudyPhase2}.IsEmpty())
	assert.False(t, QueryOptions{MinConfidence: 0.5}.IsEmpty())
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, s.Save(ctx, sampleRecord("abs-1", "Exported study")))
	require.NoError(t, s.ExportYAML(ctx, dir, QueryOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	require.NoError(t, err)

	var entries []QueryResult
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "abs-1", entries[0].ID)
	assert.Equal(t, "Exported study", entries[0].Title)
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, s.Save(ctx, sampleRecord("abs-1", "Exported study")))
	require.NoError(t, s.Save(ctx, sampleRecord("abs-2", "Another study")))
	require.NoError(t, s.ExportJSON(ctx, dir, QueryOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	require.NoError(t, err)

	var entries []QueryResult
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)
}

func TestExportAppliesFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	low := sampleRecord("abs-low", "Low confidence study")
	low.ExtractionConfidence = 0.2
	require.NoError(t, s.Save(ctx, low))
	require.NoError(t, s.Save(ctx, sampleRecord("abs-high", "High confidence study")))

	require.NoError(t, s.ExportJSON(ctx, dir, QueryOptions{MinConfidence: 0.5}))

	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	require.NoError(t, err)

	var entries []QueryResult
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "abs-high", entries[0].ID)
}
