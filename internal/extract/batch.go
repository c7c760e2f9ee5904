// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/meshintel/trial-engine/pkg/types"
)

// DefaultChunkSize bounds the number of in-flight backend calls per chunk.
const DefaultChunkSize = 10

// ItemState is the terminal processing state of one abstract in a batch.
type ItemState string

const (
	// StateComplete means the record was built without substituted defaults.
	StateComplete ItemState = "complete"

	// StateDegraded means a usable record was produced but one or more
	// fields fell back to defaults during structuring.
	StateDegraded ItemState = "degraded"

	// StateFailed means every backend was exhausted (or structuring had to
	// bail out) and a zero-confidence error record was synthesized.
	StateFailed ItemState = "failed"
)

// BatchSummary holds per-state counts from a batch run.
type BatchSummary struct {
	Complete int
	Degraded int
	Failed   int
}

// Total returns the number of abstracts processed.
func (s BatchSummary) Total() int {
	return s.Complete + s.Degraded + s.Failed
}

// HasFailures reports whether any abstract produced an error record.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractBatch runs the pipeline over an ordered list of abstracts and
// returns one record per input, in input order, regardless of per-item
// success or completion order. Work proceeds in chunks of chunkSize (default
// 10); each chunk is fully awaited before the next starts, so at most
// chunkSize backend calls are in flight at once. A failing item never
// affects its siblings. Progress lines go to w.
func ExtractBatch(ctx context.Context, chain *Chain, texts []string, chunkSize int, w io.Writer) ([]*types.ComprehensiveRecord, BatchSummary) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	records := make([]*types.ComprehensiveRecord, len(texts))
	var summary BatchSummary

	for start := 0; start < len(texts); start += chunkSize {
		end := start + chunkSize
		if end > len(texts) {
			end = len(texts)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				records[idx] = ExtractOne(ctx, chain, texts[idx])
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			state := stateOf(records[i])
			switch state {
			case StateFailed:
				summary.Failed++
			case StateDegraded:
				summary.Degraded++
			default:
				summary.Complete++
			}
			fmt.Fprintf(w, "%-8s abstract %d/%d (confidence %.2f)\n", state, i+1, len(texts), records[i].ExtractionConfidence)
		}
	}

	return records, summary
}

// stateOf classifies a finished record by its audit notes.
func stateOf(rec *types.ComprehensiveRecord) ItemState {
	for _, note := range rec.ProcessingNotes {
		switch {
		case strings.HasPrefix(note, "extraction error"), strings.HasPrefix(note, "structuring panic"):
			return StateFailed
		case strings.HasPrefix(note, "degraded field"):
			return StateDegraded
		}
	}
	return StateComplete
}
