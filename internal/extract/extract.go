// Package extract turns free-text clinical-trial abstracts into structured,
// confidence-scored records. The pipeline for one abstract is: backend chain
// submission, response repair, plausibility validation, confidence scoring,
// and schema structuring. Each stage past the backend call is total; a batch
// never loses an item to a malformed response.
package extract

import (
	"context"
	"fmt"

	"github.com/meshintel/trial-engine/pkg/types"
)

// ExtractOne runs the full pipeline for a single abstract. It always returns
// a record: backend exhaustion or an unexpected structuring panic yields a
// zero-confidence error record with the cause in processing_notes, never an
// error to the caller.
func ExtractOne(ctx context.Context, chain *Chain, text string) (rec *types.ComprehensiveRecord) {
	defer func() {
		if p := recover(); p != nil {
			rec = ErrorRecord(text, fmt.Errorf("structuring panic: %v", p))
		}
	}()

	prompt, err := BuildPrompt(text)
	if err != nil {
		return ErrorRecord(text, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := chain.Submit(ctx, prompt)
	if err != nil {
		return ErrorRecord(text, err)
	}

	mapping := RepairParse(raw)
	validated, warnings := Validate(mapping)
	scores := Score(validated, text, DefaultExpectedFields)

	return Structure(validated, scores, text, warnings)
}
