// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/meshintel/trial-engine/pkg/types"
)

// Overall confidence is a weighted blend dominated by extraction quality.
const (
	weightExtractionQuality = 0.7
	weightDataCompleteness  = 0.2
	weightSourceRichness    = 0.1
)

// Extraction quality averages three damped signals. The floor applies when
// no signal exists at all: absence of evidence is moderate confidence, not
// zero.
const (
	signalIdentificationPresent = 0.8
	signalCompletenessWeight    = 0.8
	signalSignificanceWeight    = 0.7
	qualityFloor                = 0.6
)

// Clinical significance point values, normalized by their maximum.
const (
	pointsORR            = 0.3
	pointsPFS            = 0.3
	pointsOS             = 0.4
	pointsGrade34        = 0.2
	pointsLargeTrial     = 0.1
	pointsMediumTrial    = 0.05
	significanceMaxScore = 1.3

	largeTrialEnrollment  = 100
	mediumTrialEnrollment = 50
)

// ExpectedField names one field the completeness metric looks for. List
// expectations count as found when the section holds a non-empty list.
type ExpectedField struct {
	Section string
	Field   string
	IsList  bool
}

// DefaultExpectedFields is the registry backing data completeness: the
// fields an informative abstract is expected to yield.
var DefaultExpectedFields = []ExpectedField{
	{Section: "study_identification", Field: "title"},
	{Section: "study_identification", Field: "nct_number"},
	{Section: "patient_demographics", Field: "total_enrolled"},
	{Section: "efficacy_outcomes", Field: "overall_response_rate"},
	{Section: "treatment_regimens", IsList: true},
}

// richnessKeywords is the vocabulary whose presence signals an information-
// dense abstract.
var richnessKeywords = []string{"patients", "efficacy", "safety", "treatment", "response", "survival", "adverse"}

// numericTokenRe matches integer and decimal tokens in the source text.
var numericTokenRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Score computes the four confidence metrics for a validated mapping. It is
// a pure function: identical inputs always produce identical scores, and all
// four results lie in [0,1] regardless of how empty the mapping is.
func Score(m map[string]any, sourceText string, registry []ExpectedField) types.ConfidenceScores {
	quality := extractionQuality(m, registry)
	completeness := dataCompleteness(m, registry)
	richness := sourceRichness(sourceText)

	return types.ConfidenceScores{
		ExtractionQuality: quality,
		DataCompleteness:  completeness,
		SourceRichness:    richness,
		OverallConfidence: weightExtractionQuality*quality +
			weightDataCompleteness*completeness +
			weightSourceRichness*richness,
	}
}

// extractionQuality averages the available quality signals, falling back to
// the moderate-confidence floor when the mapping is empty.
func extractionQuality(m map[string]any, registry []ExpectedField) float64 {
	if len(m) == 0 {
		return qualityFloor
	}

	var signals []float64
	if sec, ok := m["study_identification"].(map[string]any); ok && len(sec) > 0 {
		signals = append(signals, signalIdentificationPresent)
	}
	signals = append(signals, dataCompleteness(m, registry)*signalCompletenessWeight)
	signals = append(signals, ClinicalSignificance(m)*signalSignificanceWeight)

	var sum float64
	for _, s := range signals {
		sum += s
	}
	return sum / float64(len(signals))
}

// dataCompleteness is the fraction of registry fields found in the mapping.
// This is a completeness metric, not a confidence: it measures how much of
// the expected data the backend surfaced. An empty registry scores 1.0.
func dataCompleteness(m map[string]any, registry []ExpectedField) float64 {
	if len(registry) == 0 {
		return 1.0
	}

	found := 0
	for _, exp := range registry {
		if exp.IsList {
			if list, ok := m[exp.Section].([]any); ok && len(list) > 0 {
				found++
			}
			continue
		}
		sec, ok := m[exp.Section].(map[string]any)
		if !ok {
			continue
		}
		if v := sec[exp.Field]; v != nil && v != "" && v != "N/A" {
			found++
		}
	}
	return float64(found) / float64(len(registry))
}

// sourceRichness estimates how much extractable information the source text
// contains: bucketed length and numeric density plus domain keyword coverage.
// Empty text scores 0.
func sourceRichness(sourceText string) float64 {
	if sourceText == "" {
		return 0.0
	}

	var length float64
	switch {
	case len(sourceText) > 1000:
		length = 0.9
	case len(sourceText) > 500:
		length = 0.7
	default:
		length = 0.5
	}

	var density float64
	switch n := len(numericTokenRe.FindAllString(sourceText, -1)); {
	case n > 10:
		density = 0.9
	case n > 5:
		density = 0.7
	default:
		density = 0.5
	}

	lower := strings.ToLower(sourceText)
	hits := 0
	for _, kw := range richnessKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	coverage := float64(hits) / float64(len(richnessKeywords))
	if coverage > 1.0 {
		coverage = 1.0
	}

	return (length + density + coverage) / 3
}

// ClinicalSignificance scores how clinically informative the mapping is:
// presence of the key efficacy endpoints, grade 3-4 safety data, and a
// meaningfully sized population, normalized to [0,1].
func ClinicalSignificance(m map[string]any) float64 {
	var score float64

	if efficacy, ok := m["efficacy_outcomes"].(map[string]any); ok {
		if present(efficacy["overall_response_rate"]) {
			score += pointsORR
		}
		if present(efficacy["progression_free_survival"]) {
			score += pointsPFS
		}
		if present(efficacy["overall_survival"]) {
			score += pointsOS
		}
	}

	if safety, ok := m["safety_profile"].(map[string]any); ok {
		if present(safety["grade_3_4_aes"]) {
			score += pointsGrade34
		}
	}

	if demo, ok := m["patient_demographics"].(map[string]any); ok {
		if enrolled, ok := asNumber(demo["total_enrolled"]); ok {
			switch {
			case enrolled >= largeTrialEnrollment:
				score += pointsLargeTrial
			case enrolled >= mediumTrialEnrollment:
				score += pointsMediumTrial
			}
		}
	}

	return score / significanceMaxScore
}

// present reports whether an extracted value carries information: non-nil
// and, for strings, lists, and mappings, non-empty.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
