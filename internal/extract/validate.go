// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxPlausibleAge = 120
	maxPercentage   = 100
)

// countFields is the set of patient-count fields that must be non-negative.
var countFields = []string{"total_enrolled", "evaluable_patients", "safety_population", "itt_population"}

// Validate applies numeric-plausibility rules to a repaired mapping and
// returns a corrected copy plus a note for every correction or advisory
// finding. It never fails and never mutates its input.
//
// Corrections null the offending value: ages outside (0, 120], percentages
// outside [0, 100], negative patient counts. Cross-field inconsistencies
// that cannot be resolved authoritatively (evaluable exceeding enrolled, sex
// percentages summing past 105) are flagged but left as extracted.
func Validate(m map[string]any) (map[string]any, []string) {
	out := deepCopyMap(m)
	var notes []string

	demo, _ := out["patient_demographics"].(map[string]any)
	if demo != nil {
		for _, field := range []string{"median_age", "mean_age"} {
			if age, ok := asNumber(demo[field]); ok && (age > maxPlausibleAge || age < 0) {
				demo[field] = nil
				notes = append(notes, fmt.Sprintf("implausible %s %.0f removed", field, age))
			}
		}
		for _, field := range countFields {
			if n, ok := asNumber(demo[field]); ok && n < 0 {
				demo[field] = nil
				notes = append(notes, fmt.Sprintf("negative %s removed", field))
			}
		}
	}

	for _, section := range []string{"patient_demographics", "disease_characteristics", "treatment_history"} {
		sec, _ := out[section].(map[string]any)
		if sec == nil {
			continue
		}
		keys := make([]string, 0, len(sec))
		for key := range sec {
			if strings.HasSuffix(key, "_percentage") {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			if pct, ok := asNumber(sec[key]); ok && (pct < 0 || pct > maxPercentage) {
				sec[key] = nil
				notes = append(notes, fmt.Sprintf("out-of-range %s.%s %.1f removed", section, key, pct))
			}
		}
	}

	if demo != nil {
		enrolled, okE := asNumber(demo["total_enrolled"])
		evaluable, okV := asNumber(demo["evaluable_patients"])
		if okE && okV && evaluable > enrolled {
			notes = append(notes, fmt.Sprintf("evaluable_patients %.0f exceeds total_enrolled %.0f", evaluable, enrolled))
		}

		male, okM := asNumber(demo["male_percentage"])
		female, okF := asNumber(demo["female_percentage"])
		if okM && okF && male+female > 105 {
			notes = append(notes, fmt.Sprintf("sex percentages sum to %.1f", male+female))
		}
	}

	return out, notes
}

// deepCopyMap clones a decoded JSON structure so corrections never reach the
// caller's mapping.
func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
