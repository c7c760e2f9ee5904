// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/meshintel/trial-engine/pkg/types"
)

// NormalizeEvents converts any of the adverse-event shapes produced by
// extraction backends into the canonical form: nil (absent) or a list of
// {event, percentage} entries. It is total and idempotent; normalizing an
// already-normalized list is a no-op.
//
// Recognized shapes: nil, a list of event mappings or bare strings, a single
// event mapping, a percentage-only mapping, a flat name-to-number mapping, a
// nested arm-to-events mapping, and a bare string. Anything else is nil.
func NormalizeEvents(v any) []types.AdverseEvent {
	switch val := v.(type) {
	case nil:
		return nil
	case []types.AdverseEvent:
		return val
	case []any:
		return normalizeList(val)
	case map[string]any:
		return normalizeMap(val)
	case string:
		if val == "" {
			return nil
		}
		return []types.AdverseEvent{{Event: val}}
	default:
		return nil
	}
}

// normalizeList handles lists mixing event mappings and bare strings.
// Invalid entries are dropped; an all-invalid list normalizes to nil.
func normalizeList(items []any) []types.AdverseEvent {
	var out []types.AdverseEvent
	for _, item := range items {
		switch entry := item.(type) {
		case map[string]any:
			if ev, ok := eventFromMap(entry); ok {
				out = append(out, ev)
			}
		case string:
			if entry != "" {
				out = append(out, types.AdverseEvent{Event: entry})
			}
		}
	}
	return out
}

// normalizeMap handles the single-mapping shapes: one event, a percentage
// with no name, flat name-to-number pairs, and nested per-arm mappings.
func normalizeMap(m map[string]any) []types.AdverseEvent {
	if len(m) == 0 {
		return nil
	}

	if ev, ok := eventFromMap(m); ok {
		return []types.AdverseEvent{ev}
	}

	if pct, ok := asNumber(m["percentage"]); ok {
		return []types.AdverseEvent{{Event: "unspecified", Percentage: &pct}}
	}

	// Flat {name: number} pairs, or nested {arm: {event: number}} mappings
	// flattened to "arm_event". Mixed or unrecognized values disqualify the
	// whole mapping. Keys are sorted for deterministic output.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.AdverseEvent
	for _, k := range keys {
		switch inner := m[k].(type) {
		case map[string]any:
			innerKeys := make([]string, 0, len(inner))
			for ik := range inner {
				innerKeys = append(innerKeys, ik)
			}
			sort.Strings(innerKeys)
			for _, ik := range innerKeys {
				pct, ok := asNumber(inner[ik])
				if !ok {
					return nil
				}
				p := pct
				out = append(out, types.AdverseEvent{Event: fmt.Sprintf("%s_%s", k, ik), Percentage: &p})
			}
		default:
			pct, ok := asNumber(m[k])
			if !ok {
				return nil
			}
			p := pct
			out = append(out, types.AdverseEvent{Event: k, Percentage: &p})
		}
	}
	return out
}

// eventFromMap reads a single {event, percentage} mapping. The percentage is
// optional and nil when missing or non-numeric.
func eventFromMap(m map[string]any) (types.AdverseEvent, bool) {
	name, ok := m["event"].(string)
	if !ok || name == "" {
		return types.AdverseEvent{}, false
	}
	ev := types.AdverseEvent{Event: name}
	if pct, ok := asNumber(m["percentage"]); ok {
		ev.Percentage = &pct
	}
	return ev, true
}

// asNumber reads a numeric value of any of the types a JSON or YAML decoder
// may produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
