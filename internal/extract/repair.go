// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// trailingCommaRe matches a comma followed by a closing brace or bracket.
var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// smartQuoteReplacer maps curly quotes to their straight equivalents.
var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"‘", "'", // left single
	"’", "'", // right single
)

// RepairParse recovers a key-value mapping from arbitrary backend text. It
// never fails: malformed input degrades to an empty mapping rather than an
// error. The result is always non-nil.
//
// The text is sliced to the JSON candidate (fenced block if present, else
// first "{" to last "}"), cleaned of trailing commas, smart quotes, and byte
// order marks, then parsed. On failure the original text is re-sliced between
// its first "{" and last "}" and the clean-and-parse cycle runs once more.
func RepairParse(text string) map[string]any {
	candidate := sliceCandidate(text)

	if m, ok := cleanAndParse(candidate); ok {
		return m
	}

	// The fence slice may have cut mid-object. Retry on the widest brace
	// span of the original text.
	if m, ok := cleanAndParse(braceSlice(text)); ok {
		return m
	}

	return map[string]any{}
}

// sliceCandidate extracts the most likely JSON region: the body of a
// ```json fence when one is present, otherwise the widest brace span.
func sliceCandidate(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		body := text[idx+len("```json"):]
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return braceSlice(text)
}

// braceSlice returns the substring from the first "{" to the last "}" of
// text, or "" when no such span exists.
func braceSlice(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// cleanAndParse normalizes common model output defects and attempts a parse.
func cleanAndParse(candidate string) (map[string]any, bool) {
	if candidate == "" {
		return nil, false
	}

	cleaned := trailingCommaRe.ReplaceAllString(candidate, "$1")
	cleaned = smartQuoteReplacer.Replace(cleaned)
	cleaned = strings.Trim(cleaned, "\uFEFF")

	var m map[string]any
	if err := json.Unmarshal([]byte(cleaned), &m); err != nil {
		return nil, false
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, true
}
