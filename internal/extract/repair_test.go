package extract

import (
	"reflect"
	"testing"
)

func TestRepairParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{
			name: "clean json",
			text: `{"a": 1, "b": "two"}`,
			want: map[string]any{"a": float64(1), "b": "two"},
		},
		{
			name: "fenced block with trailing comma and surrounding prose",
			text: "Here: ```json\n{\"a\":1,}\n``` thanks",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "fence without closing marker",
			text: "```json\n{\"a\": 1}",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "prose around braces",
			text: `The extracted data is {"title": "STUDY-1"} as requested.`,
			want: map[string]any{"title": "STUDY-1"},
		},
		{
			name: "smart quotes normalized",
			text: "{“title”: “CARTITUDE-4”}",
			want: map[string]any{"title": "CARTITUDE-4"},
		},
		{
			name: "trailing comma in nested array",
			text: `{"drugs": ["a", "b",], "n": 2,}`,
			want: map[string]any{"drugs": []any{"a", "b"}, "n": float64(2)},
		},
		{
			name: "byte order mark stripped",
			text: "\uFEFF{\"a\": 1}",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "no json at all",
			text: "I could not process this abstract.",
			want: map[string]any{},
		},
		{
			name: "empty input",
			text: "",
			want: map[string]any{},
		},
		{
			name: "unclosed object degrades to empty",
			text: `{"a": 1, "b":`,
			want: map[string]any{},
		},
		{
			name: "json array not an object",
			text: `[1, 2, 3]`,
			want: map[string]any{},
		},
		{
			name: "fence slice broken but brace span valid",
			text: "```json\ngarbage\n``` but also {\"ok\": true} later",
			want: map[string]any{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairParse(tt.text)
			if got == nil {
				t.Fatal("RepairParse returned nil map")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RepairParse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRepairParseNestedStructure(t *testing.T) {
	text := "```json\n" + `{
  "study_identification": {"title": "Trial X", "nct_number": "NCT01234567",},
  "efficacy_outcomes": {"overall_response_rate": {"value": 64, "ci": "95% CI 55-72"}}
}` + "\n```"

	got := RepairParse(text)

	ident, ok := got["study_identification"].(map[string]any)
	if !ok {
		t.Fatalf("study_identification missing or wrong type: %v", got)
	}
	if ident["title"] != "Trial X" {
		t.Errorf("title = %v, want Trial X", ident["title"])
	}

	efficacy, ok := got["efficacy_outcomes"].(map[string]any)
	if !ok {
		t.Fatalf("efficacy_outcomes missing: %v", got)
	}
	orr, ok := efficacy["overall_response_rate"].(map[string]any)
	if !ok {
		t.Fatalf("overall_response_rate missing: %v", efficacy)
	}
	if orr["value"] != float64(64) {
		t.Errorf("value = %v, want 64", orr["value"])
	}
}
