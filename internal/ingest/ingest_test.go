package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPathTxt(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "abstract.txt", "  A phase 2 study of DVd.  \n")

	var buf strings.Builder
	abstracts, err := LoadPath(path, &buf)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(abstracts) != 1 {
		t.Fatalf("got %d abstracts, want 1", len(abstracts))
	}
	if abstracts[0].Text != "A phase 2 study of DVd." {
		t.Errorf("Text = %q", abstracts[0].Text)
	}
	if abstracts[0].SourceFile != path {
		t.Errorf("SourceFile = %q", abstracts[0].SourceFile)
	}
}

func TestLoadPathJSON(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"bare list", `["abstract one", "abstract two"]`, 2},
		{"wrapper object", `{"abstracts": ["abstract one", "abstract two", "abstract three"]}`, 3},
		{"blank entries skipped", `["abstract one", "", "   "]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "-")+".json", tt.content)
			var buf strings.Builder
			abstracts, err := LoadPath(path, &buf)
			if err != nil {
				t.Fatalf("LoadPath: %v", err)
			}
			if len(abstracts) != tt.want {
				t.Errorf("got %d abstracts, want %d", len(abstracts), tt.want)
			}
		})
	}
}

func TestLoadPathCSV(t *testing.T) {
	dir := t.TempDir()

	t.Run("abstract_text column", func(t *testing.T) {
		path := writeFile(t, dir, "named.csv",
			"study_id,abstract_text\nS1,\"First abstract.\"\nS2,\"Second abstract.\"\n")
		var buf strings.Builder
		abstracts, err := LoadPath(path, &buf)
		if err != nil {
			t.Fatalf("LoadPath: %v", err)
		}
		if len(abstracts) != 2 {
			t.Fatalf("got %d abstracts, want 2", len(abstracts))
		}
		if abstracts[0].Text != "First abstract." {
			t.Errorf("Text = %q", abstracts[0].Text)
		}
	})

	t.Run("first column fallback", func(t *testing.T) {
		path := writeFile(t, dir, "plain.csv", "text\n\"Only abstract.\"\n")
		var buf strings.Builder
		abstracts, err := LoadPath(path, &buf)
		if err != nil {
			t.Fatalf("LoadPath: %v", err)
		}
		if len(abstracts) != 1 || abstracts[0].Text != "Only abstract." {
			t.Errorf("abstracts = %v", abstracts)
		}
	})
}

func TestLoadPathYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.yaml", "abstracts:\n  - First abstract.\n  - Second abstract.\n")

	var buf strings.Builder
	abstracts, err := LoadPath(path, &buf)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(abstracts) != 2 {
		t.Fatalf("got %d abstracts, want 2", len(abstracts))
	}
}

func TestLoadPathDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Second file.")
	writeFile(t, dir, "a.txt", "First file.")
	writeFile(t, dir, "notes.md", "not an abstract")

	var buf strings.Builder
	abstracts, err := LoadPath(dir, &buf)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(abstracts) != 2 {
		t.Fatalf("got %d abstracts, want 2", len(abstracts))
	}
	// Directory loads are ordered by file name.
	if abstracts[0].Text != "First file." || abstracts[1].Text != "Second file." {
		t.Errorf("order wrong: %v", abstracts)
	}
	if !strings.Contains(buf.String(), "unsupported format") {
		t.Errorf("expected skip note for notes.md: %s", buf.String())
	}
}

func TestLoadPathMissing(t *testing.T) {
	var buf strings.Builder
	if _, err := LoadPath(filepath.Join(t.TempDir(), "nope.txt"), &buf); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTexts(t *testing.T) {
	abstracts := []Abstract{
		{SourceFile: "a.txt", Text: "one"},
		{SourceFile: "b.txt", Text: "two"},
	}
	texts := Texts(abstracts)
	if len(texts) != 2 || texts[0] != "one" || texts[1] != "two" {
		t.Errorf("Texts = %v", texts)
	}
}
