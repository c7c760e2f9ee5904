package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/trial-engine/pkg/types"
)

func TestWriteRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output", "records")

	rec := &types.ComprehensiveRecord{
		AbstractID: "abc-123",
		StudyIdentification: types.StudyIdentification{
			Title: "A study of DVd",
		},
		TreatmentRegimens: []types.TreatmentRegimen{{RegimenName: "DVd"}},
	}

	path, err := WriteRecord(rec, dir)
	if err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if !strings.HasSuffix(path, "abc-123.yaml") {
		t.Errorf("path = %q, want abstract ID filename", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got types.ComprehensiveRecord
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshaling written record: %v", err)
	}
	if got.StudyIdentification.Title != "A study of DVd" {
		t.Errorf("Title = %q", got.StudyIdentification.Title)
	}
}
