// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/trial-engine/pkg/types"
)

// WriteRecord marshals a record to YAML and writes it to
// dir/<abstract_id>.yaml, creating dir if needed. It returns the path
// of the written file.
func WriteRecord(rec *types.ComprehensiveRecord, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating records directory: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshaling record: %w", err)
	}

	path := filepath.Join(dir, rec.AbstractID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	return path, nil
}
