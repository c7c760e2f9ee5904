// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads raw clinical-trial abstracts from files and
// directories. Supported formats: plain text (one abstract per file), JSON
// (a list of strings or an object with an "abstracts" list), CSV (an
// "abstract_text" column, else the first column), and YAML lists.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Abstract is one raw abstract with its file provenance.
type Abstract struct {
	SourceFile string
	Text       string
}

// LoadPath loads abstracts from a single file or, when path is a directory,
// from every supported file directly inside it. Blank entries are skipped
// with a line to w. Files in an unsupported format are an error for a single
// file and skipped with a note for a directory.
func LoadPath(path string, w io.Writer) ([]Abstract, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return loadDir(path, w)
	}
	return loadFile(path, w)
}

func loadDir(dir string, w io.Writer) ([]Abstract, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var all []Abstract
	for _, name := range names {
		path := filepath.Join(dir, name)
		if !supported(path) {
			fmt.Fprintf(w, "skipped %s (unsupported format)\n", name)
			continue
		}
		abstracts, err := loadFile(path, w)
		if err != nil {
			return nil, err
		}
		all = append(all, abstracts...)
	}
	return all, nil
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".json", ".csv", ".yaml", ".yml":
		return true
	}
	return false
}

func loadFile(path string, w io.Writer) ([]Abstract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var texts []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		texts = []string{string(data)}
	case ".json":
		texts, err = parseJSON(data)
	case ".csv":
		texts, err = parseCSV(data)
	case ".yaml", ".yml":
		texts, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var abstracts []Abstract
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			fmt.Fprintf(w, "skipped blank entry %d in %s\n", i+1, filepath.Base(path))
			continue
		}
		abstracts = append(abstracts, Abstract{SourceFile: path, Text: strings.TrimSpace(text)})
	}
	return abstracts, nil
}

// parseJSON accepts a bare list of strings or {"abstracts": [...]}.
func parseJSON(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		Abstracts []string `json:"abstracts"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Abstracts, nil
}

// parseCSV reads the "abstract_text" column when the header names one, else
// the first column. The header row is never treated as an abstract.
func parseCSV(data []byte) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := 0
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "abstract_text") {
			col = i
			break
		}
	}

	var texts []string
	for _, row := range rows[1:] {
		if col < len(row) {
			texts = append(texts, row[col])
		}
	}
	return texts, nil
}

// parseYAML accepts a bare list of strings or {"abstracts": [...]}.
func parseYAML(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return list, nil
	}

	var wrapper struct {
		Abstracts []string `yaml:"abstracts"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Abstracts, nil
}

// Texts projects the raw strings out of loaded abstracts, preserving order.
func Texts(abstracts []Abstract) []string {
	texts := make([]string, len(abstracts))
	for i, a := range abstracts {
		texts[i] = a.Text
	}
	return texts
}
