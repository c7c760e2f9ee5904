// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/trial-engine/internal/extract"
	"github.com/meshintel/trial-engine/internal/ingest"
	"github.com/meshintel/trial-engine/internal/store"
	"github.com/meshintel/trial-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured records from clinical trial abstracts",
	Long: `Extract reads free-text abstracts from a file (.txt, .json, .csv, .yaml)
or a directory of such files, runs each through the AI backend chain, and
writes one schema-complete YAML record per abstract to the output directory.

Records carry confidence scores and a processing-notes audit trail. With
--store, records are also upserted into the SQLite record store.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	batchDir, _ := cmd.Flags().GetString("batch")

	var inputPath string
	switch {
	case batchDir != "":
		inputPath = batchDir
	case len(args) == 1:
		inputPath = args[0]
	default:
		return fmt.Errorf("provide an abstract file or --batch directory")
	}

	chain, err := extract.NewChain(extractionConfig(cmd))
	if err != nil {
		return err
	}

	abstracts, err := ingest.LoadPath(inputPath, os.Stdout)
	if err != nil {
		return err
	}
	if len(abstracts) == 0 {
		return fmt.Errorf("no abstracts found in %s", inputPath)
	}

	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	recordsDir := filepath.Join(outputDir, "records")

	ctx := context.Background()
	records, summary := extract.ExtractBatch(ctx, chain, ingest.Texts(abstracts), chunkSize, os.Stdout)

	for i, rec := range records {
		rec.SourceFile = abstracts[i].SourceFile
		path, err := extract.WriteRecord(rec, recordsDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote   %s\n", path)
	}

	if useStore, _ := cmd.Flags().GetBool("store"); useStore {
		dbPath, _ := cmd.Flags().GetString("db")
		s, err := store.NewStore(types.StoreConfig{Path: dbPath})
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.SaveAll(ctx, records, os.Stdout); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "\ncomplete: %d, degraded: %d, failed: %d\n",
		summary.Complete, summary.Degraded, summary.Failed)

	if summary.HasFailures() {
		return fmt.Errorf("%d abstract(s) failed extraction", summary.Failed)
	}
	return nil
}

// extractionConfig assembles the backend configuration from flags and
// loaded secrets.
func extractionConfig(cmd *cobra.Command) types.ExtractionConfig {
	claudeModel, _ := cmd.Flags().GetString("claude-model")
	openaiModel, _ := cmd.Flags().GetString("openai-model")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	maxTokens, _ := cmd.Flags().GetInt("max-output-tokens")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	backends, _ := cmd.Flags().GetStringSlice("backend")

	priority := make([]types.BackendName, 0, len(backends))
	for _, b := range backends {
		priority = append(priority, types.BackendName(b))
	}

	return types.ExtractionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: "trial-engine/" + version,
		},
		Claude: types.AIConfig{
			Model:      claudeModel,
			APIKey:     secretDefault("anthropic-api-key", os.Getenv("ANTHROPIC_API_KEY")),
			MaxRetries: maxRetries,
		},
		OpenAI: types.AIConfig{
			Model:      openaiModel,
			APIKey:     secretDefault("openai-api-key", os.Getenv("OPENAI_API_KEY")),
			MaxRetries: maxRetries,
		},
		BackendPriority: priority,
		MaxOutputTokens: maxTokens,
		Temperature:     temperature,
	}
}

func init() {
	extractCmd.Flags().String("batch", "", "directory of abstract files to process")
	extractCmd.Flags().StringSlice("backend", nil, "backend priority order (claude, openai)")
	extractCmd.Flags().String("claude-model", extract.DefaultClaudeModel, "Claude model identifier")
	extractCmd.Flags().String("openai-model", extract.DefaultOpenAIModel, "OpenAI model identifier")
	extractCmd.Flags().Int("chunk-size", extract.DefaultChunkSize, "abstracts processed concurrently per chunk")
	extractCmd.Flags().Duration("timeout", 120*time.Second, "per-backend-call timeout")
	extractCmd.Flags().Int("max-retries", 0, "retries for rate-limited API calls (0 = default)")
	extractCmd.Flags().Int("max-output-tokens", extract.DefaultMaxOutputTokens, "maximum model response tokens")
	extractCmd.Flags().Float64("temperature", extract.DefaultTemperature, "sampling temperature")
	extractCmd.Flags().String("output-dir", "output", "base directory for output (contains records/)")
	extractCmd.Flags().Bool("store", false, "upsert records into the SQLite record store")
	extractCmd.Flags().String("db", "trial-engine.db", "SQLite database file for --store")

	rootCmd.AddCommand(extractCmd)
}
