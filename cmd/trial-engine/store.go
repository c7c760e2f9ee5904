// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/trial-engine/internal/store"
	"github.com/meshintel/trial-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query and export the record store",
	Long: `Store manages the SQLite record store built by extract --store. Use
subcommands to search records with FTS5 full-text queries and confidence
filters, or to export the store to YAML or JSON.`,
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Search stored records with full-text and confidence filters",
	Long: `Query searches stored records using FTS5 full-text search over titles
and source abstracts, optionally filtered by study type and minimum
extraction confidence.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --study-type, or --min-confidence")
	}

	results, err := s.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-50s  %-12s  %-20s  %s\n",
		"Rank", "Title", "NCT", "Study Type", "Confidence")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		title := r.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		studyType := string(r.StudyType)
		if len(studyType) > 20 {
			studyType = studyType[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-50s  %-12s  %-20s  %.2f\n",
			i+1, title, r.NCTNumber, studyType, r.ExtractionConfidence)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the record store to YAML or JSON",
	Long: `Export writes all stored records (or a filtered subset) to export.yaml
or export.json in the output directory. Supports the same filter flags as
query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), outputDir, opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", outputDir)
	case "json":
		if err := s.ExportJSON(context.Background(), outputDir, opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", outputDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return store.NewStore(types.StoreConfig{
		Path:       dbPath,
		MaxResults: maxResults,
	})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	studyType, _ := cmd.Flags().GetString("study-type")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:         queryText,
		StudyType:     types.StudyType(studyType),
		MinConfidence: minConfidence,
		MaxResults:    limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("db", "trial-engine.db", "SQLite database file")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Query flags.
	storeQueryCmd.Flags().String("query", "", "full-text search query")
	storeQueryCmd.Flags().String("study-type", "", "filter by study type (e.g. \"Phase 3\")")
	storeQueryCmd.Flags().Float64("min-confidence", 0, "minimum extraction confidence")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("output-dir", "output", "directory for export files")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("study-type", "", "filter by study type for partial export")
	storeExportCmd.Flags().Float64("min-confidence", 0, "minimum extraction confidence for partial export")
	storeExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
