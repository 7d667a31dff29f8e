// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the catalog of built models and elements",
	Long: `Catalog reads the SQLite database that build maintains: one row per model
with its input digest and build status, and one row per element with the
same fields as metadata.json. Use subcommands to list models, search
elements, or export.`,
}

// --- models subcommand ---

var catalogModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models recorded by previous builds",
	RunE:  runCatalogModels,
}

func runCatalogModels(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	models, err := store.Models(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	if len(models) == 0 {
		fmt.Println("No models recorded.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-24s  %-8s  %-8s  %8s  %s\n", "Model", "Status", "Schema", "Elements", "Updated")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, m := range models {
		fmt.Fprintf(os.Stdout, "%-24s  %-8s  %-8s  %8d  %s\n",
			truncate(m.Slug, 24), m.Status, m.Schema, m.ElementCount, m.Entry().Updated)
	}
	return nil
}

// --- types subcommand ---

var catalogTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "Count cataloged elements per IFC type",
	RunE:  runCatalogTypes,
}

func runCatalogTypes(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	model, _ := cmd.Flags().GetString("model")
	counts, err := store.TypeCounts(cmd.Context(), model)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for t := range counts {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, t := range names {
		fmt.Fprintf(os.Stdout, "%-32s %d\n", t, counts[t])
	}
	return nil
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search elements by text, model, IFC type or storey",
	Long: `Search queries element names, types, tags, storeys and property values.
With the sqlite_fts5 build tag results are ranked by FTS5 relevance;
otherwise every query term must appear as a substring. --type matches the
IFC type and its subtypes, so --type IfcWall includes IfcWallStandardCase.`,
	RunE: runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	opts := searchOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --model, --type, or --storey")
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []catalog.ElementResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-22s  %-16s  %-24s  %-30s  %s\n",
		"Rank", "GlobalId", "Model", "Type", "Name", "Storey")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-22s  %-16s  %-24s  %-30s  %s\n",
			i+1, r.GUID, truncate(r.Model, 16), truncate(r.Type, 24),
			truncate(deref(r.Name), 30), deref(r.Storey))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes every model and element (or a filtered subset) to
export.yaml or export.json next to the catalog database. Supports the same
filter flags as search for partial exports.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := searchOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), output, opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), output, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	if err := bindFlags(cmd, map[string]string{
		"catalog":     "catalog.path",
		"max-results": "catalog.max_results",
	}); err != nil {
		return nil, err
	}
	cfg := catalogConfig()
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("catalog %s: %w (run ifc-pages build first)", cfg.Path, err)
	}
	return catalog.Open(cfg)
}

func searchOptsFromFlags(cmd *cobra.Command, args []string) catalog.SearchOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	model, _ := cmd.Flags().GetString("model")
	ifcType, _ := cmd.Flags().GetString("type")
	storey, _ := cmd.Flags().GetString("storey")
	limit, _ := cmd.Flags().GetInt("limit")

	return catalog.SearchOptions{
		Query:      queryText,
		Model:      model,
		Type:       ifcType,
		Storey:     storey,
		MaxResults: limit,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("catalog", catalog.DefaultPath, "catalog database path")
	catalogCmd.PersistentFlags().Int("max-results", 20, "maximum number of search results")

	catalogModelsCmd.Flags().Bool("json", false, "output models as JSON")

	catalogTypesCmd.Flags().String("model", "", "count only this model slug")

	// Search flags.
	catalogSearchCmd.Flags().String("query", "", "full-text search query")
	catalogSearchCmd.Flags().String("model", "", "filter by model slug")
	catalogSearchCmd.Flags().String("type", "", "filter by IFC type, including subtypes")
	catalogSearchCmd.Flags().String("storey", "", "filter by storey name")
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("output", "", "export file (default: next to the catalog)")
	catalogExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	catalogExportCmd.Flags().String("model", "", "filter by model slug for partial export")
	catalogExportCmd.Flags().String("type", "", "filter by IFC type for partial export")
	catalogExportCmd.Flags().String("storey", "", "filter by storey for partial export")
	catalogExportCmd.Flags().Int("limit", 0, "maximum elements to export (0 = all)")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogModelsCmd)
	catalogCmd.AddCommand(catalogTypesCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
