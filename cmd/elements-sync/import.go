// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/elements-sync/internal/reconcile"
	"github.com/pdiddy/elements-sync/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import AUTHOR_ID [AUTHOR_ID...]",
	Short: "Import an author's publications from the registry",
	Long: `Import fetches each registry author, walks their publication feed, and
creates or updates a local record for every publication that passes
validation. One line is printed per publication as it is processed,
followed by a summary per author.

Several authors are imported concurrently (see --concurrency). A failure
fetching one author's data does not stop the others; the command exits
non-zero if any author failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int("concurrency", 0, "authors imported in parallel (default from config)")
	importCmd.Flags().Int("min-year", 0, "skip publications before this year (default from config)")
	importCmd.Flags().String("format", "text", "report format: text, json, or yaml")
	importCmd.Flags().Bool("quiet", false, "suppress per-publication progress lines")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg.Import
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	if y, _ := cmd.Flags().GetInt("min-year"); y > 0 {
		cfg.MinYear = y
	}
	if cfg.AuthorSalt == "" {
		slog.Warn("author salt is not configured; author hashes will not match other deployments")
	}

	format, _ := cmd.Flags().GetString("format")
	quiet, _ := cmd.Flags().GetBool("quiet")

	var progress io.Writer = os.Stdout
	if quiet || format != "text" {
		progress = io.Discard
	}

	im := reconcile.NewImporter(env.client, env.store, cfg,
		reconcile.WithLogger(slog.Default()),
		reconcile.WithProgress(progress),
	)

	results := im.ImportBatch(cmd.Context(), args)

	if err := writeImportResults(os.Stdout, results, format); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d author imports failed", failed, len(results))
	}
	return nil
}

// importEntry is the serialized form of one author's import.
type importEntry struct {
	AuthorID string       `json:"author_id" yaml:"author_id"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Report   types.Report `json:"report" yaml:"report"`
}

func writeImportResults(w io.Writer, results []reconcile.BatchResult, format string) error {
	switch format {
	case "text", "":
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(w, "author %s: failed: %v\n", r.AuthorID, r.Err)
				continue
			}
			fmt.Fprintf(w, "author %s: %s\n", r.AuthorID, r.Report.Summary())
		}
		return nil
	case "json", "yaml":
		entries := make([]importEntry, len(results))
		for i, r := range results {
			entries[i] = importEntry{AuthorID: r.AuthorID, Report: r.Report}
			if r.Err != nil {
				entries[i].Error = r.Err.Error()
			}
		}
		if format == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unsupported --format %q: use text, json, or yaml", format)
	}
}
