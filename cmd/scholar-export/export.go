// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-export/internal/config"
	"github.com/pdiddy/scholar-export/internal/publications"
	"github.com/pdiddy/scholar-export/internal/s2"
	"github.com/pdiddy/scholar-export/internal/store"
	"github.com/pdiddy/scholar-export/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch an author's papers and write the publications document",
	Long: `Export lists the author's papers from Semantic Scholar, marks the ones whose
DOI appears in the selected-DOI file, sorts them by year, citation count and
title (all descending), and replaces the output file with the result.

Nothing is written when the provider request fails. With --db the same
items are mirrored into a SQLite index that the list command reads.`,
	Example: `  scholar-export export --author-id 1741101
  scholar-export export --author-id 1741101 --format yaml --out data/publications.yaml`,
	RunE: runExport,
}

// exportFlags maps export flags to config keys.
var exportFlags = map[string]string{
	"author-id":     config.KeyAuthorID,
	"out":           config.KeyOut,
	"selected-dois": config.KeySelectedDOIs,
	"limit":         config.KeyLimit,
	"format":        config.KeyFormat,
	"db":            config.KeyDB,
	"timeout":       config.KeyTimeout,
	"page-size":     config.KeyPageSize,
	"max-retries":   config.KeyMaxRetries,
}

func init() {
	exportCmd.Flags().String("author-id", "", "Semantic Scholar author ID (required)")
	exportCmd.Flags().String("out", config.DefaultOut, "output document path")
	exportCmd.Flags().String("selected-dois", config.DefaultSelected, "file of selected DOIs, one per line")
	exportCmd.Flags().Int("limit", config.DefaultLimit, "maximum number of papers to request")
	exportCmd.Flags().String("format", string(types.FormatJSON), "output format: json or yaml")
	exportCmd.Flags().String("db", "", "also mirror the items into this SQLite index")
	exportCmd.Flags().Duration("timeout", s2.DefaultTimeout, "HTTP request timeout")
	exportCmd.Flags().Int("page-size", s2.DefaultPageSize, "papers requested per page (max 1000)")
	exportCmd.Flags().Int("max-retries", 3, "retries for rate-limited (429) responses")
	exportCmd.Flags().BoolP("verbose", "v", false, "also report the number of selected items on stderr")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), exportFlags); err != nil {
		return err
	}

	cfg, err := config.Load(v, os.Stderr)
	if err != nil {
		return err
	}
	cfg.UserAgent = "scholar-export/" + version

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	doc, err := export(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		reportSelected(cmd.ErrOrStderr(), doc)
	}
	return nil
}

// reportSelected writes how many exported items are flagged selected.
func reportSelected(w io.Writer, doc types.ExportDocument) {
	fmt.Fprintf(w, "Selected: %d of %d item(s).\n", publications.SelectedCount(doc), doc.Counts.Total)
}

// export runs one export with cfg, opening the SQLite index when a path is
// configured.
func export(ctx context.Context, cfg types.ExportConfig, out, log io.Writer) (types.ExportDocument, error) {
	client := s2.NewClient(
		s2.WithAPIKey(cfg.APIKey),
		s2.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		s2.WithUserAgent(cfg.UserAgent),
		s2.WithPageSize(cfg.PageSize),
		s2.WithMaxRetries(cfg.MaxRetries),
		s2.WithProgress(log),
	)

	e := &publications.Exporter{
		Fetcher: client,
		Config:  cfg,
		Out:     out,
		Log:     log,
	}

	if cfg.DBPath != "" {
		idx, err := store.Open(cfg.DBPath)
		if err != nil {
			return types.ExportDocument{}, err
		}
		defer idx.Close()
		e.Index = idx
	}

	return e.Run(ctx)
}

// bindFlags binds each named flag of fs to its config key on v.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}
