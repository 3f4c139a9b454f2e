// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-export/internal/config"
	"github.com/pdiddy/scholar-export/internal/publications"
	"github.com/pdiddy/scholar-export/internal/store"
	"github.com/pdiddy/scholar-export/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the publications of the last export",
	Long: `List prints the items of the last export as a table or as JSON. Items come
from the SQLite index written by "export --db"; when the index does not exist
the JSON document at --out is read instead.`,
	RunE: runList,
}

var listFlags = map[string]string{
	"db":  config.KeyDB,
	"out": config.KeyOut,
}

func init() {
	listCmd.Flags().String("db", store.DefaultPath, "SQLite index to read")
	listCmd.Flags().String("out", config.DefaultOut, "JSON document to read when the index does not exist")
	listCmd.Flags().Bool("selected", false, "only list selected items")
	listCmd.Flags().String("query", "", "only list items whose title, authors, or venue contain this text")
	listCmd.Flags().Bool("json", false, "output the document as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), listFlags); err != nil {
		return err
	}
	selectedOnly, _ := cmd.Flags().GetBool("selected")
	query, _ := cmd.Flags().GetString("query")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := store.ListOptions{SelectedOnly: selectedOnly, Query: query}
	doc, err := loadListed(cmd.Context(), v.GetString(config.KeyDB), v.GetString(config.KeyOut), opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	printTable(cmd.OutOrStdout(), doc)
	return nil
}

// loadListed reads the document from the index at dbPath, or from the
// JSON file at outPath when no index exists, and applies opts.
func loadListed(ctx context.Context, dbPath, outPath string, opts store.ListOptions) (types.ExportDocument, error) {
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			idx, err := store.Open(dbPath)
			if err != nil {
				return types.ExportDocument{}, err
			}
			defer idx.Close()

			doc, err := idx.Load(ctx, opts)
			if !errors.Is(err, store.ErrEmpty) {
				return doc, err
			}
		}
	}

	doc, err := publications.ReadDocument(outPath)
	if errors.Is(err, os.ErrNotExist) {
		return doc, fmt.Errorf("%w: no export found at %s or %s; run export first", config.ErrInvalid, dbPath, outPath)
	}
	if err != nil {
		return doc, err
	}
	doc.Items = filterItems(doc.Items, opts)
	return doc, nil
}

// filterItems applies opts to items held in memory, matching the index's
// filtering.
func filterItems(items []types.PublicationItem, opts store.ListOptions) []types.PublicationItem {
	q := strings.ToLower(strings.TrimSpace(opts.Query))
	out := []types.PublicationItem{}
	for _, it := range items {
		if opts.SelectedOnly && !it.Selected {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Title), q) &&
			!strings.Contains(strings.ToLower(it.Authors), q) &&
			!strings.Contains(strings.ToLower(it.Venue), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func printTable(w io.Writer, doc types.ExportDocument) {
	fmt.Fprintf(w, "%s (%s), updated %s: %d of %d item(s)\n\n",
		doc.Source.Name, doc.Source.Via, doc.UpdatedAt, len(doc.Items), doc.Counts.Total)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEL\tYEAR\tCITES\tTITLE\tDOI")
	for _, it := range doc.Items {
		sel := ""
		if it.Selected {
			sel = "*"
		}
		cites := "-"
		if it.CitationCount != nil {
			cites = fmt.Sprint(*it.CitationCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", sel, it.Year, cites, truncate(it.Title, 72), it.DOI)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
