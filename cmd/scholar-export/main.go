// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-export CLI, which writes
// an author's Semantic Scholar papers to a static JSON document for a
// publications page.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-export/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the scholar-export CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-export",
	Short: "Export an author's Semantic Scholar papers for a publications page",
	Long: `scholar-export fetches an author's papers from Semantic Scholar, normalizes
them, flags the ones listed in a selected-DOI file, sorts them newest and
most cited first, and writes the result as a single JSON document that a
static site can render.

The API key is read from SEMANTIC_SCHOLAR_API_KEY (the environment or a
.env file) or from .secrets/semantic-scholar-api-key. Without one the
shared unauthenticated rate limit applies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		cfgFile, _ := cmd.Flags().GetString("config")
		return config.Setup(viper.GetViper(), cfgFile, os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-export.yaml or ~/.config/scholar-export/scholar-export.yaml)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
