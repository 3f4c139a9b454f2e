//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for scholar-export developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories an export expects.
var projectDirs = []string{
	"data",
	".secrets",
}

// Init creates the data directory and an empty selected-DOI list.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}

	selected := filepath.Join("data", "selected_dois.txt")
	if _, err := os.Stat(selected); os.IsNotExist(err) {
		header := "# One DOI per line. Listed papers are marked selected in the export.\n"
		if err := os.WriteFile(selected, []byte(header), 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", selected, err)
		}
		fmt.Println("  ", selected)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "scholar-export"
	cmdPkg  = "./cmd/scholar-export"
)

// Build compiles the CLI binary into bin/, stamping the version from
// VERSION (default "dev").
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Export builds the CLI and exports the papers of authorID to
// data/publications.json. SEMANTIC_SCHOLAR_API_KEY is passed through.
func Export(authorID string) error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "export", "--author-id", authorID)
}

// List builds the CLI and prints the last export.
func List() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "list")
}

// Stats prints project metrics: Go production/test LOC and the size of the
// current export.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)

	data, err := os.ReadFile(filepath.Join("data", "publications.json"))
	if err == nil {
		fmt.Printf("Export size (bytes):            %d\n", len(data))
	}
	return nil
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
// Directories starting with "_" or "." are skipped, as the go tool does.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				total++
			}
		}
		return sc.Err()
	})
	return total, err
}
