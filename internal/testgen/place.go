package testgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/codereviewer/internal/analysis"
)

// Outcome reports what Place did with a test.
type Outcome int

const (
	Created Outcome = iota
	Appended
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Appended:
		return "appended"
	case AlreadyPresent:
		return "already present"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// TestPath mirrors source under testRoot. Directories up to and including
// the first "src" segment are dropped, and the file becomes test_<stem>.py.
func TestPath(source, testRoot string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(source)), "/")
	for i, p := range parts {
		if p == "src" {
			parts = parts[i+1:]
			break
		}
	}

	dirs := []string{testRoot}
	for _, p := range parts[:max(len(parts)-1, 0)] {
		switch p {
		case "", ".", "..":
			continue
		}
		dirs = append(dirs, p)
	}

	name := filepath.Base(source)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	dirs = append(dirs, analysis.TestPrefix+stem+analysis.SourceExt)
	return filepath.Join(dirs...)
}

// FrameworkImports is the header of a newly created test file.
func FrameworkImports(framework string) string {
	if framework == "pytest" {
		return "import pytest\nfrom unittest.mock import Mock, patch"
	}
	return "import unittest\nfrom unittest.mock import Mock, patch"
}

// Place writes test to its FilePath, creating parent directories. An
// existing file is replaced when overwrite is set; otherwise the test is
// appended unless the file already defines the test's name or any function
// the test code defines.
func Place(test GeneratedTest, overwrite bool) (Outcome, error) {
	if err := os.MkdirAll(filepath.Dir(test.FilePath), 0o755); err != nil {
		return 0, fmt.Errorf("creating test directory: %w", err)
	}

	existing, err := os.ReadFile(test.FilePath)
	switch {
	case err == nil && !overwrite:
		if alreadyDefined(string(existing), test) {
			return AlreadyPresent, nil
		}
		f, err := os.OpenFile(test.FilePath, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return 0, fmt.Errorf("opening test file: %w", err)
		}
		if _, err := f.WriteString("\n\n" + test.Code + "\n"); err != nil {
			f.Close()
			return 0, fmt.Errorf("appending test: %w", err)
		}
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("appending test: %w", err)
		}
		return Appended, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("reading test file: %w", err)
	}

	content := FrameworkImports(test.Framework) + "\n\n" + test.Code + "\n"
	if err := os.WriteFile(test.FilePath, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("writing test file: %w", err)
	}
	return Created, nil
}

// Placer places the tests of one run. With overwrite set, each target file
// is replaced by the first test placed into it and later tests for the same
// file are appended.
type Placer struct {
	overwrite bool
	written   map[string]bool
}

// NewPlacer returns a Placer for one generate run.
func NewPlacer(overwrite bool) *Placer {
	return &Placer{overwrite: overwrite, written: make(map[string]bool)}
}

// Place places test, replacing its file only the first time it is seen.
func (p *Placer) Place(test GeneratedTest) (Outcome, error) {
	key := filepath.Clean(test.FilePath)
	outcome, err := Place(test, p.overwrite && !p.written[key])
	if err != nil {
		return outcome, err
	}
	p.written[key] = true
	return outcome, nil
}

var defPattern = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]*\(`)

// definedNames lists the function names defined anywhere in source.
func definedNames(source string) map[string]bool {
	names := make(map[string]bool)
	for _, m := range defPattern.FindAllStringSubmatch(source, -1) {
		names[m[1]] = true
	}
	return names
}

func alreadyDefined(existing string, test GeneratedTest) bool {
	have := definedNames(existing)
	if have[test.Name] {
		return true
	}
	for name := range definedNames(test.Code) {
		if have[name] {
			return true
		}
	}
	return false
}
