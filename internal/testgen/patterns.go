package testgen

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dshills/codereviewer/internal/analysis"
	"github.com/dshills/codereviewer/internal/logging"
)

const (
	maxPatternFiles = 3
	maxExamples     = 2
)

// Analyzer produces structural reports for Python files.
type Analyzer interface {
	Analyze(ctx context.Context, path string) *analysis.FileReport
}

// Patterns are the conventions learned from an existing test suite.
type Patterns struct {
	Framework string
	// Imports are module names in first-seen order.
	Imports  []string
	Examples []analysis.Function
}

// LearnPatterns samples up to three test files under root: test_*.py files
// first, then *_test.py, each group in lexical order. The framework is taken
// from the last sampled file importing pytest or unittest, falling back to
// framework. A missing root yields empty patterns.
func LearnPatterns(ctx context.Context, an Analyzer, root, framework string, log *slog.Logger) Patterns {
	log = logging.OrDiscard(log)
	p := Patterns{Framework: framework}

	files := testFiles(root, log)
	if len(files) > maxPatternFiles {
		files = files[:maxPatternFiles]
	}

	seen := make(map[string]bool)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		rep := an.Analyze(ctx, file)
		if !rep.OK() {
			log.Debug("skipping test file", "path", file, "errors", rep.ParseErrors)
			continue
		}

		for _, imp := range rep.Imports {
			if !seen[imp.Module] {
				seen[imp.Module] = true
				p.Imports = append(p.Imports, imp.Module)
			}
		}

		for _, fn := range rep.TestFunctions() {
			if len(p.Examples) == maxExamples {
				break
			}
			p.Examples = append(p.Examples, fn)
		}

		for _, imp := range rep.Imports {
			switch imp.Module {
			case "pytest", "unittest":
				p.Framework = imp.Module
			}
		}
	}
	return p
}

func testFiles(root string, log *slog.Logger) []string {
	var prefixed, suffixed []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, analysis.SourceExt) {
			return nil
		}
		stem := strings.TrimSuffix(name, analysis.SourceExt)
		switch {
		case strings.HasPrefix(name, analysis.TestPrefix):
			prefixed = append(prefixed, path)
		case strings.HasSuffix(stem, "_test"):
			suffixed = append(suffixed, path)
		}
		return nil
	})
	if err != nil {
		log.Debug("no test root", "root", root, "error", err)
		return nil
	}
	return append(prefixed, suffixed...)
}
