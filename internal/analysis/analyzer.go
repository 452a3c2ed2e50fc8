package analysis

import (
	"context"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/dshills/codereviewer/internal/logging"
)

// Analyzer produces a FileReport per source file.
type Analyzer struct {
	scorer *Scorer
	log    *slog.Logger
}

// NewAnalyzer creates an analyzer using the tree-sitter metrics engine.
func NewAnalyzer(log *slog.Logger) *Analyzer {
	log = logging.OrDiscard(log)
	return &Analyzer{scorer: NewScorer(nil, log), log: log}
}

// WithScorer replaces the metrics scorer.
func (a *Analyzer) WithScorer(s *Scorer) *Analyzer {
	a.scorer = s
	return a
}

// Analyze reads and analyzes the file at path. It never returns nil;
// failures are reported through ParseErrors.
func (a *Analyzer) Analyze(ctx context.Context, path string) *FileReport {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(path, "Failed to read file: "+err.Error())
	}
	return a.AnalyzeSource(ctx, path, data)
}

// AnalyzeSource analyzes source text already in memory.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, source []byte) *FileReport {
	if !utf8.Valid(source) {
		return failed(path, "Failed to read file: invalid UTF-8 encoding")
	}
	st, err := Extract(ctx, source)
	if err != nil {
		a.log.Debug("syntax error", "path", path, "error", err)
		return failed(path, "Syntax error: "+err.Error())
	}

	sc := a.scorer.Score(ctx, source)
	return &FileReport{
		Path:      path,
		Functions: st.Functions,
		Classes:   st.Classes,
		Imports:   st.Imports,
		Globals:   st.Globals,
		Metrics: &Metrics{
			LinesOfCode:          sc.LinesOfCode,
			CyclomaticComplexity: sc.Total,
			MaintainabilityIndex: sc.Maintainability,
			Halstead:             sc.Halstead,
			FunctionCount:        len(st.Functions),
			ClassCount:           len(st.Classes),
			AverageComplexity:    sc.Average,
		},
	}
}

func failed(path, msg string) *FileReport {
	return &FileReport{
		Path:        path,
		Functions:   []Function{},
		Classes:     []Class{},
		Imports:     []Import{},
		Globals:     []string{},
		ParseErrors: []string{msg},
	}
}

// FindTestFunctions returns the test functions defined at the top level of path.
func (a *Analyzer) FindTestFunctions(ctx context.Context, path string) []Function {
	return a.Analyze(ctx, path).TestFunctions()
}

// FunctionAtLine returns the definition containing line, top-level
// functions first.
func (a *Analyzer) FunctionAtLine(ctx context.Context, path string, line int) (Function, bool) {
	return a.Analyze(ctx, path).FunctionAt(line)
}
