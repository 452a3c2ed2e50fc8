package testgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/codereviewer/internal/analysis"
	"github.com/dshills/codereviewer/internal/logging"
	"github.com/dshills/codereviewer/internal/prompts"
	"github.com/dshills/codereviewer/internal/providers"
)

// ErrFunctionNotFound is returned when a named function is not defined in
// the source file.
var ErrFunctionNotFound = errors.New("function not found")

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.3
	maxPromptImports   = 10
)

// GeneratedTest is one generated test function and where it belongs.
type GeneratedTest struct {
	Name           string `json:"test_name"`
	Code           string `json:"test_code"`
	TestedFunction string `json:"tested_function"`
	FilePath       string `json:"test_file_path"`
	Framework      string `json:"framework"`
}

// WithPath returns a copy of the test targeting path.
func (t GeneratedTest) WithPath(path string) GeneratedTest {
	t.FilePath = path
	return t
}

// Options configures a Generator.
type Options struct {
	// Framework is used when the existing suite does not reveal one.
	Framework   string
	Docstrings  bool
	MaxTokens   int
	Temperature float64
}

// Generator produces tests for Python functions through an engine.
type Generator struct {
	engine   providers.Engine
	prompts  *prompts.Loader
	analyzer Analyzer
	opts     Options
	log      *slog.Logger
}

// NewGenerator wires a generator. A nil analyzer uses the tree-sitter
// analyzer; zero token and temperature settings take generation defaults.
func NewGenerator(engine providers.Engine, loader *prompts.Loader, analyzer Analyzer, opts Options, log *slog.Logger) *Generator {
	log = logging.OrDiscard(log)
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(log)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.Framework == "" {
		opts.Framework = "pytest"
	}
	return &Generator{engine: engine, prompts: loader, analyzer: analyzer, opts: opts, log: log}
}

// GenerateForFile generates one test per testable function in path:
// public top-level functions and public methods, plus __init__. A function
// whose generation fails is logged and skipped.
func (g *Generator) GenerateForFile(ctx context.Context, path, testRoot string) ([]GeneratedTest, error) {
	rep, err := g.analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	pats := LearnPatterns(ctx, g.analyzer, testRoot, g.opts.Framework, g.log)

	var tests []GeneratedTest
	for _, fn := range Testable(rep) {
		t, err := g.generate(ctx, path, testRoot, fn, rep, pats)
		if err != nil {
			if ctx.Err() != nil {
				return tests, ctx.Err()
			}
			g.log.Warn("failed to generate test", "function", fn.Name, "error", err)
			continue
		}
		tests = append(tests, t)
	}
	return tests, nil
}

// GenerateForFunction generates a test for the function or method named
// name. It returns ErrFunctionNotFound when no such definition exists.
func (g *Generator) GenerateForFunction(ctx context.Context, path, name, testRoot string) (GeneratedTest, error) {
	rep, err := g.analyze(ctx, path)
	if err != nil {
		return GeneratedTest{}, err
	}
	fn, ok := rep.LookupFunction(name)
	if !ok {
		return GeneratedTest{}, fmt.Errorf("%w: %q in %s", ErrFunctionNotFound, name, path)
	}
	pats := LearnPatterns(ctx, g.analyzer, testRoot, g.opts.Framework, g.log)
	return g.generate(ctx, path, testRoot, fn, rep, pats)
}

func (g *Generator) analyze(ctx context.Context, path string) (*analysis.FileReport, error) {
	rep := g.analyzer.Analyze(ctx, path)
	if !rep.OK() {
		return nil, fmt.Errorf("failed to parse %s: %s", path, strings.Join(rep.ParseErrors, "; "))
	}
	return rep, nil
}

func (g *Generator) generate(ctx context.Context, path, testRoot string, fn analysis.Function, rep *analysis.FileReport, pats Patterns) (GeneratedTest, error) {
	vars := prompts.TestVars{
		FunctionInfo: FunctionInfo(path, fn),
		Framework:    pats.Framework,
		Imports:      ImportsSection(rep.Imports),
		Examples:     ExampleSection(pats.Examples),
	}
	if g.opts.Docstrings {
		vars.DocstringRequirement = "Include docstring for the test function"
	}

	prompt, err := g.prompts.FormatTest(vars)
	if err != nil {
		return GeneratedTest{}, fmt.Errorf("loading test prompt: %w", err)
	}

	g.log.Debug("generating test", "engine", g.engine.Name(), "function", fn.Name)
	reply, err := g.engine.Complete(ctx, providers.Request{
		UserPrompt:  prompt,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		return GeneratedTest{}, err
	}

	return GeneratedTest{
		Name:           analysis.TestPrefix + fn.Name,
		Code:           ExtractCode(firstText(reply)),
		TestedFunction: fn.Name,
		FilePath:       TestPath(path, testRoot),
		Framework:      pats.Framework,
	}, nil
}

func firstText(reply providers.Reply) string {
	for _, b := range reply.Blocks {
		if b.Kind == providers.TextBlock {
			return b.Text
		}
	}
	return ""
}

// Testable returns the functions in rep that get generated tests, top-level
// functions first.
func Testable(rep *analysis.FileReport) []analysis.Function {
	var out []analysis.Function
	for _, fn := range rep.Functions {
		if !strings.HasPrefix(fn.Name, "_") {
			out = append(out, fn)
		}
	}
	for _, cls := range rep.Classes {
		for _, m := range cls.Methods {
			if !strings.HasPrefix(m.Name, "_") || m.Name == "__init__" {
				out = append(out, m)
			}
		}
	}
	return out
}

// FunctionInfo describes fn for the test prompt.
func FunctionInfo(path string, fn analysis.Function) string {
	info := fmt.Sprintf("**File:** %s\n**Function:** %s\n**Line:** %d", path, fn.Signature(), fn.Line)
	if fn.Docstring != "" {
		info += "\n**Docstring:**\n" + fn.Docstring
	}
	return info
}

// ImportsSection lists the first imports of the source file, or returns
// "" when it has none.
func ImportsSection(imports []analysis.Import) string {
	if len(imports) == 0 {
		return ""
	}
	if len(imports) > maxPromptImports {
		imports = imports[:maxPromptImports]
	}
	lines := []string{"## File Imports"}
	for _, imp := range imports {
		if imp.FromImport {
			module := imp.Module
			if module == "" {
				module = "."
			}
			lines = append(lines, fmt.Sprintf("from %s import %s", module, strings.Join(imp.Names, ", ")))
		} else {
			lines = append(lines, "import "+imp.Module)
		}
	}
	return strings.Join(lines, "\n")
}

// ExampleSection renders the first learned example test as a skeleton, or
// returns "" when there are none.
func ExampleSection(examples []analysis.Function) string {
	if len(examples) == 0 {
		return ""
	}
	ex := examples[0]
	names := make([]string, len(ex.Params))
	for i, p := range ex.Params {
		names[i] = p.Name
	}
	lines := []string{
		"## Example Test Pattern from Project",
		"```python",
		fmt.Sprintf("def %s(%s):", ex.Name, strings.Join(names, ", ")),
	}
	if ex.Docstring != "" {
		lines = append(lines, fmt.Sprintf(`    """%s"""`, ex.Docstring))
	}
	lines = append(lines, "    # ... test implementation ...", "```")
	return strings.Join(lines, "\n")
}

// ExtractCode returns the first python fenced block of text, else the first
// fenced block, else the whole text, trimmed. An unterminated fence runs to
// the end of text.
func ExtractCode(text string) string {
	for _, open := range []string{"```python", "```"} {
		start := strings.Index(text, open)
		if start < 0 {
			continue
		}
		start += len(open)
		body := text[start:]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}
