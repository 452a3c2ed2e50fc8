// Package prompts loads the review and test-generation prompt templates.
//
// Templates are embedded in the binary. A Loader can be pointed at a
// directory whose files take precedence over the embedded copies, which lets
// users tune prompts without rebuilding.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var builtin embed.FS

// DefaultStrictness is used when the requested level has no template.
const DefaultStrictness = "harsh"

const testGenerationFile = "test_generation.txt"

// Default placeholder values for optional test prompt fields.
const (
	NoImports  = "# No additional imports found"
	NoExamples = "# No example tests found"
)

// Loader resolves templates by name. Safe for concurrent use.
type Loader struct {
	layers []fs.FS
}

// New returns a Loader backed by the embedded templates only.
func New() *Loader {
	sub, _ := fs.Sub(builtin, "templates")
	return &Loader{layers: []fs.FS{sub}}
}

// NewWithOverrides returns a Loader that consults dir before the embedded
// templates. An empty dir behaves like New.
func NewWithOverrides(dir string) *Loader {
	l := New()
	if dir != "" {
		l.layers = append([]fs.FS{os.DirFS(dir)}, l.layers...)
	}
	return l
}

// NewFromFS returns a Loader that reads only from fsys. Used by tests.
func NewFromFS(fsys fs.FS) *Loader {
	return &Loader{layers: []fs.FS{fsys}}
}

func (l *Loader) read(name string) (string, error) {
	for _, fsys := range l.layers {
		data, err := fs.ReadFile(fsys, name)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading prompt %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("prompt %s: %w", name, fs.ErrNotExist)
}

// Review returns the review template for a strictness level, falling back
// to the harsh template when the level is unknown.
func (l *Loader) Review(strictness string) (string, error) {
	strictness = strings.ToLower(strings.TrimSpace(strictness))
	if strictness != "" && !strings.ContainsAny(strictness, `/\.`) {
		text, err := l.read("review_" + strictness + ".txt")
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return l.read("review_" + DefaultStrictness + ".txt")
}

// TestGeneration returns the raw test-generation template.
func (l *Loader) TestGeneration() (string, error) {
	return l.read(testGenerationFile)
}

// TestVars fills the test-generation template.
type TestVars struct {
	FunctionInfo         string
	Framework            string
	Imports              string
	Examples             string
	DocstringRequirement string
}

// FormatTest renders the test-generation template. Empty Imports and
// Examples are replaced with NoImports and NoExamples.
func (l *Loader) FormatTest(vars TestVars) (string, error) {
	text, err := l.TestGeneration()
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(testGenerationFile).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing test prompt: %w", err)
	}
	if vars.Imports == "" {
		vars.Imports = NoImports
	}
	if vars.Examples == "" {
		vars.Examples = NoExamples
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("rendering test prompt: %w", err)
	}
	return b.String(), nil
}
