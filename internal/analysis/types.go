package analysis

import (
	"fmt"
	"strings"
)

// Param is one parameter of a callable definition.
type Param struct {
	Name       string `json:"name"`
	Annotation string `json:"annotation,omitempty"`
}

// String renders the parameter the way it appears in a signature.
func (p Param) String() string {
	if p.Annotation == "" {
		return p.Name
	}
	return p.Name + ": " + p.Annotation
}

// Function describes a function or method definition.
type Function struct {
	Name       string   `json:"name"`
	Line       int      `json:"line"`
	EndLine    int      `json:"endLine"`
	Params     []Param  `json:"params"`
	Returns    string   `json:"returns,omitempty"`
	Async      bool     `json:"async"`
	Method     bool     `json:"method"`
	Docstring  string   `json:"docstring,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Complexity int      `json:"complexity"`
}

// Signature renders the definition header, e.g. "async def f(x: int) -> str".
func (f Function) Signature() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	var b strings.Builder
	if f.Async {
		b.WriteString("async ")
	}
	fmt.Fprintf(&b, "def %s(%s)", f.Name, strings.Join(params, ", "))
	if f.Returns != "" {
		b.WriteString(" -> ")
		b.WriteString(f.Returns)
	}
	return b.String()
}

// Contains reports whether line falls inside the definition span.
func (f Function) Contains(line int) bool {
	return f.Line <= line && line <= f.EndLine
}

// Class describes a class definition and the methods defined directly in its body.
type Class struct {
	Name       string     `json:"name"`
	Line       int        `json:"line"`
	EndLine    int        `json:"endLine"`
	Bases      []string   `json:"bases,omitempty"`
	Methods    []Function `json:"methods"`
	Docstring  string     `json:"docstring,omitempty"`
	Decorators []string   `json:"decorators,omitempty"`
}

// Import describes one import statement (one record per alias for plain imports).
type Import struct {
	Module     string   `json:"module"`
	Names      []string `json:"names"`
	Line       int      `json:"line"`
	FromImport bool     `json:"fromImport"`
}

// Metrics summarizes file-level quality metrics.
type Metrics struct {
	LinesOfCode          int                `json:"linesOfCode"`
	CyclomaticComplexity float64            `json:"cyclomaticComplexity"`
	MaintainabilityIndex float64            `json:"maintainabilityIndex"`
	Halstead             map[string]float64 `json:"halstead"`
	FunctionCount        int                `json:"functionCount"`
	ClassCount           int                `json:"classCount"`
	AverageComplexity    float64            `json:"averageComplexity"`
}

// Structure is the structural model of one source file.
type Structure struct {
	Functions []Function
	Classes   []Class
	Imports   []Import
	Globals   []string
}

// FileReport is the complete analysis of one file. When ParseErrors is
// non-empty every structural list is empty and Metrics is nil.
type FileReport struct {
	Path        string     `json:"path"`
	Functions   []Function `json:"functions"`
	Classes     []Class    `json:"classes"`
	Imports     []Import   `json:"imports"`
	Globals     []string   `json:"globals"`
	Metrics     *Metrics   `json:"metrics,omitempty"`
	ParseErrors []string   `json:"parseErrors,omitempty"`
}

// OK reports whether the file was read and parsed successfully.
func (r *FileReport) OK() bool {
	return len(r.ParseErrors) == 0
}

// HasTypeHints reports whether any top-level function carries a return or
// parameter annotation.
func (r *FileReport) HasTypeHints() bool {
	for _, fn := range r.Functions {
		if fn.Returns != "" {
			return true
		}
		for _, p := range fn.Params {
			if p.Annotation != "" {
				return true
			}
		}
	}
	return false
}

// TestFunctions returns the top-level functions named with the test prefix.
func (r *FileReport) TestFunctions() []Function {
	var out []Function
	for _, fn := range r.Functions {
		if strings.HasPrefix(fn.Name, TestPrefix) {
			out = append(out, fn)
		}
	}
	return out
}

// FunctionAt returns the first definition whose span contains line.
// Top-level functions are searched before methods.
func (r *FileReport) FunctionAt(line int) (Function, bool) {
	for _, fn := range r.Functions {
		if fn.Contains(line) {
			return fn, true
		}
	}
	for _, cls := range r.Classes {
		for _, m := range cls.Methods {
			if m.Contains(line) {
				return m, true
			}
		}
	}
	return Function{}, false
}

// LookupFunction finds a top-level function or method by name.
func (r *FileReport) LookupFunction(name string) (Function, bool) {
	for _, fn := range r.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	for _, cls := range r.Classes {
		for _, m := range cls.Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	return Function{}, false
}

// ParseError reports source text that could not be parsed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
	}
	return e.Msg
}

// TestPrefix is the conventional prefix of test functions and test files.
const TestPrefix = "test_"

// SourceExt is the file extension of analyzable source files.
const SourceExt = ".py"
