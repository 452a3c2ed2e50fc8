package analysis

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string) *Structure {
	t.Helper()
	st, err := Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	return st
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtract_SingleBranchFunction(t *testing.T) {
	st := extract(t, "def f(x):\n    if x:\n        return 1\n    return 2\n")
	require.Len(t, st.Functions, 1)
	fn := st.Functions[0]
	assert.Equal(t, "f", fn.Name)
	assert.Equal(t, 2, fn.Complexity)
	assert.Equal(t, 1, fn.Line)
	assert.Equal(t, 4, fn.EndLine)
	assert.Equal(t, []Param{{Name: "x"}}, fn.Params)
	assert.False(t, fn.Method)
}

func TestExtract_Complexity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"straight", "def f():\n    return 1\n", 1},
		{"bool chain", "def f(a, b, c, d):\n    return a and b and c or d\n", 4},
		{"mixed statements", `def h(xs):
    for x in xs:
        try:
            pass
        except ValueError:
            pass
        except KeyError:
            pass
    while True:
        break
    if a:
        pass
    elif b:
        pass
    else:
        pass
`, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := extract(t, tt.src)
			require.Len(t, st.Functions, 1)
			assert.Equal(t, tt.want, st.Functions[0].Complexity)
		})
	}
}

func TestExtract_MethodsAndFunctions(t *testing.T) {
	src := `class A(Base, metaclass=Meta):
    """A thing."""

    def __init__(self, x):
        self.x = x

    @staticmethod
    def make():
        def helper():
            return 1
        return helper()

    class Inner:
        def deep(self):
            pass


def top():
    pass
`
	st := extract(t, src)

	var fnNames []string
	for _, fn := range st.Functions {
		fnNames = append(fnNames, fn.Name)
	}
	assert.Equal(t, []string{"helper", "top"}, fnNames)

	require.Len(t, st.Classes, 2)
	a := st.Classes[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, []string{"Base"}, a.Bases)
	assert.Equal(t, "A thing.", a.Docstring)
	require.Len(t, a.Methods, 2)
	assert.Equal(t, "__init__", a.Methods[0].Name)
	assert.True(t, a.Methods[0].Method)
	assert.Equal(t, "make", a.Methods[1].Name)
	assert.Equal(t, []string{"staticmethod"}, a.Methods[1].Decorators)

	inner := st.Classes[1]
	assert.Equal(t, "Inner", inner.Name)
	require.Len(t, inner.Methods, 1)
	assert.Equal(t, "deep", inner.Methods[0].Name)
}

func TestExtract_Signature(t *testing.T) {
	st := extract(t, "async def g(a: int, b=2, *args, **kw) -> str:\n    return ''\n")
	require.Len(t, st.Functions, 1)
	fn := st.Functions[0]
	assert.True(t, fn.Async)
	assert.Equal(t, "str", fn.Returns)
	assert.Equal(t, "async def g(a: int, b, *args, **kw) -> str", fn.Signature())
}

func TestExtract_Docstring(t *testing.T) {
	src := "def f():\n    \"\"\"Summary.\n\n        Indented detail.\n    Body.\n    \"\"\"\n    return 1\n"
	st := extract(t, src)
	require.Len(t, st.Functions, 1)
	assert.Equal(t, "Summary.\n\n    Indented detail.\nBody.", st.Functions[0].Docstring)

	st = extract(t, "def g():\n    x = 1\n    \"not a docstring\"\n")
	assert.Empty(t, st.Functions[0].Docstring)
}

func TestExtract_Imports(t *testing.T) {
	src := "import os.path as p, sys\nfrom .m import x as y, z\nfrom . import q\nfrom a import *\n"
	st := extract(t, src)
	assert.Equal(t, []Import{
		{Module: "os.path", Names: []string{"p"}, Line: 1},
		{Module: "sys", Names: []string{"sys"}, Line: 1},
		{Module: "m", Names: []string{"x", "z"}, Line: 2, FromImport: true},
		{Module: "", Names: []string{"q"}, Line: 3, FromImport: true},
		{Module: "a", Names: []string{"*"}, Line: 4, FromImport: true},
	}, st.Imports)
}

func TestExtract_Globals(t *testing.T) {
	src := "X = 1\nY: int = 2\na.b = 3\nZ = W = 0\ndef f():\n    inner = 1\n"
	st := extract(t, src)
	assert.Equal(t, []string{"X", "Z"}, st.Globals)
}

func TestExtract_SyntaxError(t *testing.T) {
	_, err := Extract(context.Background(), []byte("def f(:\n    pass\n"))
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
}

func TestAnalyze(t *testing.T) {
	path := writeFile(t, "mod.py", `import os

def add(a: int, b: int) -> int:
    """Add."""
    return a + b

def test_add():
    assert add(1, 2) == 3

class Box:
    def get(self):
        if self.x:
            return 1
        return 0
`)
	a := NewAnalyzer(nil)
	r := a.Analyze(context.Background(), path)
	require.True(t, r.OK(), r.ParseErrors)
	require.NotNil(t, r.Metrics)
	assert.Equal(t, 2, r.Metrics.FunctionCount)
	assert.Equal(t, 1, r.Metrics.ClassCount)
	assert.Equal(t, 11, r.Metrics.LinesOfCode)
	assert.InDelta(t, 4.0, r.Metrics.CyclomaticComplexity, 1e-9)
	assert.InDelta(t, 4.0/3.0, r.Metrics.AverageComplexity, 1e-9)
	assert.True(t, r.HasTypeHints())
	assert.Greater(t, r.Metrics.MaintainabilityIndex, 0.0)
	assert.LessOrEqual(t, r.Metrics.MaintainabilityIndex, 100.0)

	tests := a.FindTestFunctions(context.Background(), path)
	require.Len(t, tests, 1)
	assert.Equal(t, "test_add", tests[0].Name)

	fn, ok := a.FunctionAtLine(context.Background(), path, 13)
	require.True(t, ok)
	assert.Equal(t, "get", fn.Name)
	_, ok = a.FunctionAtLine(context.Background(), path, 1)
	assert.False(t, ok)
}

func TestAnalyze_Failures(t *testing.T) {
	a := NewAnalyzer(nil)

	r := a.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	require.Len(t, r.ParseErrors, 1)
	assert.Contains(t, r.ParseErrors[0], "Failed to read file:")
	assert.Nil(t, r.Metrics)

	r = a.Analyze(context.Background(), writeFile(t, "bad.py", "def f(:\n"))
	require.Len(t, r.ParseErrors, 1)
	assert.Contains(t, r.ParseErrors[0], "Syntax error:")
	assert.Empty(t, r.Functions)
	assert.Empty(t, r.Classes)
	assert.Nil(t, r.Metrics)

	r = a.AnalyzeSource(context.Background(), "bin.py", []byte{0xff, 0xfe, 'x'})
	require.Len(t, r.ParseErrors, 1)
	assert.Contains(t, r.ParseErrors[0], "Failed to read file:")
}

func TestAnalyze_NoDefinitions(t *testing.T) {
	r := NewAnalyzer(nil).AnalyzeSource(context.Background(), "m.py", []byte("X = 1\n"))
	require.NotNil(t, r.Metrics)
	assert.Equal(t, 0.0, r.Metrics.CyclomaticComplexity)
	assert.Equal(t, 1.0, r.Metrics.AverageComplexity)
}

type brokenEngine struct{}

func (brokenEngine) Cyclomatic(context.Context, []byte) ([]int, error) {
	return nil, errors.New("boom")
}

func (brokenEngine) Maintainability(context.Context, []byte) (float64, error) {
	panic("unexpected")
}

func (brokenEngine) Halstead(context.Context, []byte) (map[string]float64, error) {
	return nil, errors.New("boom")
}

func TestScorer_Fallbacks(t *testing.T) {
	s := NewScorer(brokenEngine{}, nil)
	sc := s.Score(context.Background(), []byte("x = 1\n\ny = 2\n"))
	assert.Equal(t, 2, sc.LinesOfCode)
	assert.Equal(t, 1.0, sc.Total)
	assert.Equal(t, 1.0, sc.Average)
	assert.Equal(t, 100.0, sc.Maintainability)
	assert.Empty(t, sc.Halstead)
}

func TestAnalyze_DegradedMetrics(t *testing.T) {
	a := NewAnalyzer(nil).WithScorer(NewScorer(brokenEngine{}, nil))
	r := a.AnalyzeSource(context.Background(), "m.py", []byte("def f(x):\n    if x:\n        return 1\n"))
	require.True(t, r.OK())
	require.Len(t, r.Functions, 1)
	assert.Equal(t, 2, r.Functions[0].Complexity)
	assert.Equal(t, 1.0, r.Metrics.CyclomaticComplexity)
	assert.Equal(t, 100.0, r.Metrics.MaintainabilityIndex)
	assert.Empty(t, r.Metrics.Halstead)
}

func TestHalstead(t *testing.T) {
	h, err := TreeSitterEngine{}.Halstead(context.Background(), []byte("x = a + b\n"))
	require.NoError(t, err)
	assert.InDelta(t, 3*math.Log2(3), h["volume"], 1e-9)
	assert.InDelta(t, 0.5, h["difficulty"], 1e-9)
	assert.InDelta(t, 1.5*math.Log2(3), h["effort"], 1e-9)
}

func TestMaintainability_Empty(t *testing.T) {
	mi, err := TreeSitterEngine{}.Maintainability(context.Background(), []byte(""))
	require.NoError(t, err)
	assert.Equal(t, 100.0, mi)
}
