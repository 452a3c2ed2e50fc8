package testgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestPath(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"src/pkg/mod.py", "tests/pkg/test_mod.py"},
		{"pkg/mod.py", "tests/pkg/test_mod.py"},
		{"mod.py", "tests/test_mod.py"},
		{"/home/dev/proj/src/app/core/engine.py", "tests/app/core/test_engine.py"},
		{"lib/src/a/src/b.py", "tests/a/src/test_b.py"},
		{"../other/m.py", "tests/other/test_m.py"},
		{"./src/util.py", "tests/test_util.py"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), TestPath(filepath.FromSlash(tt.source), "tests"))
		})
	}
}

func TestFrameworkImports(t *testing.T) {
	assert.Equal(t, "import pytest\nfrom unittest.mock import Mock, patch", FrameworkImports("pytest"))
	assert.Equal(t, "import unittest\nfrom unittest.mock import Mock, patch", FrameworkImports("unittest"))
}

func TestPlace_CreateThenAlreadyPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tests", "pkg", "test_mod.py")
	test := GeneratedTest{
		Name:      "test_foo",
		Code:      "def test_foo():\n    assert True",
		FilePath:  path,
		Framework: "pytest",
	}

	got, err := Place(test, false)
	require.NoError(t, err)
	assert.Equal(t, Created, got)

	want := "import pytest\nfrom unittest.mock import Mock, patch\n\ndef test_foo():\n    assert True\n"
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	got, err = Place(test, false)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, got)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestPlace_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_mod.py")
	existing := "import unittest\n\n\ndef test_foo_bar():\n    pass\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	got, err := Place(GeneratedTest{Name: "test_foo", Code: "def test_foo():\n    pass", FilePath: path}, false)
	require.NoError(t, err)
	assert.Equal(t, Appended, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing+"\n\ndef test_foo():\n    pass\n", string(data))
}

func TestPlace_DetectsIndentedAndAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_mod.py")
	require.NoError(t, os.WriteFile(path, []byte("class TestX:\n    async def test_foo (self):\n        pass\n"), 0o644))

	got, err := Place(GeneratedTest{Name: "test_foo", Code: "def test_foo():\n    pass", FilePath: path}, false)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, got)
}

func TestPlace_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_mod.py")
	require.NoError(t, os.WriteFile(path, []byte("def test_foo():\n    old()\n"), 0o644))

	got, err := Place(GeneratedTest{Name: "test_foo", Code: "def test_foo():\n    new()", FilePath: path, Framework: "unittest"}, true)
	require.NoError(t, err)
	assert.Equal(t, Created, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "import unittest\nfrom unittest.mock import Mock, patch\n\ndef test_foo():\n    new()\n", string(data))
}

func TestPlace_SecondRunWithSuffixedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_mod.py")
	test := GeneratedTest{
		Name:      "test_foo",
		Code:      "def test_foo_returns_one():\n    assert foo() == 1\n\n\ndef test_foo_handles_none():\n    assert foo(None) is None",
		FilePath:  path,
		Framework: "pytest",
	}

	got, err := Place(test, false)
	require.NoError(t, err)
	assert.Equal(t, Created, got)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	got, err = Place(test, false)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, got)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestPlacer_OverwritesOncePerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_mod.py")
	other := filepath.Join(dir, "test_other.py")
	require.NoError(t, os.WriteFile(path, []byte("def test_stale():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("def test_stale():\n    pass\n"), 0o644))

	p := NewPlacer(true)
	outcomes := make([]Outcome, 0, 3)
	for _, test := range []GeneratedTest{
		{Name: "test_a", Code: "def test_a():\n    pass", FilePath: path, Framework: "pytest"},
		{Name: "test_b", Code: "def test_b():\n    pass", FilePath: path, Framework: "pytest"},
		{Name: "test_c", Code: "def test_c():\n    pass", FilePath: other, Framework: "pytest"},
	} {
		got, err := p.Place(test)
		require.NoError(t, err)
		outcomes = append(outcomes, got)
	}
	assert.Equal(t, []Outcome{Created, Appended, Created}, outcomes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "import pytest\nfrom unittest.mock import Mock, patch\n\ndef test_a():\n    pass\n\n\ndef test_b():\n    pass\n", string(data))

	data, err = os.ReadFile(other)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "test_stale")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "appended", Appended.String())
	assert.Equal(t, "already present", AlreadyPresent.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
