package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codereviewer/internal/review"
)

func intPtr(n int) *int { return &n }

func sampleResult() *review.Result {
	return &review.Result{
		Score:   42,
		Summary: "SQL injection in find_user",
		Issues: []review.Issue{
			{
				Severity:    review.SeverityCritical,
				FilePath:    "app/db.py",
				Line:        intPtr(12),
				Category:    review.CategorySecurity,
				Description: "String concatenation builds SQL",
				Suggestion:  "Use query parameters",
				CodeExample: "conn.execute(sql, (name,))",
			},
			{
				Severity:    review.SeverityLow,
				FilePath:    "app/util.py",
				Category:    review.CategoryQuality,
				Description: "Unused import",
				Suggestion:  "Remove it",
			},
		},
		Recommendations: []string{"Add tests", "Enable linting"},
	}
}

func TestGetWriter(t *testing.T) {
	meta := NewMeta("1.0.0")
	_, err := uuid.Parse(meta.RunID)
	require.NoError(t, err)

	for _, format := range Formats {
		w, err := GetWriter(format, meta)
		require.NoError(t, err, format)
		assert.NotNil(t, w)
	}
	_, err = GetWriter("xml", meta)
	assert.ErrorContains(t, err, "unsupported output format: xml")
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.txt")
	require.NoError(t, WriteToFile(sampleResult(), "text", Meta{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CODE REVIEW RESULTS")

	assert.Error(t, WriteToFile(sampleResult(), "text", Meta{}, filepath.Join(t.TempDir(), "missing", "x.txt")))
}

func TestConsole_Unstyled(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Success("Written to: tests/test_calc.py")
	c.Warn("Test already exists in: tests/test_calc.py")
	c.Info("Dry run - no files were modified")
	c.Error("CRITICAL ISSUES FOUND: 1")
	c.Step("code-reviewer review")

	assert.Equal(t, "✅ Written to: tests/test_calc.py\n"+
		"⚠️  Test already exists in: tests/test_calc.py\n"+
		"ℹ️  Dry run - no files were modified\n"+
		"❌ CRITICAL ISSUES FOUND: 1\n"+
		"   code-reviewer review\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestConsole_ColorsAreANSIIndexes(t *testing.T) {
	styles := map[string]lipgloss.Style{
		"success": successStyle,
		"error":   errorStyle,
		"warn":    warnStyle,
		"info":    infoStyle,
		"step":    stepStyle,
	}
	for name, style := range styles {
		c, ok := style.GetForeground().(lipgloss.Color)
		require.True(t, ok, name)
		n, err := strconv.Atoi(string(c))
		require.NoError(t, err, "%s color %q is not an ANSI index", name, c)
		assert.True(t, n >= 0 && n <= 255, name)
	}
}
