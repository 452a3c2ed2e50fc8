package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codereviewer/internal/review"
)

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, sampleResult()))
	out := buf.String()

	heavy := strings.Repeat("=", 80)
	assert.True(t, strings.HasPrefix(out, heavy+"\nCODE REVIEW RESULTS\n"+heavy+"\n\nOverall Score: 42/100\n"))
	assert.Contains(t, out, "\nTotal Issues: 2\n  - Critical: 1\n  - High: 0\n  - Medium/Low: 1\n")
	assert.Contains(t, out, "\n## Summary\n\nSQL injection in find_user\n")
	assert.Contains(t, out, "\n### Issue #1: CRITICAL\n**File:** app/db.py (line 12)\n**Category:** security\n")
	assert.Contains(t, out, "\n**Fix Example:**\n```python\nconn.execute(sql, (name,))\n```\n")
	assert.Contains(t, out, "\n### Issue #2: LOW\n**File:** app/util.py\n")
	assert.Contains(t, out, "\n## General Recommendations\n\n1. Add tests\n2. Enable linting\n")
	assert.True(t, strings.HasSuffix(out, "\n"+heavy+"\n"))
}

func TestTextWriter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, review.Empty("No staged changes to review.")))
	out := buf.String()

	assert.Contains(t, out, "Overall Score: 100/100")
	assert.Contains(t, out, "No staged changes to review.")
	assert.NotContains(t, out, "## Issues Found")
	assert.NotContains(t, out, "## General Recommendations")
}
