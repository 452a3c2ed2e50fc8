package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codereviewer/internal/review"
)

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SARIFWriter{RunID: "run-1", Version: "1.0.0"}).Write(&buf, sampleResult()))

	var log sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)

	run := log.Runs[0]
	assert.Equal(t, "code-reviewer", run.Tool.Driver.Name)
	assert.Equal(t, "1.0.0", run.Tool.Driver.Version)
	require.NotNil(t, run.AutomationDetails)
	assert.Equal(t, "run-1", run.AutomationDetails.GUID)
	require.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	critical := run.Results[0]
	assert.Equal(t, "error", critical.Level)
	assert.Equal(t, "String concatenation builds SQL", critical.Message.Text)
	require.Len(t, critical.Locations, 1)
	assert.Equal(t, "app/db.py", critical.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.NotNil(t, critical.Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 12, critical.Locations[0].PhysicalLocation.Region.StartLine)
	require.Len(t, critical.Fixes, 1)

	low := run.Results[1]
	assert.Equal(t, "note", low.Level)
	assert.Nil(t, low.Locations[0].PhysicalLocation.Region)
}

func TestSARIFWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SARIFWriter{}).Write(&buf, review.Empty("")))

	var log sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	assert.Empty(t, log.Runs[0].Results)
	assert.Nil(t, log.Runs[0].AutomationDetails)
}

func TestRuleIDStable(t *testing.T) {
	issue := review.Issue{Category: review.CategorySecurity, Description: "d"}
	assert.Equal(t, ruleIDFor(issue), ruleIDFor(issue))
	assert.Regexp(t, `^code-reviewer/security/[0-9a-f]{8}$`, ruleIDFor(issue))

	other := issue
	other.Description = "e"
	assert.NotEqual(t, ruleIDFor(issue), ruleIDFor(other))
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel(review.SeverityHigh))
	assert.Equal(t, "warning", severityToLevel(review.SeverityMedium))
	assert.Equal(t, "note", severityToLevel(review.SeverityUnclassified))
}
