package review

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codereviewer/internal/providers"
)

func toolReply(input string, text ...string) providers.Reply {
	var blocks []providers.Block
	for _, t := range text {
		blocks = append(blocks, providers.Block{Kind: providers.TextBlock, Text: t})
	}
	blocks = append(blocks, providers.Block{Kind: providers.ToolUseBlock, ToolName: ReviewToolName, Input: json.RawMessage(input)})
	return providers.Reply{Blocks: blocks}
}

func textReply(text string) providers.Reply {
	return providers.Reply{Blocks: []providers.Block{{Kind: providers.TextBlock, Text: text}}}
}

// assertWellFormed checks the guarantees every result carries.
func assertWellFormed(t *testing.T, r *Result) {
	t.Helper()
	require.NotNil(t, r)
	assert.NotNil(t, r.Issues)
	assert.NotNil(t, r.Recommendations)
	assert.GreaterOrEqual(t, r.Score, 0)
	assert.LessOrEqual(t, r.Score, 100)
	assert.LessOrEqual(t, r.CriticalCount()+r.HighCount(), r.TotalCount())
}

func TestValidate_StructuredTier(t *testing.T) {
	reply := toolReply(`{
		"overall_score": 42,
		"summary": "SQL injection in find_user",
		"issues": [{
			"severity": "CRITICAL",
			"file_path": "app/db.py",
			"line_number": 2,
			"category": "security",
			"description": "String concatenation builds SQL",
			"suggestion": "Use parameters",
			"code_example": "conn.execute(sql, (name,))"
		}],
		"recommendations": ["Add tests"]
	}`)

	r := Validate(reply)
	assertWellFormed(t, r)
	assert.Equal(t, 42, r.Score)
	assert.Equal(t, "SQL injection in find_user", r.Summary)
	require.Len(t, r.Issues, 1)
	issue := r.Issues[0]
	assert.Equal(t, SeverityCritical, issue.Severity)
	assert.Equal(t, CategorySecurity, issue.Category)
	assert.Equal(t, "app/db.py", issue.FilePath)
	assert.Equal(t, 2, issue.LineNumber())
	assert.Equal(t, "conn.execute(sql, (name,))", issue.CodeExample)
	assert.Equal(t, []string{"Add tests"}, r.Recommendations)
	assert.Equal(t, 1, r.CriticalCount())
}

func TestValidate_StructuredWinsOverText(t *testing.T) {
	reply := toolReply(`{"overall_score": 90, "summary": "tool"}`, "```json\n{\"overall_score\": 10, \"summary\": \"text\"}\n```")

	assert.Equal(t, Structured, Classify(reply).Kind)
	r := Validate(reply)
	assert.Equal(t, 90, r.Score)
	assert.Equal(t, "tool", r.Summary)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		reply providers.Reply
		want  PayloadKind
	}{
		{"object input", toolReply(`{"overall_score": 1}`), Structured},
		{"string-encoded input", toolReply(`"{\"overall_score\": 1}"`), Structured},
		{"array input", toolReply(`[1, 2]`), FreeText},
		{"invalid input", toolReply(`{oops`), FreeText},
		{"other tool", providers.Reply{Blocks: []providers.Block{{Kind: providers.ToolUseBlock, ToolName: "other", Input: json.RawMessage(`{}`)}}}, FreeText},
		{"text only", textReply("hello"), FreeText},
		{"empty", providers.Reply{}, FreeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.reply).Kind)
		})
	}
}

func TestValidate_StructuredDefaults(t *testing.T) {
	r := Validate(toolReply(`{}`))
	assertWellFormed(t, r)
	assert.Equal(t, 50, r.Score)
	assert.Empty(t, r.Summary)
	assert.Empty(t, r.Issues)
	assert.Empty(t, r.Recommendations)
}

func TestValidate_FallsThroughToText(t *testing.T) {
	reply := toolReply(`not json`, `{"overall_score": 77, "summary": "from text"}`)
	r := Validate(reply)
	assert.Equal(t, 77, r.Score)
	assert.Equal(t, "from text", r.Summary)
}

func TestValidateText_Fences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"json fence", "Here you go:\n```json\n{\"overall_score\": 61}\n```\nThanks", 61},
		{"json fence preferred over earlier bare fence", "```\nprint('x')\n```\n```json\n{\"overall_score\": 62}\n```", 62},
		{"bare fence", "```\n{\"overall_score\": 63}\n```", 63},
		{"whole text", "  {\"overall_score\": 64}  ", 64},
		{"unterminated fence", "```json\n{\"overall_score\": 65}", 65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateText(tt.text)
			assertWellFormed(t, r)
			assert.Equal(t, tt.want, r.Score)
			assert.NotContains(t, r.Recommendations, parseFailureAdvice)
		})
	}
}

func TestValidateText_Degrades(t *testing.T) {
	for _, text := range []string{"not json", "", "{broken", "[1, 2, 3]", "```json\nnope\n```", "null"} {
		r := ValidateText(text)
		assertWellFormed(t, r)
		assert.Equal(t, 50, r.Score, text)
		assert.Equal(t, text, r.Summary)
		assert.Empty(t, r.Issues)
		assert.Equal(t, []string{parseFailureAdvice}, r.Recommendations)
	}
}

func TestValidateText_SummaryTruncated(t *testing.T) {
	text := strings.Repeat("é", 600)
	r := ValidateText(text)
	assert.Equal(t, strings.Repeat("é", 500), r.Summary)
}

func TestValidate_ScoreCoercion(t *testing.T) {
	tests := []struct {
		payload string
		want    int
	}{
		{`{"overall_score": 87.9}`, 87},
		{`{"overall_score": "73"}`, 73},
		{`{"overall_score": " 12.5 "}`, 12},
		{`{"overall_score": 150}`, 100},
		{`{"overall_score": -4}`, 0},
		{`{"overall_score": 1e2}`, 100},
		{`{"overall_score": "high"}`, 50},
		{`{"overall_score": null}`, 50},
		{`{"overall_score": true}`, 50},
		{`{"score": 33}`, 33},
		{`{"overall_score": 44, "score": 33}`, 44},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(toolReply(tt.payload)).Score)
		})
	}
}

func TestValidate_IssueMapping(t *testing.T) {
	r := ValidateText(`{
		"issues": [
			{"severity": null, "file_path": "a.py", "category": "", "description": "d", "suggestion": "s"},
			{"severity": "blocker", "file_path": "b.py", "category": "Best_Practices", "description": "d", "suggestion": "s", "line_number": "12"},
			{"severity": "high", "file_path": "c.py", "category": "style", "description": "d", "suggestion": "s", "line_number": 0},
			{"severity": "LOW", "file_path": "d.py", "description": "missing category", "suggestion": "s"},
			"not an object",
			42
		]
	}`)
	assertWellFormed(t, r)
	require.Len(t, r.Issues, 3)

	assert.Equal(t, SeverityMedium, r.Issues[0].Severity)
	assert.Equal(t, CategoryQuality, r.Issues[0].Category)
	assert.Nil(t, r.Issues[0].Line)

	assert.Equal(t, SeverityUnclassified, r.Issues[1].Severity)
	assert.Equal(t, CategoryBestPractices, r.Issues[1].Category)
	assert.Equal(t, 12, r.Issues[1].LineNumber())

	assert.Equal(t, SeverityHigh, r.Issues[2].Severity)
	assert.Equal(t, CategoryUnclassified, r.Issues[2].Category)
	assert.Nil(t, r.Issues[2].Line)

	assert.Equal(t, 1, r.HighCount())
	assert.Equal(t, 3, r.TotalCount())
}

func TestValidate_Recommendations(t *testing.T) {
	r := Validate(toolReply(`{"recommendations": ["a", 2, null, {"k": "v"}, true]}`))
	assert.Equal(t, []string{"a", "2", `{"k":"v"}`, "true"}, r.Recommendations)

	r = Validate(toolReply(`{"recommendations": "just one"}`))
	assert.Empty(t, r.Recommendations)
}

func TestValidate_NeverPanics(t *testing.T) {
	inputs := []string{"", "{", "}", "```", "```json", "```json```", `{"issues": {"a": 1}}`, `{"issues": [null]}`, `{"summary": 5}`}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			assertWellFormed(t, ValidateText(in))
			assertWellFormed(t, Validate(toolReply(`"`+strings.ReplaceAll(in, `"`, `\"`)+`"`)))
		}, in)
	}
}
