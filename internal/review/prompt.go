package review

import (
	"strings"

	"github.com/dshills/codereviewer/internal/providers"
)

// ReviewToolName is the tool the engine is asked to call with its review.
const ReviewToolName = "submit_review"

const systemPrompt = `You are a meticulous Python code reviewer.

Review only the changes you are given. Every issue must name the file, the line when known, a severity of CRITICAL, HIGH, MEDIUM or LOW, and a category of security, performance, quality or best-practices.

When the submit_review tool is available, submit the review through it. Otherwise respond with a single JSON object in a ` + "```json" + ` fenced block.`

// SystemPrompt returns the system prompt for the review engine.
func SystemPrompt() string {
	return systemPrompt
}

// ReviewTool returns the submit_review schema.
func ReviewTool() *providers.Tool {
	return &providers.Tool{
		Name: ReviewToolName,
		Description: "Return a complete, structured assessment of the provided code changes. " +
			"Always populate every field and keep file paths and line numbers accurate.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"overall_score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"summary":       map[string]any{"type": "string"},
				"issues": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"severity":     map[string]any{"type": "string", "enum": enumOf(Severities)},
							"file_path":    map[string]any{"type": "string"},
							"line_number":  map[string]any{"type": []string{"integer", "null"}},
							"category":     map[string]any{"type": "string", "enum": enumOf(Categories)},
							"description":  map[string]any{"type": "string"},
							"suggestion":   map[string]any{"type": "string"},
							"code_example": map[string]any{"type": []string{"string", "null"}},
						},
						"required": requiredIssueKeys,
					},
				},
				"recommendations": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"overall_score", "summary", "issues", "recommendations"},
		},
	}
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Checks selects the optional review families.
type Checks struct {
	Security      bool
	Performance   bool
	BestPractices bool
}

// BuildFocusSection lists the enabled check families and any rules-pack
// instructions. Quality is always reviewed.
func BuildFocusSection(checks Checks, rules *Rules) string {
	var b strings.Builder

	b.WriteString("\n# Review Focus\n")
	if checks.Security {
		b.WriteString("- Check for security vulnerabilities.\n")
	} else {
		b.WriteString("- Skip security checks unless an issue is critical.\n")
	}
	if checks.Performance {
		b.WriteString("- Check for performance problems.\n")
	} else {
		b.WriteString("- Skip performance checks.\n")
	}
	if checks.BestPractices {
		b.WriteString("- Check adherence to Python best practices.\n")
	} else {
		b.WriteString("- Skip best-practice and style checks.\n")
	}
	b.WriteString("- Always check code quality and correctness.\n")

	b.WriteString(BuildRulesPromptSection(rules))
	return b.String()
}
