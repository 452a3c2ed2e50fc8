package output

import (
	"io"
	"strings"

	"github.com/dshills/codereviewer/internal/review"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// TextWriter outputs the human-readable report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, res *review.Result) error {
	ew := &errWriter{w: w}
	critical, high, total := res.CriticalCount(), res.HighCount(), res.TotalCount()

	ew.println(heavyRule)
	ew.println("CODE REVIEW RESULTS")
	ew.println(heavyRule)
	ew.printf("\nOverall Score: %d/100\n", res.Score)
	ew.printf("\nTotal Issues: %d\n", total)
	ew.printf("  - Critical: %d\n", critical)
	ew.printf("  - High: %d\n", high)
	ew.printf("  - Medium/Low: %d\n", total-critical-high)
	ew.printf("\n%s\n", lightRule)
	ew.printf("\n## Summary\n\n%s\n", res.Summary)

	if len(res.Issues) > 0 {
		ew.printf("\n%s\n", lightRule)
		ew.println("\n## Issues Found\n")
		for i, issue := range res.Issues {
			ew.printf("\n### Issue #%d: %s\n", i+1, issue.Severity)
			ew.printf("**File:** %s", issue.FilePath)
			if n := issue.LineNumber(); n > 0 {
				ew.printf(" (line %d)", n)
			}
			ew.println("")
			ew.printf("**Category:** %s\n", issue.Category)
			ew.printf("**Description:** %s\n", issue.Description)
			ew.printf("**Suggestion:** %s\n", issue.Suggestion)
			if issue.CodeExample != "" {
				ew.printf("\n**Fix Example:**\n```python\n%s\n```\n", issue.CodeExample)
			}
		}
	}

	if len(res.Recommendations) > 0 {
		ew.printf("\n%s\n", lightRule)
		ew.println("\n## General Recommendations\n")
		for i, rec := range res.Recommendations {
			ew.printf("%d. %s\n", i+1, rec)
		}
	}

	ew.printf("\n%s\n", heavyRule)
	return ew.err
}
