package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/codereviewer/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *review.Result) error {
	ew := &errWriter{w: w}
	counts := res.Counts()

	ew.printf("## Code Review: %d/100\n\n", res.Score)
	if res.Summary != "" {
		ew.printf("%s\n\n", res.Summary)
	}

	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| Critical | %d |\n", counts.Critical)
	ew.printf("| High | %d |\n", counts.High)
	ew.printf("| Medium | %d |\n", counts.Medium)
	ew.printf("| Low | %d |\n", counts.Low)
	if counts.Unclassified > 0 {
		ew.printf("| Unclassified | %d |\n", counts.Unclassified)
	}
	ew.printf("| **Total** | **%d** |\n\n", res.TotalCount())

	if len(res.Issues) == 0 {
		ew.println("No issues found. :white_check_mark:")
	}

	grouped := make(map[review.Severity][]review.Issue)
	for _, issue := range res.Issues {
		grouped[issue.Severity] = append(grouped[issue.Severity], issue)
	}
	for _, sev := range append(review.Severities, review.SeverityUnclassified) {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), sev, len(issues))
		for _, issue := range issues {
			ew.printf("**`%s`** | %s\n\n", mdLocation(issue), issue.Category)
			ew.printf("%s\n\n", issue.Description)
			if issue.Suggestion != "" {
				ew.printf("> %s\n\n", strings.ReplaceAll(issue.Suggestion, "\n", "\n> "))
			}
			if issue.CodeExample != "" {
				ew.printf("```python\n%s\n```\n\n", issue.CodeExample)
			}
			ew.println("---\n")
		}
		ew.println("</details>\n")
	}

	if len(res.Recommendations) > 0 {
		ew.println("### Recommendations\n")
		for _, rec := range res.Recommendations {
			ew.printf("- %s\n", rec)
		}
	}
	return ew.err
}

func mdLocation(issue review.Issue) string {
	if n := issue.LineNumber(); n > 0 {
		return fmt.Sprintf("%s:%d", issue.FilePath, n)
	}
	return issue.FilePath
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":no_entry:"
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
