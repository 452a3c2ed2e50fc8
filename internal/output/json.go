package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/codereviewer/internal/review"
)

// JSONWriter outputs the result with its issue counts.
type JSONWriter struct {
	RunID string
}

type jsonIssue struct {
	Severity    review.Severity `json:"severity"`
	FilePath    string          `json:"file_path"`
	Line        *int            `json:"line_number"`
	Category    review.Category `json:"category"`
	Description string          `json:"description"`
	Suggestion  string          `json:"suggestion"`
	CodeExample *string         `json:"code_example"`
}

type jsonResult struct {
	RunID           string      `json:"run_id,omitempty"`
	Score           int         `json:"overall_score"`
	TotalIssues     int         `json:"total_issues"`
	CriticalIssues  int         `json:"critical_issues"`
	HighIssues      int         `json:"high_issues"`
	Summary         string      `json:"summary"`
	Issues          []jsonIssue `json:"issues"`
	Recommendations []string    `json:"recommendations"`
}

func (j *JSONWriter) Write(w io.Writer, res *review.Result) error {
	out := jsonResult{
		RunID:           j.RunID,
		Score:           res.Score,
		TotalIssues:     res.TotalCount(),
		CriticalIssues:  res.CriticalCount(),
		HighIssues:      res.HighCount(),
		Summary:         res.Summary,
		Issues:          make([]jsonIssue, 0, len(res.Issues)),
		Recommendations: res.Recommendations,
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	for _, issue := range res.Issues {
		ji := jsonIssue{
			Severity:    issue.Severity,
			FilePath:    issue.FilePath,
			Line:        issue.Line,
			Category:    issue.Category,
			Description: issue.Description,
			Suggestion:  issue.Suggestion,
		}
		if issue.CodeExample != "" {
			example := issue.CodeExample
			ji.CodeExample = &example
		}
		out.Issues = append(out.Issues, ji)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
