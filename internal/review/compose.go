package review

import (
	"fmt"
	"strings"

	"github.com/dshills/codereviewer/internal/analysis"
	"github.com/dshills/codereviewer/internal/diffread"
)

// maxListedFunctions caps the signatures listed per file.
const maxListedFunctions = 5

// ComposeDiffContext renders the change set as a markdown brief: a header
// with the file count followed by one section per change in order.
func ComposeDiffContext(changes []diffread.Change) string {
	parts := []string{fmt.Sprintf("# Code Changes Review\n\nTotal files changed: %d\n", len(changes))}

	for _, c := range changes {
		parts = append(parts,
			"\n## File: "+c.Path,
			"Change type: "+c.Kind.Code(),
			"Changes: "+c.Summary(),
		)
		if c.OldPath != "" {
			parts = append(parts, "Renamed from: "+c.OldPath)
		}
		if c.Patch != "" {
			parts = append(parts, "\n```diff\n"+c.Patch+"\n```")
		}
	}
	return strings.Join(parts, "\n")
}

// ComposeStructureContext renders one analysis section per report, in the
// order given. It returns "" when there are no reports.
func ComposeStructureContext(reports []*analysis.FileReport) string {
	sections := make([]string, 0, len(reports))
	for _, r := range reports {
		sections = append(sections, structureSection(r))
	}
	return strings.Join(sections, "\n")
}

func structureSection(r *analysis.FileReport) string {
	if !r.OK() {
		return fmt.Sprintf("\n### %s\nParse errors: %s", r.Path, strings.Join(r.ParseErrors, ", "))
	}

	parts := []string{fmt.Sprintf("\n### %s - Code Analysis", r.Path)}

	if m := r.Metrics; m != nil {
		parts = append(parts,
			fmt.Sprintf("- Lines of code: %d", m.LinesOfCode),
			fmt.Sprintf("- Cyclomatic complexity: %.1f", m.CyclomaticComplexity),
			fmt.Sprintf("- Maintainability index: %.1f", m.MaintainabilityIndex),
			fmt.Sprintf("- Functions: %d, Classes: %d", m.FunctionCount, m.ClassCount),
		)
	}

	if len(r.Functions) > 0 {
		parts = append(parts, fmt.Sprintf("\nFunctions (%d):", len(r.Functions)))
		for _, fn := range r.Functions[:min(len(r.Functions), maxListedFunctions)] {
			parts = append(parts, fmt.Sprintf("  - %s (line %d, complexity: %d)", fn.Signature(), fn.Line, fn.Complexity))
			if fn.Docstring == "" {
				parts = append(parts, "    ⚠️  Missing docstring")
			}
		}
	}

	if !r.HasTypeHints() {
		parts = append(parts, "\n⚠️  File lacks type hints")
	}
	return strings.Join(parts, "\n")
}

// Brief is the input to ComposeBrief.
type Brief struct {
	// Template is the strictness-specific review prompt.
	Template string
	// Focus lists enabled check families and rules-pack lines.
	Focus            string
	DiffContext      string
	StructureContext string
}

const responseFormat = "```json\n" + `{
  "overall_score": 0-100,
  "summary": "Brief overall assessment",
  "issues": [
    {
      "severity": "CRITICAL|HIGH|MEDIUM|LOW",
      "file_path": "path/to/file.py",
      "line_number": 42,
      "category": "security|performance|quality|best-practices",
      "description": "Detailed description of the issue",
      "suggestion": "How to fix it",
      "code_example": "Optional fixed code example"
    }
  ],
  "recommendations": [
    "General recommendation 1",
    "General recommendation 2"
  ]
}
` + "```\n"

// ComposeBrief assembles the full review prompt: template, optional focus
// section, the diff context, static analysis results when present, and the
// expected response format.
func ComposeBrief(b Brief) string {
	parts := []string{b.Template}
	if b.Focus != "" {
		parts = append(parts, b.Focus)
	}
	parts = append(parts, "\n\n# Code Changes to Review\n", b.DiffContext)

	if b.StructureContext != "" {
		parts = append(parts, "\n\n# Static Analysis Results\n", b.StructureContext)
	}

	parts = append(parts,
		"\n\n# Your Task\n",
		"Provide a comprehensive code review in the following JSON format:\n",
		responseFormat,
	)
	return strings.Join(parts, "\n")
}
