package review

import "strings"

// Severity is the severity level of an issue.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"

	// SeverityUnclassified holds values outside the known set.
	SeverityUnclassified Severity = "UNCLASSIFIED"
)

// Severities lists the known severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity maps text to a known severity, ignoring case and
// surrounding space. Unknown text yields SeverityUnclassified.
func ParseSeverity(s string) Severity {
	v := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if SeverityRank(v) > 0 {
		return v
	}
	return SeverityUnclassified
}

// Category is the kind of issue.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryQuality       Category = "quality"
	CategoryBestPractices Category = "best-practices"

	// CategoryUnclassified holds values outside the known set.
	CategoryUnclassified Category = "unclassified"
)

// Categories lists the known categories.
var Categories = []Category{CategorySecurity, CategoryPerformance, CategoryQuality, CategoryBestPractices}

// ParseCategory maps text to a known category. Case, underscores and spaces
// are normalized, so "Best_Practices" is best-practices. Unknown text yields
// CategoryUnclassified.
func ParseCategory(s string) Category {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	for _, c := range Categories {
		if string(c) == v {
			return c
		}
	}
	return CategoryUnclassified
}

// Issue is a single review finding.
type Issue struct {
	Severity    Severity `json:"severity"`
	FilePath    string   `json:"file_path"`
	Line        *int     `json:"line_number"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	CodeExample string   `json:"code_example,omitempty"`
}

// LineNumber returns the issue line, or 0 when unknown.
func (i Issue) LineNumber() int {
	if i.Line == nil {
		return 0
	}
	return *i.Line
}

// Result is the outcome of one review.
type Result struct {
	Score           int      `json:"overall_score"`
	Issues          []Issue  `json:"issues"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`

	// DiffAnalyzed is the composed diff context the review was based on.
	DiffAnalyzed string `json:"-"`
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// CriticalCount returns the number of CRITICAL issues.
func (r *Result) CriticalCount() int { return r.count(SeverityCritical) }

// HighCount returns the number of HIGH issues.
func (r *Result) HighCount() int { return r.count(SeverityHigh) }

// TotalCount returns the number of issues.
func (r *Result) TotalCount() int { return len(r.Issues) }

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical     int `json:"critical"`
	High         int `json:"high"`
	Medium       int `json:"medium"`
	Low          int `json:"low"`
	Unclassified int `json:"unclassified,omitempty"`
}

// Counts tallies issues by severity.
func (r *Result) Counts() SeverityCounts {
	var c SeverityCounts
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		default:
			c.Unclassified++
		}
	}
	return c
}

// failed builds the zero-score result used when the review cannot run.
func failed(summary string) *Result {
	return &Result{Score: 0, Summary: summary, Issues: []Issue{}, Recommendations: []string{}}
}

// Empty returns the perfect-score result for an empty change set.
func Empty(summary string) *Result {
	return &Result{Score: 100, Summary: summary, Issues: []Issue{}, Recommendations: []string{}}
}
