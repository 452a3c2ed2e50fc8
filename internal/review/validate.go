package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/codereviewer/internal/providers"
)

// PayloadKind tells which tier produced a Payload.
type PayloadKind int

const (
	// Structured payloads come from a submit_review tool call.
	Structured PayloadKind = iota + 1
	// FreeText payloads are the concatenated text of the reply.
	FreeText
)

func (k PayloadKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case FreeText:
		return "free-text"
	default:
		return "unknown"
	}
}

// Payload is a classified engine reply. Fields is set for Structured
// payloads, Text for FreeText ones.
type Payload struct {
	Kind   PayloadKind
	Fields map[string]any
	Text   string
}

const (
	summaryLimit        = 500
	defaultScore        = 50
	parseFailureAdvice  = "Unable to parse structured review. See summary for details."
	defaultSeverity     = SeverityMedium
	defaultCategoryText = CategoryQuality
)

var requiredIssueKeys = []string{"severity", "file_path", "category", "description", "suggestion"}

// Classify resolves a reply into a Payload. A submit_review tool call whose
// input is a JSON object wins over any text in the reply.
func Classify(reply providers.Reply) Payload {
	for _, b := range reply.Blocks {
		if b.Kind != providers.ToolUseBlock || b.ToolName != ReviewToolName {
			continue
		}
		if fields, ok := decodeObject(b.Input); ok {
			return Payload{Kind: Structured, Fields: fields}
		}
		// Some providers deliver the arguments as a JSON-encoded string.
		var s string
		if json.Unmarshal(b.Input, &s) == nil {
			if fields, ok := decodeObject([]byte(s)); ok {
				return Payload{Kind: Structured, Fields: fields}
			}
		}
	}
	return Payload{Kind: FreeText, Text: reply.Text()}
}

// Validate converts a reply into a Result. It never fails: replies that
// cannot be decoded produce a minimal result carrying the raw text.
func Validate(reply providers.Reply) *Result {
	p := Classify(reply)
	if p.Kind == Structured {
		return fromFields(p.Fields)
	}
	return ValidateText(p.Text)
}

// ValidateText applies the free-text tier to raw reply text.
func ValidateText(text string) *Result {
	fields, ok := decodeObject([]byte(extractJSON(text)))
	if !ok {
		return &Result{
			Score:           defaultScore,
			Summary:         truncateRunes(text, summaryLimit),
			Issues:          []Issue{},
			Recommendations: []string{parseFailureAdvice},
		}
	}
	return fromFields(fields)
}

// extractJSON returns the body of the first ```json fence, else the first
// bare fence, else the whole text.
func extractJSON(text string) string {
	if body, ok := fenced(text, "```json"); ok {
		return body
	}
	if body, ok := fenced(text, "```"); ok {
		return body
	}
	return text
}

func fenced(text, open string) (string, bool) {
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

func decodeObject(data []byte) (map[string]any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func fromFields(fields map[string]any) *Result {
	r := &Result{
		Score:           defaultScore,
		Summary:         stringField(fields["summary"]),
		Issues:          []Issue{},
		Recommendations: []string{},
	}

	raw, ok := fields["overall_score"]
	if !ok {
		raw, ok = fields["score"]
	}
	if ok {
		if n, valid := toInt(raw); valid {
			r.Score = max(0, min(100, n))
		}
	}

	if items, ok := fields["recommendations"].([]any); ok {
		for _, item := range items {
			if item == nil {
				continue
			}
			r.Recommendations = append(r.Recommendations, stringField(item))
		}
	}

	if items, ok := fields["issues"].([]any); ok {
		for _, item := range items {
			if issue, ok := toIssue(item); ok {
				r.Issues = append(r.Issues, issue)
			}
		}
	}
	return r
}

func toIssue(item any) (Issue, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Issue{}, false
	}
	for _, key := range requiredIssueKeys {
		if _, present := obj[key]; !present {
			return Issue{}, false
		}
	}

	issue := Issue{
		Severity:    defaultSeverity,
		Category:    defaultCategoryText,
		FilePath:    stringField(obj["file_path"]),
		Description: stringField(obj["description"]),
		Suggestion:  stringField(obj["suggestion"]),
		CodeExample: stringField(obj["code_example"]),
	}
	if s := strings.TrimSpace(stringField(obj["severity"])); s != "" {
		issue.Severity = ParseSeverity(s)
	}
	if c := strings.TrimSpace(stringField(obj["category"])); c != "" {
		issue.Category = ParseCategory(c)
	}
	if n, ok := toInt(obj["line_number"]); ok && n > 0 {
		issue.Line = &n
	}
	return issue, true
}

// toInt coerces JSON numbers and numeric strings, truncating fractions.
func toInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		f = math.MaxInt32
	} else if f < math.MinInt32 {
		f = math.MinInt32
	}
	return int(f), true
}

func stringField(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
