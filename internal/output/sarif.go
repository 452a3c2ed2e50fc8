package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/codereviewer/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct {
	RunID   string
	Version string
}

func (s *SARIFWriter) Write(w io.Writer, res *review.Result) error {
	data, err := json.MarshalIndent(buildSARIF(res, s.RunID, s.Version), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool        `json:"tool"`
	AutomationDetails *sarifAutomation `json:"automationDetails,omitempty"`
	Results           []sarifResult    `json:"results"`
	Properties        map[string]any   `json:"properties,omitempty"`
}

type sarifAutomation struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

func buildSARIF(res *review.Result, runID, version string) sarifLog {
	results := make([]sarifResult, 0, len(res.Issues))
	var rules []sarifRule
	seen := make(map[string]bool)

	for _, issue := range res.Issues {
		ruleID := ruleIDFor(issue)
		if !seen[ruleID] {
			seen[ruleID] = true
			rules = append(rules, sarifRule{
				ID:               ruleID,
				Name:             string(issue.Category),
				ShortDescription: sarifMessage{Text: firstLine(issue.Description)},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(issue.Severity)},
			})
		}

		result := sarifResult{
			RuleID:  ruleID,
			Level:   severityToLevel(issue.Severity),
			Message: sarifMessage{Text: issue.Description},
		}
		if issue.FilePath != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: issue.FilePath},
			}}
			if n := issue.LineNumber(); n > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: n}
			}
			result.Locations = append(result.Locations, loc)
		}
		if issue.Suggestion != "" {
			result.Fixes = append(result.Fixes, sarifFix{Description: sarifMessage{Text: issue.Suggestion}})
		}
		results = append(results, result)
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "code-reviewer",
			Version:        version,
			InformationURI: "https://github.com/dshills/codereviewer",
			Rules:          rules,
		}},
		Results:    results,
		Properties: map[string]any{"overallScore": res.Score},
	}
	if runID != "" {
		run.AutomationDetails = &sarifAutomation{GUID: runID}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

// severityToLevel maps a severity to a SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// ruleIDFor creates a stable rule ID from category and description.
func ruleIDFor(issue review.Issue) string {
	h := sha256.Sum256([]byte(string(issue.Category) + "/" + issue.Description))
	return fmt.Sprintf("code-reviewer/%s/%x", issue.Category, h[:4])
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
