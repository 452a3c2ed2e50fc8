package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Rules represents a rules pack loaded from --rules.
type Rules struct {
	Focus             []string          `json:"focus,omitempty" yaml:"focus,omitempty" toml:"focus,omitempty"`
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty" yaml:"severityOverrides,omitempty" toml:"severityOverrides,omitempty"`
	Required          []RequiredCheck   `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
}

// RequiredCheck is a policy check that should always be enforced.
type RequiredCheck struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Text string `json:"text" yaml:"text" toml:"text"`
}

// LoadRules loads a rules file from disk. The format follows the extension:
// .toml, .yaml/.yml, anything else JSON. Returns nil Rules and nil error if
// path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &rules)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rules)
	default:
		err = json.Unmarshal(data, &rules)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if err := rules.validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", err)
	}
	return &rules, nil
}

func (r *Rules) validate() error {
	for cat, sev := range r.SeverityOverrides {
		if ParseCategory(cat) == CategoryUnclassified {
			return fmt.Errorf("unknown category %q in severityOverrides", cat)
		}
		if ParseSeverity(sev) == SeverityUnclassified {
			return fmt.Errorf("unknown severity %q for category %s", sev, cat)
		}
	}
	return nil
}

// BuildRulesPromptSection returns additional prompt instructions derived from rules.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder

	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize findings in these areas.\n",
			strings.Join(rules.Focus, ", "))
	}

	if len(rules.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		cats := make([]string, 0, len(rules.SeverityOverrides))
		for cat := range rules.SeverityOverrides {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s issues should be rated as %s severity.\n", cat, ParseSeverity(rules.SeverityOverrides[cat]))
		}
	}

	if len(rules.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range rules.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}

// ApplySeverityOverrides enforces the rules' severity overrides on issues.
func ApplySeverityOverrides(issues []Issue, rules *Rules) []Issue {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return issues
	}

	overrides := make(map[Category]Severity, len(rules.SeverityOverrides))
	for cat, sev := range rules.SeverityOverrides {
		overrides[ParseCategory(cat)] = ParseSeverity(sev)
	}
	for i := range issues {
		if sev, ok := overrides[issues[i].Category]; ok {
			issues[i].Severity = sev
		}
	}
	return issues
}
