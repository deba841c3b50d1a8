package fragments

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rule is one extra removal pattern loaded from a rules file. Patterns are
// regular expressions; the literal token {max} is rewritten to a bounded
// quantifier {0,MaxSpan} so rule files cannot introduce unbounded spans.
type Rule struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Pattern string `json:"pattern" yaml:"pattern" validate:"required"`
	MaxSpan int    `json:"max_span,omitempty" yaml:"max_span,omitempty" validate:"gte=0,lte=500"`
	PerLine bool   `json:"per_line,omitempty" yaml:"per_line,omitempty"`
}

// RuleSet is the contents of a rules file.
type RuleSet struct {
	Rules []Rule `json:"rules" yaml:"rules" validate:"required,min=1,dive"`
}

// RulesFromFile loads a rule set from a JSON or YAML file and validates it.
func RulesFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rs RuleSet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON rules: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file format: %s", ext)
	}

	if err := validator.New().Struct(&rs); err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", err)
	}
	return &rs, nil
}

// Cleaners compiles the rule set into cleaners, in file order.
func (rs *RuleSet) Cleaners() ([]Cleaner, error) {
	cleaners := make([]Cleaner, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		pattern := r.Pattern
		if r.MaxSpan > 0 {
			pattern = strings.ReplaceAll(pattern, "{max}", fmt.Sprintf("{0,%d}", r.MaxSpan))
		}
		if r.PerLine && !strings.HasPrefix(pattern, "(?m)") {
			pattern = "(?m)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		cleaners = append(cleaners, &ruleCleaner{name: r.Name, re: re})
	}
	return cleaners, nil
}

type ruleCleaner struct {
	name string
	re   *regexp.Regexp
}

func (c *ruleCleaner) Name() string { return "rule:" + c.name }

func (c *ruleCleaner) Clean(text string) (string, error) {
	return c.re.ReplaceAllString(text, ""), nil
}
