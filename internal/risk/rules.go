// Package risk scores derived metrics against an ordered, declarative rule
// set and turns the score into a bin and decision.
package risk

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule is one scoring predicate. Condition and ScoreExpression are CEL
// expressions over the metric variables. ScoreExpression, when set,
// replaces ScoreImpact. Rationale is a text/template rendered against the
// same variables.
type Rule struct {
	Name            string `yaml:"name" json:"name"`
	Condition       string `yaml:"condition" json:"condition"`
	ScoreImpact     int    `yaml:"score_impact" json:"score_impact"`
	ScoreExpression string `yaml:"score_expression,omitempty" json:"score_expression,omitempty"`
	Rationale       string `yaml:"rationale" json:"rationale"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the embedded rule set.
func DefaultRules() ([]Rule, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rule file. An empty path returns the embedded rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a rule file. Individual rules are checked when they are
// compiled, not here.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i := range f.Rules {
		f.Rules[i].Name = strings.TrimSpace(f.Rules[i].Name)
	}
	return f.Rules, nil
}
