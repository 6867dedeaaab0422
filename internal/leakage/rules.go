package leakage

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Category groups rules by the kind of leak they detect.
type Category string

const (
	CategoryFixtureMetadata Category = "fixture_metadata"
	CategoryFixtureImport   Category = "fixture_import"
	CategorySelectorLeak    Category = "selector_leak"
)

// categoryOrder fixes the order of findings within one file.
var categoryOrder = map[Category]int{
	CategoryFixtureMetadata: 0,
	CategoryFixtureImport:   1,
	CategorySelectorLeak:    2,
}

func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch Category(s) {
	case CategoryFixtureMetadata, CategoryFixtureImport, CategorySelectorLeak:
		*c = Category(s)
		return nil
	default:
		return fmt.Errorf("invalid leakage category: %q", s)
	}
}

// Rule is one line-level pattern.
type Rule struct {
	ID          string   `yaml:"id"`
	Category    Category `yaml:"category"`
	Description string   `yaml:"description"`
	Regex       string   `yaml:"regex"`

	compiled *regexp.Regexp
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules decodes and compiles a rules document.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leakage rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("leakage rules document has no rules")
	}
	seen := map[string]bool{}
	for i := range f.Rules {
		r := &f.Rules[i]
		if r.ID == "" {
			return nil, fmt.Errorf("leakage rule %d has no id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate leakage rule id %q", r.ID)
		}
		seen[r.ID] = true
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, fmt.Errorf("failed to compile the regex of rule %s: %w", r.ID, err)
		}
		r.compiled = re
	}
	return f.Rules, nil
}

// DefaultRules returns the embedded rule set.
func DefaultRules() []Rule {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded leakage rules: %v", err))
	}
	return rules
}
