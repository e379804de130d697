package matching

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"playscribe/internal/services"
)

// ErrInvalidRuleSet reports a rule set that can never produce a match or that
// carries an unparseable pattern. It is a configuration error.
var ErrInvalidRuleSet = fmt.Errorf("%w: invalid rule set", services.ErrConfiguration)

// RuleSet is the declarative form of a topic's match rules as read from the
// topic rules file.
type RuleSet struct {
	MatchStrings   []string `json:"match_strings,omitempty" toml:"match_strings,omitempty" yaml:"match_strings,omitempty"`
	UnmatchStrings []string `json:"unmatch_strings,omitempty" toml:"unmatch_strings,omitempty" yaml:"unmatch_strings,omitempty"`
	MatchRegexes   []string `json:"match_regexes,omitempty" toml:"match_regexes,omitempty" yaml:"match_regexes,omitempty"`
	UnmatchRegexes []string `json:"unmatch_regexes,omitempty" toml:"unmatch_regexes,omitempty" yaml:"unmatch_regexes,omitempty"`
}

// IsZero reports whether no list is populated.
func (r RuleSet) IsZero() bool {
	return len(r.MatchStrings) == 0 && len(r.UnmatchStrings) == 0 &&
		len(r.MatchRegexes) == 0 && len(r.UnmatchRegexes) == 0
}

// Literal returns the default rule set for a topic without explicit rules:
// the topic name itself as a substring.
func Literal(name string) RuleSet {
	return RuleSet{MatchStrings: []string{name}}
}

// Rules is a compiled RuleSet.
type Rules struct {
	matchStrings   []string
	unmatchStrings []string
	matchRegexes   []*regexp.Regexp
	unmatchRegexes []*regexp.Regexp
}

// Compile validates the rule set and compiles its patterns. Empty entries are
// ignored; a set whose inclusion lists are both empty fails with
// ErrInvalidRuleSet.
func Compile(set RuleSet) (*Rules, error) {
	rules := &Rules{
		matchStrings:   nonEmpty(set.MatchStrings),
		unmatchStrings: nonEmpty(set.UnmatchStrings),
	}
	var err error
	if rules.matchRegexes, err = compileAll(set.MatchRegexes); err != nil {
		return nil, err
	}
	if rules.unmatchRegexes, err = compileAll(set.UnmatchRegexes); err != nil {
		return nil, err
	}
	if len(rules.matchStrings) == 0 && len(rules.matchRegexes) == 0 {
		return nil, fmt.Errorf("%w: match_strings or match_regexes required", ErrInvalidRuleSet)
	}
	return rules, nil
}

// Match applies the rules to title. Exclusions win regardless of declaration
// order: unmatch strings, unmatch patterns, match strings, match patterns.
func (r *Rules) Match(title string) bool {
	if r == nil {
		return false
	}
	for _, term := range r.unmatchStrings {
		if strings.Contains(title, term) {
			return false
		}
	}
	for _, re := range r.unmatchRegexes {
		if re.MatchString(title) {
			return false
		}
	}
	for _, term := range r.matchStrings {
		if strings.Contains(title, term) {
			return true
		}
	}
	for _, re := range r.matchRegexes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// ConfirmedMatch compiles set and applies it to title in one step.
func ConfirmedMatch(title string, set RuleSet) (bool, error) {
	rules, err := Compile(set)
	if err != nil {
		return false, err
	}
	return rules.Match(title), nil
}

// IsInvalidRuleSet reports whether err stems from a bad rule set.
func IsInvalidRuleSet(err error) bool {
	return errors.Is(err, ErrInvalidRuleSet)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidRuleSet, pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}
