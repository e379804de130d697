package topics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"playscribe/internal/matching"
	"playscribe/internal/services"
	"playscribe/internal/textutil"
)

// ErrAmbiguousMatch marks a title that matches several topics and cannot be
// narrowed by any disambiguation priority.
var ErrAmbiguousMatch = fmt.Errorf("%w: ambiguous topic match", services.ErrConfiguration)

// Topic is a named subject with compiled match rules.
type Topic struct {
	// Name is the topic name as written in the rules file and stored in the catalog.
	Name string
	// Key is the case-folded name used for comparisons.
	Key   string
	Rules matching.RuleSet

	compiled *matching.Rules
}

// Match reports whether a normalized title belongs to the topic.
func (t *Topic) Match(normalizedTitle string) bool {
	if t == nil {
		return false
	}
	return t.compiled.Match(normalizedTitle)
}

// Priority narrows an ambiguous match set. For each keyword in order, the
// subset of matched topics whose name contains the keyword is computed; a
// subset of exactly one topic wins.
type Priority struct {
	Group  string   `json:"group" toml:"group" yaml:"group"`
	Prefer []string `json:"prefer" toml:"prefer" yaml:"prefer"`
}

// Registry is the immutable set of topics known to the scheduler.
type Registry struct {
	topics     []*Topic
	byKey      map[string]*Topic
	priorities []Priority
}

// New builds a registry from topic definitions. A nil or empty rule set means
// "match the topic name literally". Rule strings are case-folded; patterns are
// applied to case-folded titles as written.
func New(defs map[string]*matching.RuleSet, priorities []Priority) (*Registry, error) {
	reg := &Registry{byKey: make(map[string]*Topic, len(defs))}
	for rawName, def := range defs {
		name := strings.TrimSpace(rawName)
		key := textutil.NormalizeTitle(name)
		if key == "" {
			return nil, fmt.Errorf("%w: topic name must not be blank", services.ErrConfiguration)
		}
		if existing, ok := reg.byKey[key]; ok {
			return nil, fmt.Errorf("%w: topics %q and %q fold to the same name", services.ErrConfiguration, existing.Name, name)
		}

		var set matching.RuleSet
		if def == nil || def.IsZero() {
			set = matching.Literal(key)
		} else {
			set = matching.RuleSet{
				MatchStrings:   textutil.NormalizeAll(def.MatchStrings),
				UnmatchStrings: textutil.NormalizeAll(def.UnmatchStrings),
				MatchRegexes:   append([]string(nil), def.MatchRegexes...),
				UnmatchRegexes: append([]string(nil), def.UnmatchRegexes...),
			}
		}
		compiled, err := matching.Compile(set)
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", name, err)
		}
		topic := &Topic{Name: name, Key: key, Rules: set, compiled: compiled}
		reg.byKey[key] = topic
		reg.topics = append(reg.topics, topic)
	}
	sort.Slice(reg.topics, func(i, j int) bool { return reg.topics[i].Key < reg.topics[j].Key })

	for _, p := range priorities {
		prefer := textutil.NormalizeAll(p.Prefer)
		if len(prefer) == 0 {
			return nil, fmt.Errorf("%w: disambiguation group %q has no preferred keywords", services.ErrConfiguration, p.Group)
		}
		reg.priorities = append(reg.priorities, Priority{Group: strings.TrimSpace(p.Group), Prefer: prefer})
	}
	return reg, nil
}

// Len returns the number of topics.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.topics)
}

// Names returns topic names sorted by their folded key.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.topics))
	for _, t := range r.topics {
		names = append(names, t.Name)
	}
	return names
}

// Lookup finds a topic by name, ignoring case.
func (r *Registry) Lookup(name string) (*Topic, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.byKey[textutil.NormalizeTitle(name)]
	return t, ok
}

// Priorities returns the normalized disambiguation priorities.
func (r *Registry) Priorities() []Priority {
	if r == nil {
		return nil
	}
	return append([]Priority(nil), r.priorities...)
}

// AmbiguityError describes a title that matched several topics.
type AmbiguityError struct {
	Title      string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: title %q matches topics %s", ErrAmbiguousMatch.Error(), e.Title, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousMatch
}

// IsAmbiguous reports whether err is an unresolved topic ambiguity.
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguousMatch)
}
