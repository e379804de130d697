package topics

import (
	"strings"

	"playscribe/internal/textutil"
)

// ResolutionKind classifies the outcome of Resolve.
type ResolutionKind int

const (
	// NoMatch means no topic claims the title.
	NoMatch ResolutionKind = iota
	// Matched means exactly one topic was selected.
	Matched
)

func (k ResolutionKind) String() string {
	switch k {
	case Matched:
		return "matched"
	default:
		return "no_match"
	}
}

// Resolution is the outcome of resolving one title.
type Resolution struct {
	Kind  ResolutionKind
	Topic *Topic
	// Candidates lists every topic whose rules matched, before disambiguation.
	Candidates []string
	// Group names the disambiguation priority that selected Topic, if any.
	Group string
}

// Disambiguated reports whether a priority rule had to pick the topic.
func (r Resolution) Disambiguated() bool {
	return r.Kind == Matched && len(r.Candidates) > 1
}

// Resolve maps title onto at most one topic. It never guesses: a title that
// matches several topics and survives every disambiguation priority yields an
// *AmbiguityError wrapping ErrAmbiguousMatch.
func (r *Registry) Resolve(title string) (Resolution, error) {
	normalized := textutil.NormalizeTitle(title)
	if r == nil || normalized == "" {
		return Resolution{Kind: NoMatch}, nil
	}

	var matched []*Topic
	for _, t := range r.topics {
		if t.Match(normalized) {
			matched = append(matched, t)
		}
	}

	names := make([]string, 0, len(matched))
	for _, t := range matched {
		names = append(names, t.Name)
	}

	switch len(matched) {
	case 0:
		return Resolution{Kind: NoMatch}, nil
	case 1:
		return Resolution{Kind: Matched, Topic: matched[0], Candidates: names}, nil
	}

	if topic, group, ok := r.disambiguate(matched); ok {
		return Resolution{Kind: Matched, Topic: topic, Candidates: names, Group: group}, nil
	}
	return Resolution{Candidates: names}, &AmbiguityError{Title: title, Candidates: names}
}

func (r *Registry) disambiguate(matched []*Topic) (*Topic, string, bool) {
	for _, p := range r.priorities {
		for _, keyword := range p.Prefer {
			var hit *Topic
			count := 0
			for _, t := range matched {
				if strings.Contains(t.Key, keyword) {
					hit = t
					count++
				}
			}
			if count == 1 {
				return hit, p.Group, true
			}
		}
	}
	return nil, "", false
}
