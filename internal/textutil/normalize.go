package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeTitle folds case and collapses runs of whitespace so titles and
// rule strings compare consistently. Unicode-aware folding keeps titles such as
// "Pokémon" and "POKÉMON" equal.
func NormalizeTitle(value string) string {
	folded := cases.Fold().String(value)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeAll applies NormalizeTitle to each entry, dropping entries that are
// empty after normalization.
func NormalizeAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := NormalizeTitle(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CollapseSpace joins the whitespace-separated fields of value with single
// spaces. Caption segments often carry embedded newlines.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
