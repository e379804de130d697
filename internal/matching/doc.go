// Package matching decides whether a playlist title belongs to a topic.
//
// A RuleSet carries inclusion and exclusion lists of literal substrings and
// regular expressions. Exclusions are always evaluated first, so a title that
// contains both a topic's name and one of its exclusion terms never matches.
// Evaluation is pure and case-sensitive; callers fold case before matching.
package matching
