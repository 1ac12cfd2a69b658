package mealplan

import "strings"

// NormalizeTokens lowercases, trims and de-duplicates a free-text list,
// preserving first-seen order and dropping blanks
func NormalizeTokens(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		token := normalizeToken(item)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SplitList splits comma separated free text ("peanuts, Shellfish") into normalized tokens
func SplitList(text string) []string {
	return NormalizeTokens(strings.Split(text, ","))
}

// ContainsAnySubstring returns the first term that appears inside any of the texts.
// Both sides are expected to be normalized already.
func ContainsAnySubstring(texts []string, terms []string) (string, bool) {
	for _, term := range terms {
		for _, text := range texts {
			if strings.Contains(text, term) {
				return term, true
			}
		}
	}
	return "", false
}

// TagSet is a normalized set of tags
type TagSet map[string]struct{}

// NewTagSet builds a set from already normalized tokens
func NewTagSet(tags []string) TagSet {
	set := make(TagSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Has reports whether the tag is present
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether every tag is present
func (s TagSet) HasAll(tags []string) bool {
	for _, tag := range tags {
		if !s.Has(tag) {
			return false
		}
	}
	return true
}

// CountOf returns how many of the tags are present
func (s TagSet) CountOf(tags []string) int {
	n := 0
	for _, tag := range tags {
		if s.Has(tag) {
			n++
		}
	}
	return n
}
