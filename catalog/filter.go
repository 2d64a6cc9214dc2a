// Package catalog fetches and filters the character catalog.
package catalog

import (
	"strings"

	"ai-character-chat/widget/internal/models"
)

// Filter returns the characters matching the text query and tag selection.
// A character matches when the query is empty or is a case-insensitive
// substring of its name, status text or any personality tag, and when every
// selected tag is present in its filter-tag set. The result is a stable
// subsequence of all; no ranking is applied.
func Filter(all []models.Character, query string, tags []string) []models.Character {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []models.Character
	for _, ch := range all {
		if !matchesQuery(ch, query) {
			continue
		}
		if !hasAllTags(ch, tags) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func matchesQuery(ch models.Character, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(ch.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(ch.StatusText), query) {
		return true
	}
	for _, tag := range ch.PersonalityTags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func hasAllTags(ch models.Character, tags []string) bool {
	for _, tag := range tags {
		if !ch.HasFilterTag(tag) {
			return false
		}
	}
	return true
}
