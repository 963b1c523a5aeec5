package filter

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ItemFilter = (*KeywordAndLocationFilter)(nil)

// KeywordAndLocationFilter matches items that carry any of the wanted
// keywords and whose address contains any of the wanted locations.
// Matching is case-insensitive. Empty lists are treated as "match all".
type KeywordAndLocationFilter struct {
	keywords  []string
	locations []string
}

// NewKeywordAndLocationFilter returns a filter that requires both a keyword
// match and a location match.
func NewKeywordAndLocationFilter(keywords []string, locations []string) *KeywordAndLocationFilter {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return &KeywordAndLocationFilter{
		keywords:  lower(keywords),
		locations: lower(locations),
	}
}

// Match reports whether item passes both checks. A keyword matches when it
// equals one of the item's extracted keywords or appears in the item's name,
// so items enriched with empty keyword sets can still match by title.
func (f *KeywordAndLocationFilter) Match(item model.Item) bool {
	if len(f.keywords) > 0 && !f.matchKeyword(item) {
		return false
	}

	if len(f.locations) > 0 {
		address := strings.ToLower(item.Address())
		matched := false
		for _, loc := range f.locations {
			if strings.Contains(address, loc) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func (f *KeywordAndLocationFilter) matchKeyword(item model.Item) bool {
	extracted := make(map[string]bool)
	for kw := range item.Keywords() {
		extracted[strings.ToLower(kw)] = true
	}
	name := strings.ToLower(item.Name())

	for _, kw := range f.keywords {
		if extracted[kw] || strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
