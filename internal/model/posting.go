package model

import (
	"context"
	"strconv"
	"time"
)

// SearchQuery is one geo/keyword search against the job board.
type SearchQuery struct {
	Lat     float64
	Lon     float64
	Keyword string
}

// RawPosting is one loosely structured record from the job board's search
// response. Any field may be missing, null, or of an unexpected type.
type RawPosting map[string]any

// Field returns the named field as a string, or "" when the field is absent
// or null. Every read of a raw field goes through here.
func (p RawPosting) Field(name string) string {
	switch v := p[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// PostingSource fetches raw postings from an external job board.
type PostingSource interface {
	FetchPostings(ctx context.Context, q SearchQuery) ([]RawPosting, error)
}

// KeywordExtractor maps N texts to N keyword lists in one round trip.
// result[i] always belongs to texts[i].
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, texts []string) ([][]string, error)
}

// PartialExtractor is implemented by extractors that can report which texts
// the service failed to process. failed[i] is true when result[i] is an
// empty placeholder rather than a real answer.
type PartialExtractor interface {
	ExtractKeywordsPartial(ctx context.Context, texts []string) (result [][]string, failed []bool, err error)
}

// Searcher runs a full aggregation pass and returns enriched items.
type Searcher interface {
	Search(ctx context.Context, lat, lon float64, keyword string) ([]Item, error)
}

// FavoriteStore persists each user's favorite items.
type FavoriteStore interface {
	GetFavorites(ctx context.Context, userID string) ([]Item, error)
	GetFavoriteIDs(ctx context.Context, userID string) (map[string]bool, error)
	AddFavorite(ctx context.Context, userID string, item Item) error
	RemoveFavorite(ctx context.Context, userID, itemID string) error
}

// SeenStore tracks which item IDs a watch has already reported.
type SeenStore interface {
	HasSeen(ctx context.Context, itemID string) (bool, error)
	MarkSeen(ctx context.Context, itemID string) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Notifier sends notifications for new matching items.
type Notifier interface {
	Notify(watch string, items []Item) error
}

// ItemFilter decides whether an item matches a watch's criteria.
type ItemFilter interface {
	Match(item Item) bool
}
