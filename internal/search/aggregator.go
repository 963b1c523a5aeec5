// Package search turns one job board query into enriched, immutable items.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// DefaultKeyword is searched when the caller gives no keyword.
const DefaultKeyword = "developer"

// Options configures an Aggregator.
type Options struct {
	// DefaultKeyword replaces an empty search keyword.
	DefaultKeyword string
	// Degrade returns items with empty keyword sets when extraction fails,
	// instead of failing the whole search.
	Degrade bool
}

// Aggregator runs the search → enrich → build pipeline. It holds no mutable
// state and is safe for concurrent use.
type Aggregator struct {
	source    model.PostingSource
	extractor model.KeywordExtractor
	opts      Options
	logger    *slog.Logger
}

// NewAggregator wires an aggregator. An empty opts.DefaultKeyword falls back
// to DefaultKeyword.
func NewAggregator(source model.PostingSource, extractor model.KeywordExtractor, opts Options, logger *slog.Logger) *Aggregator {
	if opts.DefaultKeyword == "" {
		opts.DefaultKeyword = DefaultKeyword
	}
	return &Aggregator{
		source:    source,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
	}
}

// Search fetches postings near (lat, lon) matching keyword and returns one
// item per posting in response order.
//
// A failed or empty job board response yields an empty list and a nil error.
// A keyword extraction failure is returned as *model.ExtractionError unless
// the aggregator was built with Options.Degrade.
func (a *Aggregator) Search(ctx context.Context, lat, lon float64, keyword string) ([]model.Item, error) {
	if keyword == "" {
		keyword = a.opts.DefaultKeyword
	}
	q := model.SearchQuery{Lat: lat, Lon: lon, Keyword: keyword}

	postings, err := a.source.FetchPostings(ctx, q)
	if err != nil {
		a.logger.Warn("job board search failed, returning no results",
			"keyword", keyword,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return []model.Item{}, nil
	}
	if len(postings) == 0 {
		a.logger.Info("job board search matched nothing", "keyword", keyword)
		return []model.Item{}, nil
	}

	texts := make([]string, len(postings))
	for i, p := range postings {
		texts[i] = enrichmentText(p)
	}

	keywords, err := a.extractor.ExtractKeywords(ctx, texts)
	if err == nil && len(keywords) != len(postings) {
		err = &model.ExtractionError{
			Count: len(texts),
			Err:   fmt.Errorf("extractor returned %d results for %d texts", len(keywords), len(texts)),
		}
	}
	if err != nil {
		var extErr *model.ExtractionError
		if !errors.As(err, &extErr) {
			err = &model.ExtractionError{Count: len(texts), Err: err}
		}
		if !a.opts.Degrade {
			return nil, fmt.Errorf("search %q: %w", keyword, err)
		}
		a.logger.Warn("keyword extraction failed, returning items without keywords",
			"postings", len(postings),
			"error", err,
		)
		keywords = make([][]string, len(postings))
	}

	items := make([]model.Item, len(postings))
	for i, p := range postings {
		items[i] = buildItem(p, keywords[i])
	}

	a.logger.Info("search complete", "keyword", keyword, "items", len(items))
	return items, nil
}

// enrichmentText is the text sent to the keyword extractor for one posting:
// its description, or its title when the description is missing or blank.
func enrichmentText(p model.RawPosting) string {
	description := p.Field("description")
	if description == "" || description == "\n" {
		return p.Field("title")
	}
	return description
}

func buildItem(p model.RawPosting, keywords []string) model.Item {
	return model.NewItemBuilder().
		SetID(p.Field("id")).
		SetName(p.Field("title")).
		SetAddress(p.Field("location")).
		SetURL(p.Field("url")).
		SetImageURL(p.Field("company_logo")).
		SetKeywords(model.NewKeywordSet(keywords...)).
		Build()
}
