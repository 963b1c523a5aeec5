package keywords

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// KeywordCache stores extraction results keyed by input text.
type KeywordCache interface {
	// GetMany returns a result and a hit flag for every text, in order.
	GetMany(ctx context.Context, texts []string) ([][]string, []bool, error)
	PutMany(ctx context.Context, texts []string, keywords [][]string) error
}

// CachedExtractor is a decorator that serves repeated texts from a cache and
// sends only the misses to the inner extractor, still as one batch.
type CachedExtractor struct {
	inner  model.KeywordExtractor
	cache  KeywordCache
	logger *slog.Logger
}

// NewCachedExtractor wraps inner with cache lookups.
func NewCachedExtractor(inner model.KeywordExtractor, cache KeywordCache, logger *slog.Logger) *CachedExtractor {
	return &CachedExtractor{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// ExtractKeywords answers hits from the cache and fills the remaining
// positions from a single inner call. Cache errors degrade to all-miss.
func (c *CachedExtractor) ExtractKeywords(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return [][]string{}, nil
	}

	out, hit, err := c.cache.GetMany(ctx, texts)
	if err != nil || len(out) != len(texts) || len(hit) != len(texts) {
		c.logger.Warn("keyword cache lookup failed, extracting all", "error", err)
		out = make([][]string, len(texts))
		hit = make([]bool, len(texts))
	}

	var missIdx []int
	var missTexts []string
	for i, ok := range hit {
		if !ok {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}

	c.logger.Debug("keyword cache lookup", "texts", len(texts), "misses", len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, failed, err := c.extractMisses(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, &model.ExtractionError{
			Count: len(texts),
			Err:   fmt.Errorf("extractor returned %d results for %d texts", len(fresh), len(missTexts)),
		}
	}

	for j, i := range missIdx {
		out[i] = fresh[j]
	}

	// Texts the service failed on are answered with [] but never cached.
	var putTexts []string
	var putKeywords [][]string
	for j, t := range missTexts {
		if j < len(failed) && failed[j] {
			continue
		}
		putTexts = append(putTexts, t)
		putKeywords = append(putKeywords, fresh[j])
	}
	if len(putTexts) == 0 {
		return out, nil
	}
	if err := c.cache.PutMany(ctx, putTexts, putKeywords); err != nil {
		c.logger.Warn("keyword cache store failed", "error", err)
	}
	return out, nil
}

func (c *CachedExtractor) extractMisses(ctx context.Context, texts []string) ([][]string, []bool, error) {
	if p, ok := c.inner.(model.PartialExtractor); ok {
		return p.ExtractKeywordsPartial(ctx, texts)
	}
	out, err := c.inner.ExtractKeywords(ctx, texts)
	return out, nil, err
}
