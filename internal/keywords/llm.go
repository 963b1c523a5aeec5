package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"github.com/amishk599/jobscout/internal/model"
)

// LLMExtractor implements model.KeywordExtractor with one LLM completion per batch.
type LLMExtractor struct {
	provider    LLMProvider
	tmpl        *template.Template
	maxKeywords int
	logger      *slog.Logger
}

// NewLLMExtractor creates an extractor that asks the LLM for up to
// maxKeywords keywords per text.
func NewLLMExtractor(provider LLMProvider, tmpl *template.Template, maxKeywords int, logger *slog.Logger) *LLMExtractor {
	return &LLMExtractor{
		provider:    provider,
		tmpl:        tmpl,
		maxKeywords: maxKeywords,
		logger:      logger,
	}
}

type indexedText struct {
	Index int
	Text  string
}

// rawBatch is the JSON shape returned by the LLM (matches keywordBatchSchema).
type rawBatch struct {
	Results []struct {
		Index    int      `json:"index"`
		Keywords []string `json:"keywords"`
	} `json:"results"`
}

// ExtractKeywords renders all texts into one prompt and maps the indexed
// results back to input positions. Texts the LLM skipped get no keywords.
func (e *LLMExtractor) ExtractKeywords(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return [][]string{}, nil
	}

	data := struct {
		MaxKeywords int
		Texts       []indexedText
	}{MaxKeywords: e.maxKeywords}
	for i, t := range texts {
		data.Texts = append(data.Texts, indexedText{Index: i, Text: plainText(t)})
	}

	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, data); err != nil {
		return nil, &model.ExtractionError{Count: len(texts), Err: fmt.Errorf("render prompt: %w", err)}
	}

	raw, err := e.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return nil, &model.ExtractionError{Count: len(texts), Err: fmt.Errorf("llm complete: %w", err)}
	}

	var batch rawBatch
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return nil, &model.ExtractionError{Count: len(texts), Err: fmt.Errorf("unmarshal keyword batch: %w", err)}
	}

	out := make([][]string, len(texts))
	for i := range out {
		out[i] = []string{}
	}
	for _, r := range batch.Results {
		if r.Index < 0 || r.Index >= len(texts) {
			e.logger.Warn("llm returned out-of-range index", "index", r.Index, "texts", len(texts))
			continue
		}
		out[r.Index] = capKeywords(r.Keywords, e.maxKeywords)
	}
	return out, nil
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// plainText converts an HTML or HTML-encoded description to plain text so
// markup does not eat into the prompt.
func plainText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// capKeywords trims to max entries; max <= 0 means no cap.
func capKeywords(kw []string, max int) []string {
	if kw == nil {
		return []string{}
	}
	if max > 0 && len(kw) > max {
		return kw[:max]
	}
	return kw
}
