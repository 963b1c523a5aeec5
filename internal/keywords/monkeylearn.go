package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// DefaultMonkeyLearnBaseURL is the MonkeyLearn v3 API root.
const DefaultMonkeyLearnBaseURL = "https://api.monkeylearn.com/v3"

// DefaultMonkeyLearnModel is the public keyword extractor model.
const DefaultMonkeyLearnModel = "ex_YCya9nrn"

// MonkeyLearnExtractor sends a whole batch of texts to a MonkeyLearn keyword
// extractor in one request. The service has a per-minute request quota, so
// callers must never fan a batch out into per-text calls.
type MonkeyLearnExtractor struct {
	baseURL     string
	apiKey      string
	modelID     string
	maxKeywords int
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewMonkeyLearnExtractor creates an extractor for the given model.
func NewMonkeyLearnExtractor(baseURL, apiKey, modelID string, maxKeywords int, httpClient *http.Client, logger *slog.Logger) *MonkeyLearnExtractor {
	return &MonkeyLearnExtractor{
		baseURL:     baseURL,
		apiKey:      apiKey,
		modelID:     modelID,
		maxKeywords: maxKeywords,
		httpClient:  httpClient,
		logger:      logger,
	}
}

type extractRequest struct {
	Data        []string `json:"data"`
	MaxKeywords int      `json:"max_keywords,omitempty"`
}

// extractResult is one entry of the response array, aligned with the request's data.
type extractResult struct {
	Text        string `json:"text"`
	Error       bool   `json:"error"`
	ErrorDetail string `json:"error_detail"`
	Extractions []struct {
		TagName     string `json:"tag_name"`
		ParsedValue string `json:"parsed_value"`
		Relevance   string `json:"relevance"`
	} `json:"extractions"`
}

// ExtractKeywords returns one keyword list per input text, in input order.
// Any failure of the call itself is returned as *model.ExtractionError.
func (e *MonkeyLearnExtractor) ExtractKeywords(ctx context.Context, texts []string) ([][]string, error) {
	out, _, err := e.ExtractKeywordsPartial(ctx, texts)
	return out, err
}

// ExtractKeywordsPartial is ExtractKeywords plus a per-text failure flag for
// texts MonkeyLearn answered with "error": true. Those texts get an empty list.
func (e *MonkeyLearnExtractor) ExtractKeywordsPartial(ctx context.Context, texts []string) ([][]string, []bool, error) {
	if len(texts) == 0 {
		return [][]string{}, []bool{}, nil
	}

	results, err := e.extract(ctx, texts)
	if err != nil {
		return nil, nil, &model.ExtractionError{Count: len(texts), Err: err}
	}
	if len(results) != len(texts) {
		return nil, nil, &model.ExtractionError{
			Count: len(texts),
			Err:   fmt.Errorf("monkeylearn returned %d results for %d texts", len(results), len(texts)),
		}
	}

	out := make([][]string, len(texts))
	failed := make([]bool, len(texts))
	for i, r := range results {
		out[i] = []string{}
		if r.Error {
			e.logger.Warn("monkeylearn could not process text", "index", i, "detail", r.ErrorDetail)
			failed[i] = true
			continue
		}
		for _, ex := range r.Extractions {
			out[i] = append(out[i], ex.ParsedValue)
		}
		out[i] = capKeywords(out[i], e.maxKeywords)
	}

	e.logger.Debug("monkeylearn extraction complete", "texts", len(texts))
	return out, failed, nil
}

func (e *MonkeyLearnExtractor) extract(ctx context.Context, texts []string) ([]extractResult, error) {
	body, err := json.Marshal(extractRequest{Data: texts, MaxKeywords: e.maxKeywords})
	if err != nil {
		return nil, fmt.Errorf("marshal monkeylearn request: %w", err)
	}

	url := fmt.Sprintf("%s/extractors/%s/extract/", e.baseURL, e.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create monkeylearn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monkeylearn request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read monkeylearn response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: time.Duration(retryAfter) * time.Second,
			Err:        fmt.Errorf("monkeylearn returned: %s", string(respBytes)),
		}
	}

	var results []extractResult
	if err := json.Unmarshal(respBytes, &results); err != nil {
		return nil, fmt.Errorf("parse monkeylearn response: %w", err)
	}
	return results, nil
}
