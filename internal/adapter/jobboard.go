package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/amishk599/jobscout/internal/model"
)

// DefaultJobBoardBaseURL is the public positions API of the job board.
const DefaultJobBoardBaseURL = "https://jobs.github.com"

// searchPathTemplate takes the escaped keyword, latitude and longitude.
const searchPathTemplate = "/positions.json?description=%s&lat=%s&long=%s"

// ErrEmptyBody is returned when the job board answers 2xx with no body.
var ErrEmptyBody = model.ErrEmptyResponse

// JobBoardAdapter fetches raw postings from the job board's geo search API.
type JobBoardAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewJobBoardAdapter creates an adapter rooted at baseURL (no trailing slash).
func NewJobBoardAdapter(baseURL string, client *http.Client, logger *slog.Logger) *JobBoardAdapter {
	if baseURL == "" {
		baseURL = DefaultJobBoardBaseURL
	}
	return &JobBoardAdapter{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// SearchURL fills the search template for q.
func (a *JobBoardAdapter) SearchURL(q model.SearchQuery) string {
	return a.baseURL + fmt.Sprintf(searchPathTemplate,
		a.escapeKeyword(q.Keyword),
		strconv.FormatFloat(q.Lat, 'f', -1, 64),
		strconv.FormatFloat(q.Lon, 'f', -1, 64),
	)
}

// escapeKeyword query-escapes the keyword. A keyword that is not valid UTF-8
// cannot be encoded meaningfully; it is sent as-is and the condition logged.
func (a *JobBoardAdapter) escapeKeyword(keyword string) string {
	if !utf8.ValidString(keyword) {
		a.logger.Warn("keyword is not valid UTF-8, sending unescaped", "keyword", keyword)
		return keyword
	}
	return url.QueryEscape(keyword)
}

// FetchPostings runs one search and returns the decoded postings in response
// order. Non-2xx statuses are returned as *model.HTTPError.
func (a *JobBoardAdapter) FetchPostings(ctx context.Context, q model.SearchQuery) ([]model.RawPosting, error) {
	reqURL := a.SearchURL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("job board search: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job board search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("job board search: unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("job board search: read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("job board search: %w", ErrEmptyBody)
	}

	var postings []model.RawPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, fmt.Errorf("job board search: %w: %w", model.ErrMalformedResponse, err)
	}

	a.logger.Debug("job board search complete", "url", reqURL, "postings", len(postings))
	return postings, nil
}
