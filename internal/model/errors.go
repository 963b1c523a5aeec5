package model

import (
	"errors"
	"fmt"
	"time"
)

// Answers that arrived intact but carry nothing usable. Retrying them
// returns the same answer.
var (
	ErrEmptyResponse     = errors.New("empty response body")
	ErrMalformedResponse = errors.New("malformed response body")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ExtractionError reports that a batched keyword extraction call failed as a
// whole. Callers decide whether to degrade to empty keyword sets or abort.
type ExtractionError struct {
	Count int // number of texts in the failed batch
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("keyword extraction of %d texts: %v", e.Count, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
