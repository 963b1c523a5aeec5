package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func newTestMonkeyLearn(srv *httptest.Server, max int) *MonkeyLearnExtractor {
	return NewMonkeyLearnExtractor(srv.URL, "ml-key", "ex_test", max, srv.Client(), discardLogger())
}

// echoServer answers each text with keywords derived from the text itself,
// so alignment can be checked. It counts requests and records the last batch.
func echoServer(t *testing.T, calls *atomic.Int32, lastBatch *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/extractors/ex_test/extract/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token ml-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*lastBatch = req.Data

		resp := make([]map[string]any, len(req.Data))
		for i, text := range req.Data {
			resp[i] = map[string]any{
				"text":  text,
				"error": false,
				"extractions": []map[string]any{
					{"tag_name": "Keyword", "parsed_value": text, "relevance": "0.9"},
					{"tag_name": "Keyword", "parsed_value": text, "relevance": "0.5"},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMonkeyLearn_SingleCallPreservesOrderAndDuplicates(t *testing.T) {
	var calls atomic.Int32
	var batch []string
	srv := echoServer(t, &calls, &batch)

	texts := []string{"go", "rust", "go", ""}
	got, err := newTestMonkeyLearn(srv, 0).ExtractKeywords(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c := calls.Load(); c != 1 {
		t.Errorf("HTTP calls = %d, want 1", c)
	}
	if len(batch) != len(texts) {
		t.Fatalf("sent batch of %d, want %d (no dedup)", len(batch), len(texts))
	}
	if len(got) != len(texts) {
		t.Fatalf("len = %d, want %d", len(got), len(texts))
	}
	for i, text := range texts {
		if batch[i] != text {
			t.Errorf("batch[%d] = %q, want %q", i, batch[i], text)
		}
		if len(got[i]) != 2 || got[i][0] != text {
			t.Errorf("got[%d] = %v, want keywords of %q", i, got[i], text)
		}
	}
}

func TestMonkeyLearn_CapsKeywords(t *testing.T) {
	var calls atomic.Int32
	var batch []string
	srv := echoServer(t, &calls, &batch)

	got, err := newTestMonkeyLearn(srv, 1).ExtractKeywords(context.Background(), []string{"go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got[0]) != 1 {
		t.Errorf("got %v, want 1 keyword", got[0])
	}
}

func TestMonkeyLearn_SendsMaxKeywords(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`[{"text": "go", "extractions": []}]`))
	}))
	defer srv.Close()

	if _, err := newTestMonkeyLearn(srv, 3).ExtractKeywords(context.Background(), []string{"go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := sent["max_keywords"].(float64); !ok || n != 3 {
		t.Errorf("max_keywords = %v, want 3", sent["max_keywords"])
	}
}

func TestMonkeyLearn_PerTextErrorYieldsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"text": "a", "error": true, "error_detail": "too short", "extractions": []},
			{"text": "b", "error": false, "extractions": [{"parsed_value": "b"}]}
		]`))
	}))
	defer srv.Close()

	got, failed, err := newTestMonkeyLearn(srv, 0).ExtractKeywordsPartial(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 2 || !failed[0] || failed[1] {
		t.Errorf("failed = %v, want [true false]", failed)
	}
	if len(got[0]) != 0 || got[0] == nil {
		t.Errorf("got[0] = %v, want empty list", got[0])
	}
	if len(got[1]) != 1 || got[1][0] != "b" {
		t.Errorf("got[1] = %v, want [b]", got[1])
	}
}

func TestMonkeyLearn_HTTPErrorIsExtractionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := newTestMonkeyLearn(srv, 0).ExtractKeywords(context.Background(), []string{"a"})

	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *model.ExtractionError, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 429 || httpErr.RetryAfter != time.Minute {
		t.Errorf("expected wrapped HTTPError 429 with 60s Retry-After, got %v", err)
	}
}

func TestMonkeyLearn_CardinalityMismatchIsExtractionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"text": "a", "extractions": []}]`))
	}))
	defer srv.Close()

	_, err := newTestMonkeyLearn(srv, 0).ExtractKeywords(context.Background(), []string{"a", "b"})
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *model.ExtractionError, got %v", err)
	}
}

func TestMonkeyLearn_UnreachableIsExtractionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ext := newTestMonkeyLearn(srv, 0)
	srv.Close()

	_, err := ext.ExtractKeywords(context.Background(), []string{"a"})
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *model.ExtractionError, got %v", err)
	}
}

func TestMonkeyLearn_EmptyBatchMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	var batch []string
	srv := echoServer(t, &calls, &batch)

	got, err := newTestMonkeyLearn(srv, 0).ExtractKeywords(context.Background(), []string{})
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v; want empty, nil", got, err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("HTTP calls = %d, want 0", c)
	}
}
