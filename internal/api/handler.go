// Package api implements the JSON HTTP surface over the search aggregator
// and the favorites store.
//
// Routes:
//
//	GET    /health                          → liveness
//	GET    /search?lat=&lon=&term=&user_id= → enriched postings, favorite flag when user_id is set
//	GET    /history?user_id=                → the user's favorites
//	POST   /history                         → add {"user_id", "favorite": {posting}}
//	DELETE /history                         → remove {"user_id", "favorite": {"item_id"}}
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/amishk599/jobscout/internal/model"
)

// Handler holds shared dependencies.
type Handler struct {
	searcher model.Searcher
	store    model.FavoriteStore
	logger   *slog.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(searcher model.Searcher, store model.FavoriteStore, logger *slog.Logger) *Handler {
	return &Handler{searcher: searcher, store: store, logger: logger}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/search", h.handleSearch)
	mux.HandleFunc("/history", h.handleHistory)
}

// historyRequest is the body of POST and DELETE /history.
type historyRequest struct {
	UserID   string          `json:"user_id"`
	Favorite *model.ItemView `json:"favorite"`
}

type resultResponse struct {
	Result string `json:"result"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

// handleSearch handles GET /search.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	lat, err := parseCoordinate(q.Get("lat"))
	if err != nil {
		jsonError(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lon, err := parseCoordinate(q.Get("lon"))
	if err != nil {
		jsonError(w, "invalid lon", http.StatusBadRequest)
		return
	}

	items, err := h.searcher.Search(r.Context(), lat, lon, q.Get("term"))
	if err != nil {
		h.logger.Error("search failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		var extErr *model.ExtractionError
		if errors.As(err, &extErr) {
			jsonError(w, "keyword extraction unavailable", http.StatusBadGateway)
			return
		}
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}

	userID := q.Get("user_id")
	if userID == "" {
		views := make([]model.ItemView, 0, len(items))
		for _, it := range items {
			views = append(views, it.View())
		}
		jsonOK(w, views)
		return
	}

	favs, err := h.store.GetFavoriteIDs(r.Context(), userID)
	if err != nil {
		h.logger.Error("loading favorite ids failed", "request_id", RequestIDFrom(r.Context()), "user_id", userID, "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	views := make([]model.ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, model.MarkedView(it, favs[it.ID()]))
	}
	jsonOK(w, views)
}

// handleHistory dispatches /history by method.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listFavorites(w, r)
	case http.MethodPost:
		h.addFavorite(w, r)
	case http.MethodDelete:
		h.removeFavorite(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "missing user_id", http.StatusForbidden)
		return
	}

	items, err := h.store.GetFavorites(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing favorites failed", "request_id", RequestIDFrom(r.Context()), "user_id", userID, "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	views := make([]model.ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, model.FavoriteView(it))
	}
	jsonOK(w, views)
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeHistory(w, r)
	if !ok {
		return
	}

	if err := h.store.AddFavorite(r.Context(), req.UserID, req.Favorite.Item()); err != nil {
		h.logger.Error("adding favorite failed", "request_id", RequestIDFrom(r.Context()), "user_id", req.UserID, "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, resultResponse{Result: "SUCCESS"})
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeHistory(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), req.UserID, req.Favorite.ItemID); err != nil {
		h.logger.Error("removing favorite failed", "request_id", RequestIDFrom(r.Context()), "user_id", req.UserID, "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, resultResponse{Result: "SUCCESS"})
}

// decodeHistory parses and validates a history body, writing the error
// response itself when it returns false.
func (h *Handler) decodeHistory(w http.ResponseWriter, r *http.Request) (historyRequest, bool) {
	var req historyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return req, false
	}
	if req.UserID == "" {
		jsonError(w, "missing user_id", http.StatusForbidden)
		return req, false
	}
	if req.Favorite == nil || req.Favorite.ItemID == "" {
		jsonError(w, "favorite.item_id is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("coordinate must be finite")
	}
	return v, nil
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
