// Package handler serves the search HTTP API over a built index: the
// original POST /search contract plus the versioned /api/v1 endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/cache"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/tracing"
)

const (
	endpointLegacy = "legacy"
	endpointAPI    = "api"

	maxBodyBytes = 1 << 20
)

// SearchRequest is the body of POST /search. Missing fields are empty.
type SearchRequest struct {
	Query      string `json:"query"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

// SearchResponse is the envelope returned by GET /api/v1/search.
type SearchResponse struct {
	Query        string               `json:"query"`
	Terms        []string             `json:"terms"`
	Filter       index.Filter         `json:"filter"`
	Returned     int                  `json:"returned"`
	TotalMatches int                  `json:"total_matches"`
	CacheHit     bool                 `json:"cache_hit"`
	LatencyMs    float64              `json:"latency_ms"`
	Results      []index.ScoredRecord `json:"results"`
}

// CorpusStats is returned by GET /api/v1/corpus/stats.
type CorpusStats struct {
	Index   index.Stats     `json:"index"`
	Summary problem.Summary `json:"summary"`
}

// Handler answers queries against one immutable index. The cache, tracker
// and metrics are optional.
type Handler struct {
	idx     *index.Index
	summary problem.Summary
	cache   *cache.QueryCache
	tracker analytics.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns a Handler for idx. c is the corpus idx was built from and is
// only used for the stats endpoint.
func New(idx *index.Index, c problem.Corpus, queryCache *cache.QueryCache, tracker analytics.Tracker, m *metrics.Metrics) *Handler {
	return &Handler{
		idx:     idx,
		summary: problem.Summarize(c),
		cache:   queryCache,
		tracker: tracker,
		metrics: m,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", h.LegacySearch)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/corpus/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Paths lists the routed paths for metric labelling.
func Paths() []string {
	return []string{
		"/search",
		"/api/v1/search",
		"/api/v1/corpus/stats",
		"/api/v1/cache/stats",
		"/api/v1/cache/invalidate",
		"/api/v1/analytics",
		"/api/v1/analytics/latest",
		"/health/live",
		"/health/ready",
	}
}

// LegacySearch serves POST /search and answers with a bare array of at most
// index.MaxResults records.
func (h *Handler) LegacySearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body: %v", err))
		return
	}
	filter := index.Filter{Difficulty: req.Difficulty, Language: req.Language}
	resp := h.execute(r, endpointLegacy, req.Query, filter)
	h.writeJSON(w, http.StatusOK, resp.Results)
}

// Search serves GET /api/v1/search?q=&difficulty=&language=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := index.Filter{Difficulty: params.Get("difficulty"), Language: params.Get("language")}
	resp := h.execute(r, endpointAPI, params.Get("q"), filter)
	h.writeJSON(w, http.StatusOK, resp)
}

// execute runs one query. Nothing on this path fails: unknown terms, empty
// queries and cache trouble all end in a possibly empty result list.
func (h *Handler) execute(r *http.Request, endpoint, query string, filter index.Filter) *SearchResponse {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "search")
	log := logger.FromContext(ctx)
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	_, nspan := tracing.Start(ctx, "normalize")
	normalized := h.idx.NormalizeQuery(query).String()
	nspan.SetAttr("normalized", normalized)
	nspan.End()

	compute := func() *cache.Entry {
		_, mspan := tracing.Start(ctx, "match")
		defer mspan.End()
		matches := h.idx.Match(query, filter)
		results := matches
		if len(results) > index.MaxResults {
			results = results[:index.MaxResults]
		}
		mspan.SetAttr("matches", len(matches))
		return &cache.Entry{TotalMatches: len(matches), Results: results}
	}

	var entry *cache.Entry
	cacheHit := false
	if h.cache != nil && normalized != "" {
		cctx, cspan := tracing.Start(ctx, "cache")
		entry, cacheHit = h.cache.GetOrCompute(cctx, normalized, filter, compute)
		cspan.SetAttr("hit", cacheHit)
		cspan.End()
	} else {
		entry = compute()
	}
	// entry may be shared with concurrent callers through the cache.
	results := entry.Results
	if results == nil {
		results = []index.ScoredRecord{}
	}

	elapsed := time.Since(start)
	resp := &SearchResponse{
		Query:        query,
		Terms:        h.idx.Terms(query),
		Filter:       filter,
		Returned:     len(results),
		TotalMatches: entry.TotalMatches,
		CacheHit:     cacheHit,
		LatencyMs:    float64(elapsed.Microseconds()) / 1000,
		Results:      results,
	}

	log.Info("search completed",
		"endpoint", endpoint,
		"query", query,
		"difficulty", filter.Difficulty,
		"language", filter.Language,
		"total_matches", resp.TotalMatches,
		"returned", resp.Returned,
		"cache_hit", cacheHit,
		"latency", elapsed,
	)
	h.observe(endpoint, resp, elapsed)
	h.track(ctx, endpoint, resp, elapsed)
	return resp
}

func (h *Handler) observe(endpoint string, resp *SearchResponse, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	outcome := "match"
	if resp.TotalMatches == 0 {
		outcome = "zero_result"
	}
	cacheStatus := "miss"
	if resp.CacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(endpoint, outcome).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(resp.Returned))
}

func (h *Handler) track(ctx context.Context, endpoint string, resp *SearchResponse, elapsed time.Duration) {
	if h.tracker == nil {
		return
	}
	eventType := analytics.EventSearch
	if resp.TotalMatches == 0 {
		eventType = analytics.EventZeroResult
	}
	h.tracker.Track(analytics.SearchEvent{
		Type:         eventType,
		Endpoint:     endpoint,
		Query:        resp.Query,
		Terms:        resp.Terms,
		Difficulty:   resp.Filter.Difficulty,
		Language:     resp.Filter.Language,
		TotalMatches: resp.TotalMatches,
		Returned:     resp.Returned,
		LatencyMs:    elapsed.Milliseconds(),
		CacheHit:     resp.CacheHit,
		Timestamp:    time.Now().UTC(),
		RequestID:    middleware.GetRequestID(ctx),
	})
}

// CorpusStats serves GET /api/v1/corpus/stats.
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, CorpusStats{Index: h.idx.Stats(), Summary: h.summary})
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	total := stats.Hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"total":       total,
		"hit_rate":    fmt.Sprintf("%.1f%%", hitRate),
		"fingerprint": h.idx.Fingerprint(),
	})
}

// CacheInvalidate serves POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUpstream, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %w", apperrors.ErrUpstream, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": message})
}
