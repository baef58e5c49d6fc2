// Package analytics records search events, ships them through Kafka and
// aggregates them into the usage statistics served at /api/v1/analytics.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent describes one answered query. Query is the raw text; Terms are
// the normalized tokens that matched the vocabulary.
type SearchEvent struct {
	Type         EventType `json:"type"`
	Endpoint     string    `json:"endpoint"`
	Query        string    `json:"query"`
	Terms        []string  `json:"terms"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Language     string    `json:"language,omitempty"`
	TotalMatches int       `json:"total_matches"`
	Returned     int       `json:"returned"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Tracker accepts search events without blocking the caller.
type Tracker interface {
	Track(event SearchEvent)
}
