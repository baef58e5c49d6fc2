// Package aggregator persists periodic snapshots of search analytics in
// PostgreSQL so usage history survives restarts of the search service.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	data        JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const capturedIndex = `CREATE INDEX IF NOT EXISTS idx_analytics_snapshots_captured_at
	ON analytics_snapshots (captured_at DESC)`

// Store persists aggregated analytics snapshots.
type Store struct {
	db        *postgres.Client
	retention int
	logger    *slog.Logger
}

// NewStore returns a Store that keeps at most retention snapshots. A
// non-positive retention keeps everything.
func NewStore(db *postgres.Client, retention int) *Store {
	return &Store{
		db:        db,
		retention: retention,
		logger:    slog.Default().With("component", "analytics-store"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.Migrate(ctx, schema, capturedIndex)
}

// SaveSnapshot inserts stats and prunes snapshots beyond the retention.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
			data, time.Now().UTC(),
		); err != nil {
			return err
		}
		if s.retention <= 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM analytics_snapshots WHERE id NOT IN (
				SELECT id FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1)`,
			s.retention,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved", "total_searches", stats.TotalSearches)
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil if none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// Latest serves GET /api/v1/analytics/latest from the newest snapshot.
func (s *Store) Latest() analytics.StatsSource {
	return latestSource{store: s}
}

type latestSource struct{ store *Store }

func (l latestSource) Stats() analytics.AggregatedStats {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stats, err := l.store.LatestSnapshot(ctx)
	if err != nil || stats == nil {
		if err != nil {
			l.store.logger.Warn("reading latest snapshot", "error", err)
		}
		return analytics.AggregatedStats{}
	}
	return *stats
}

// StartPeriodicSave snapshots source every interval until ctx is cancelled,
// then writes a final snapshot.
func (s *Store) StartPeriodicSave(ctx context.Context, source analytics.StatsSource, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, source.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(shutdownCtx, source.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
