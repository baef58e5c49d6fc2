package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem/sqlitestore"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/kafka"
)

// Export writes corpus to every non-empty path in out. Files are replaced
// atomically so a running search service never reads half a snapshot.
func Export(ctx context.Context, corpus problem.Corpus, out config.ScraperOutput) error {
	log := slog.Default().With("component", "scraper-export")
	if out.JSON != "" {
		if err := writeAtomic(out.JSON, func(w io.Writer) error { return problem.EncodeJSON(w, corpus) }); err != nil {
			return fmt.Errorf("writing json snapshot: %w", err)
		}
		log.Info("saved snapshot", "format", "json", "path", out.JSON, "records", len(corpus))
	}
	if out.CSV != "" {
		if err := writeAtomic(out.CSV, func(w io.Writer) error { return problem.EncodeCSV(w, corpus) }); err != nil {
			return fmt.Errorf("writing csv snapshot: %w", err)
		}
		log.Info("saved snapshot", "format", "csv", "path", out.CSV, "records", len(corpus))
	}
	if out.SQLite != "" {
		if err := os.MkdirAll(filepath.Dir(out.SQLite), 0o755); err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
		if err := sqlitestore.Save(ctx, out.SQLite, corpus); err != nil {
			return fmt.Errorf("writing sqlite snapshot: %w", err)
		}
		log.Info("saved snapshot", "format", "sqlite", "path", out.SQLite, "records", len(corpus))
	}
	return nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Announce publishes every record to the problem-ingest topic keyed by
// platform, in batches of batchSize.
func Announce(ctx context.Context, pub Publisher, corpus problem.Corpus, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	for start := 0; start < len(corpus); start += batchSize {
		end := min(start+batchSize, len(corpus))
		events := make([]kafka.Event, 0, end-start)
		for _, rec := range corpus[start:end] {
			events = append(events, kafka.Event{Key: rec.Platform, Value: rec})
		}
		if err := pub.PublishBatch(ctx, events); err != nil {
			return fmt.Errorf("announcing records %d-%d: %w", start, end, err)
		}
	}
	slog.Default().Info("records announced", "component", "scraper-announce", "records", len(corpus))
	return nil
}
