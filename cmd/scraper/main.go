// Command scraper collects problem listings from the configured sites and
// writes the snapshots the search service loads.
//
// Jobs, output paths and politeness settings come from the scraper section
// of the config. With kafka.enabled and scraper.announce set, every record is
// also published to the problem-ingest topic.
//
// Usage:
//
//	go run ./cmd/scraper [-config configs/development.yaml] [-platform Codeforces] [-topic dp]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/scraper"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	platform := flag.String("platform", "", "only summarise records from this platform")
	topic := flag.String("topic", "", "only summarise records whose topic contains this text")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting scrape run", "jobs", len(cfg.Scraper.Jobs), "concurrency", cfg.Scraper.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		UserAgent:      cfg.Scraper.UserAgent,
		RequestTimeout: cfg.Scraper.RequestTimeout,
		MaxAttempts:    cfg.Scraper.MaxAttempts,
	}, m)
	runner, err := scraper.NewRunner(cfg.Scraper, fetcher, m)
	if err != nil {
		slog.Error("invalid scraper configuration", "error", err)
		os.Exit(1)
	}

	corpus, results, err := runner.Run(ctx, cfg.Scraper.Jobs)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if err != nil {
		slog.Error("scrape run failed", "error", err, "failed_jobs", failed)
		os.Exit(1)
	}

	if err := scraper.Export(ctx, corpus, cfg.Scraper.Output); err != nil {
		slog.Error("failed to export snapshot", "error", err)
		os.Exit(1)
	}

	if cfg.Kafka.Enabled && cfg.Scraper.Announce {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ProblemIngest)
		defer producer.Close()
		if err := scraper.Announce(ctx, producer, corpus, cfg.Analytics.BatchSize); err != nil {
			slog.Error("failed to announce records", "error", err)
		}
	}

	view := corpus
	if *platform != "" {
		view = problem.FilterByPlatform(view, *platform)
	}
	if *topic != "" {
		view = problem.FilterByTopic(view, *topic)
	}
	problem.Summarize(view).Print(os.Stdout)

	slog.Info("scrape run finished", "records", len(corpus), "failed_jobs", failed)
}
