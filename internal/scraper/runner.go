package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/resilience"
)

// JobResult reports the outcome of one configured job.
type JobResult struct {
	Job      config.ScrapeJob
	Records  int
	Rejected int
	Duration time.Duration
	Err      error
}

// Runner executes scrape jobs with bounded concurrency.
type Runner struct {
	scrapers    map[string]Scraper
	jobTimeout  time.Duration
	delay       time.Duration
	concurrency int
	language    string
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewRunner builds one scraper per platform named in cfg.Jobs. m may be nil.
func NewRunner(cfg config.ScraperConfig, fetcher *Fetcher, m *metrics.Metrics) (*Runner, error) {
	r := &Runner{
		scrapers:    make(map[string]Scraper),
		jobTimeout:  cfg.JobTimeout,
		delay:       cfg.Delay,
		concurrency: cfg.Concurrency,
		language:    cfg.LanguagePlaceholder,
		metrics:     m,
		logger:      slog.Default().With("component", "scraper-runner"),
	}
	if r.concurrency <= 0 {
		r.concurrency = 1
	}
	for _, job := range cfg.Jobs {
		key := strings.ToLower(job.Platform)
		if _, ok := r.scrapers[key]; ok {
			continue
		}
		s, err := New(key, cfg.BaseURLs[key], fetcher)
		if err != nil {
			return nil, err
		}
		r.scrapers[key] = s
	}
	return r, nil
}

// Run executes jobs and returns their valid records concatenated in job
// order. Failed jobs are logged and skipped; a run that yields no records
// at all is an error.
func (r *Runner) Run(ctx context.Context, jobs []config.ScrapeJob) (problem.Corpus, []JobResult, error) {
	perJob := make([]problem.Corpus, len(jobs))
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			perJob[i], results[i] = r.runJob(gctx, job)
			return nil
		})
	}
	g.Wait()

	var corpus problem.Corpus
	for i, res := range results {
		if res.Err != nil {
			r.logger.Warn("scrape job failed",
				"platform", res.Job.Platform,
				"topic", res.Job.Topic,
				"error", res.Err,
			)
			continue
		}
		corpus = append(corpus, perJob[i]...)
	}
	if ctx.Err() != nil {
		return corpus, results, ctx.Err()
	}
	if len(corpus) == 0 {
		return nil, results, fmt.Errorf("%w: scrape produced no records", apperrors.ErrEmptyCorpus)
	}
	r.logger.Info("scrape finished", "jobs", len(jobs), "records", len(corpus))
	return corpus, results, nil
}

func (r *Runner) runJob(ctx context.Context, job config.ScrapeJob) (problem.Corpus, JobResult) {
	res := JobResult{Job: job}
	key := strings.ToLower(job.Platform)
	s, ok := r.scrapers[key]
	if !ok {
		res.Err = fmt.Errorf("%w: no scraper for %q", apperrors.ErrInvalidInput, job.Platform)
		return nil, res
	}

	start := time.Now()
	var raw problem.Corpus
	res.Err = resilience.WithTimeout(ctx, r.jobTimeout, "scrape "+key, func(ctx context.Context) error {
		var err error
		raw, err = s.Scrape(ctx, job.Topic, job.Limit)
		return err
	})
	res.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.ScrapeDuration.WithLabelValues(key).Observe(res.Duration.Seconds())
	}
	if res.Err != nil {
		if r.metrics != nil {
			r.metrics.ScrapeErrorsTotal.WithLabelValues(key).Inc()
		}
		return nil, res
	}

	kept := make(problem.Corpus, 0, len(raw))
	for _, rec := range raw {
		rec = r.finish(rec)
		if err := problem.Validate(rec); err != nil {
			res.Rejected++
			r.logger.Debug("record rejected", "platform", s.Platform(), "title", rec.Title, "error", err)
			continue
		}
		kept = append(kept, rec)
	}
	res.Records = len(kept)
	if r.metrics != nil {
		r.metrics.ScrapedRecordsTotal.WithLabelValues(key).Add(float64(len(kept)))
	}
	r.logger.Info("scrape job done",
		"platform", s.Platform(),
		"topic", job.Topic,
		"records", res.Records,
		"rejected", res.Rejected,
		"duration", res.Duration,
	)

	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	return kept, res
}

// finish trims fields and applies the difficulty default and the optional
// language placeholder.
func (r *Runner) finish(rec problem.Record) problem.Record {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Difficulty = strings.TrimSpace(rec.Difficulty)
	if rec.Difficulty == "" {
		rec.Difficulty = problem.UnknownDifficulty
	}
	if rec.Language == "" {
		rec.Language = r.language
	}
	return rec
}
