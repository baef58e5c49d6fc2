// Command problemsearch queries a problem snapshot from the terminal.
//
// With -q it runs one query and exits; otherwise it reads one query per line
// from stdin until EOF.
//
// Usage:
//
//	go run ./cmd/problemsearch -snapshot data/problems.json -q "two sum" [-difficulty Easy] [-language Python]
//	go run ./cmd/problemsearch -snapshot data/problems.csv -summary
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/index"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	snapshot := flag.String("snapshot", "", "corpus snapshot path (overrides corpus.source)")
	query := flag.String("q", "", "query to run; reads queries from stdin when empty")
	difficulty := flag.String("difficulty", "", "exact difficulty filter")
	language := flag.String("language", "", "exact language filter")
	summary := flag.Bool("summary", false, "print corpus counts and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *snapshot != "" {
		cfg.Corpus.Source = *snapshot
	}
	slog.SetDefault(logger.New(os.Stderr, "warn", "text"))

	problems, err := corpus.Load(context.Background(), cfg.Corpus.Source)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	if *summary {
		problem.Summarize(problems).Print(os.Stdout)
		return
	}

	idx, err := index.FromCorpus(problems, normalizer.New())
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}

	filter := index.Filter{Difficulty: *difficulty, Language: *language}
	if *query != "" {
		printResults(os.Stdout, idx.Search(*query, filter))
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		printResults(os.Stdout, idx.Search(scanner.Text(), filter))
		fmt.Fprint(os.Stdout, "> ")
	}
	fmt.Fprintln(os.Stdout)
}

func printResults(out io.Writer, results []index.ScoredRecord) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no matching problems")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTITLE\tPLATFORM\tDIFFICULTY\tURL")
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\t%s\n", r.Score, r.Title, r.Platform, r.Difficulty, r.URL)
	}
	w.Flush()
}
