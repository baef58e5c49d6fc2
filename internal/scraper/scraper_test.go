package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/net/html"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem/sqlitestore"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
)

const leetCodePage = `<html><body><div role="rowgroup">
<div role="row"><span>Title</span></div>
<div role="row"><div><a href="/problems/two-sum/">1. Two Sum</a></div><span>49.1%</span><span class="text-difficulty-easy">Easy</span></div>
<div role="row"><a href="/problems/add-two-numbers/">2. Add Two Numbers</a></div>
</div></body></html>`

const codeforcesPage = `<html><body><table class="problems">
<tr><th>#</th><th>Name</th><th></th><th>Solved</th><th>Rating</th></tr>
<tr><td><a href="/problemset/problem/4/A">4A</a></td><td><div><a href="/problemset/problem/4/A">Watermelon</a></div></td><td>brute force</td><td><a href="/problemset/status/4/problem/A">x250000</a></td><td>800</td></tr>
<tr><td>1B</td><td><a href="/problemset/problem/1/B">Spreadsheet</a></td></tr>
</table></body></html>`

const hackerRankPage = `<html><body>
<div class="challenge"><a href="/challenges/solve-me-first/problem">Solve Me First</a><span class="difficulty easy">Easy</span></div>
<div><a href="/challenges/solve-me-first/problem">Solve Me First</a></div>
<div><a href="/challenges/abc/problem">abc</a></div>
<div><a href="/challenges/simple-array-sum/problem">Simple Array Sum</a></div>
<a href="/contests/weekly">Weekly Contest</a>
</body></html>`

const codeChefPage = `<html><body><table>
<tr><th>Name</th><th>Submissions</th></tr>
<tr><td><a href="/problems/FLOW001">Add Two Numbers</a></td><td class="num">1</td></tr>
<tr><td><a href="/problems/START01">Number Mirror</a></td></tr>
<tr><td><a href="/problems/EMPTY"></a></td></tr>
</table></body></html>`

func parsePage(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestParseLeetCode(t *testing.T) {
	got := parseLeetCode(parsePage(t, leetCodePage), mustURL(t, "https://leetcode.com"), "array", 10)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	want := problem.Record{
		Title:          "1. Two Sum",
		URL:            "https://leetcode.com/problems/two-sum/",
		Platform:       problem.PlatformLeetCode,
		Difficulty:     "Easy",
		AcceptanceRate: "49.1%",
		Topic:          "array",
	}
	if got[0] != want {
		t.Errorf("first = %+v, want %+v", got[0], want)
	}
	if got[1].Difficulty != problem.UnknownDifficulty || got[1].AcceptanceRate != "N/A" {
		t.Errorf("defaults not applied: %+v", got[1])
	}
	if limited := parseLeetCode(parsePage(t, leetCodePage), mustURL(t, "https://leetcode.com"), "", 1); len(limited) != 1 || limited[0].Topic != "General" {
		t.Errorf("limit 1 = %+v", limited)
	}
}

func TestParseCodeforces(t *testing.T) {
	got := parseCodeforces(parsePage(t, codeforcesPage), mustURL(t, "https://codeforces.com"), "", 10)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Title != "Watermelon" || got[0].Difficulty != "800" || got[0].SolvedCount != "250000" {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].URL != "https://codeforces.com/problemset/problem/4/A" {
		t.Errorf("url = %s", got[0].URL)
	}
	if got[1].Difficulty != "Unrated" || got[1].SolvedCount != "N/A" {
		t.Errorf("short row defaults = %+v", got[1])
	}
	if empty := parseCodeforces(parsePage(t, "<p>maintenance</p>"), mustURL(t, "https://codeforces.com"), "", 10); len(empty) != 0 {
		t.Errorf("page without table produced %+v", empty)
	}
}

func TestParseHackerRank(t *testing.T) {
	got := parseHackerRank(parsePage(t, hackerRankPage), mustURL(t, "https://www.hackerrank.com"), "", 10)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Title != "Solve Me First" || got[0].Difficulty != "Easy" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Title != "Simple Array Sum" || got[1].Difficulty != "Medium" {
		t.Errorf("second = %+v", got[1])
	}
	if got[1].Domain != "algorithms" || got[1].Topic != "algorithms" {
		t.Errorf("domain = %q topic = %q", got[1].Domain, got[1].Topic)
	}
}

func TestParseCodeChef(t *testing.T) {
	got := parseCodeChef(parsePage(t, codeChefPage), mustURL(t, "https://www.codechef.com"), "", 10)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(got), got)
	}
	if got[0].Difficulty != "1" || got[1].Difficulty != "School" || got[1].Topic != "School" {
		t.Errorf("records = %+v", got)
	}
	if got[0].URL != "https://www.codechef.com/problems/FLOW001" {
		t.Errorf("url = %s", got[0].URL)
	}
}

func TestNewUnknownPlatform(t *testing.T) {
	_, err := New("topcoder", "", NewFetcher(FetcherConfig{}, nil))
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	_, err = New(KeyLeetCode, "not a url", NewFetcher(FetcherConfig{}, nil))
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("bad base err = %v, want ErrInvalidInput", err)
	}
}

func testFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{
		UserAgent:      "problem-search-test",
		RequestTimeout: 2 * time.Second,
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	}, nil)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "problem-search-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), KeyLeetCode, srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Errorf("body = %q after %d calls", body, calls.Load())
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), KeyCodeChef, srv.URL)
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func siteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/problemset", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tags"); got != "greedy" {
			t.Errorf("tags = %q, want greedy", got)
		}
		w.Write([]byte(codeforcesPage))
	})
	mux.HandleFunc("/problems/school", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(codeChefPage))
	})
	return httptest.NewServer(mux)
}

func runnerConfig(base string) config.ScraperConfig {
	return config.ScraperConfig{
		BaseURLs: map[string]string{
			KeyCodeforces: base,
			KeyCodeChef:   base,
			KeyLeetCode:   base,
		},
		Concurrency:         2,
		LanguagePlaceholder: "Any",
		Jobs: []config.ScrapeJob{
			{Platform: "codeforces", Topic: "greedy", Limit: 10},
			{Platform: "CodeChef", Limit: 10},
		},
	}
}

func TestRunnerRun(t *testing.T) {
	srv := siteServer(t)
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	m := metrics.New()
	r, err := NewRunner(cfg, testFetcher(), m)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	corpus, results, err := r.Run(context.Background(), cfg.Jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(corpus) != 4 {
		t.Fatalf("got %d records, want 4: %+v", len(corpus), corpus)
	}
	if corpus[0].Platform != problem.PlatformCodeforces || corpus[3].Platform != problem.PlatformCodeChef {
		t.Errorf("records not in job order: %+v", corpus)
	}
	for _, rec := range corpus {
		if rec.Language != "Any" {
			t.Errorf("language = %q, want placeholder", rec.Language)
		}
	}
	if results[1].Rejected != 1 || results[1].Records != 2 {
		t.Errorf("codechef result = %+v", results[1])
	}
	if got := testutil.ToFloat64(m.ScrapedRecordsTotal.WithLabelValues(KeyCodeChef)); got != 2 {
		t.Errorf("scraped codechef = %v, want 2", got)
	}
}

func TestRunnerSkipsFailedJobs(t *testing.T) {
	srv := siteServer(t)
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	cfg.Jobs = append(cfg.Jobs, config.ScrapeJob{Platform: "leetcode", Topic: "array", Limit: 5})
	r, err := NewRunner(cfg, testFetcher(), nil)
	if err != nil {
		t.Fatal(err)
	}
	corpus, results, err := r.Run(context.Background(), cfg.Jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(corpus) != 4 {
		t.Errorf("got %d records, want 4", len(corpus))
	}
	if !errors.Is(results[2].Err, apperrors.ErrUpstream) {
		t.Errorf("leetcode err = %v, want ErrUpstream", results[2].Err)
	}
}

func TestRunnerNoRecords(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	r, err := NewRunner(cfg, testFetcher(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Run(context.Background(), cfg.Jobs); !errors.Is(err, apperrors.ErrEmptyCorpus) {
		t.Errorf("err = %v, want ErrEmptyCorpus", err)
	}
}

func TestNewRunnerUnknownPlatform(t *testing.T) {
	cfg := config.ScraperConfig{Jobs: []config.ScrapeJob{{Platform: "spoj"}}}
	if _, err := NewRunner(cfg, testFetcher(), nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func sampleCorpus() problem.Corpus {
	return problem.Corpus{
		{Title: "Two Sum", URL: "https://leetcode.com/problems/two-sum/", Platform: problem.PlatformLeetCode, Difficulty: "Easy", Language: "Any", Topic: "array"},
		{Title: "Watermelon", URL: "https://codeforces.com/problemset/problem/4/A", Platform: problem.PlatformCodeforces, Difficulty: "800", Language: "Any", SolvedCount: "250000"},
		{Title: "Solve Me First", URL: "https://www.hackerrank.com/challenges/solve-me-first/problem", Platform: problem.PlatformHackerRank, Difficulty: "Easy", Domain: "algorithms", Topic: "algorithms"},
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out := config.ScraperOutput{
		JSON:   filepath.Join(dir, "json", "problems.json"),
		CSV:    filepath.Join(dir, "csv", "problems.csv"),
		SQLite: filepath.Join(dir, "db", "problems.db"),
	}
	corpus := sampleCorpus()
	if err := Export(context.Background(), corpus, out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(out.JSON)
	if err != nil {
		t.Fatal(err)
	}
	fromJSON, err := problem.DecodeJSON(bytes.NewReader(data))
	if err != nil || len(fromJSON) != len(corpus) || fromJSON[1] != corpus[1] {
		t.Errorf("json snapshot = %+v, %v", fromJSON, err)
	}

	data, err = os.ReadFile(out.CSV)
	if err != nil {
		t.Fatal(err)
	}
	fromCSV, err := problem.DecodeCSV(bytes.NewReader(data))
	if err != nil || len(fromCSV) != len(corpus) || fromCSV[2] != corpus[2] {
		t.Errorf("csv snapshot = %+v, %v", fromCSV, err)
	}

	fromDB, err := sqlitestore.Load(context.Background(), out.SQLite)
	if err != nil || len(fromDB) != len(corpus) {
		t.Errorf("sqlite snapshot = %+v, %v", fromDB, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "json"))
	if len(entries) != 1 {
		t.Errorf("json dir has %d entries, temp file left behind", len(entries))
	}
}

func TestExportSkipsEmptyPaths(t *testing.T) {
	if err := Export(context.Background(), sampleCorpus(), config.ScraperOutput{}); err != nil {
		t.Errorf("Export with no outputs: %v", err)
	}
}

type batchRecorder struct {
	batches [][]kafka.Event
}

func (b *batchRecorder) PublishBatch(_ context.Context, events []kafka.Event) error {
	b.batches = append(b.batches, events)
	return nil
}

func TestAnnounce(t *testing.T) {
	pub := &batchRecorder{}
	if err := Announce(context.Background(), pub, sampleCorpus(), 2); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if len(pub.batches) != 2 || len(pub.batches[0]) != 2 || len(pub.batches[1]) != 1 {
		t.Fatalf("batches = %+v", pub.batches)
	}
	if pub.batches[1][0].Key != problem.PlatformHackerRank {
		t.Errorf("key = %q, want HackerRank", pub.batches[1][0].Key)
	}
}
