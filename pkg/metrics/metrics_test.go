package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryIsolated(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())
	a.CacheHitsTotal.Inc()
	if got := testutil.ToFloat64(a.CacheHitsTotal); got != 1 {
		t.Errorf("a hits = %v", got)
	}
	if got := testutil.ToFloat64(b.CacheHitsTotal); got != 0 {
		t.Errorf("b hits = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.CorpusRecords.Set(42)
	m.SearchQueriesTotal.WithLabelValues("api", "match").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"problemsearch_corpus_records 42",
		`problemsearch_search_queries_total{endpoint="api",outcome="match"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
