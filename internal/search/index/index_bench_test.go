package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
)

var benchWords = []string{
	"sum", "tree", "binary", "graph", "path", "shortest", "longest", "subsequence",
	"array", "matrix", "query", "string", "palindrome", "interval", "segment",
	"prime", "divisor", "knapsack", "island", "bridge", "cycle", "flow", "cut",
}

func syntheticCorpus(n int) problem.Corpus {
	c := make(problem.Corpus, n)
	difficulties := []string{"Easy", "Medium", "Hard"}
	for i := range c {
		title := fmt.Sprintf("%s %s %s",
			benchWords[i%len(benchWords)],
			benchWords[(i*7+3)%len(benchWords)],
			benchWords[(i*13+5)%len(benchWords)],
		)
		c[i] = problem.Record{
			Title:      title,
			URL:        fmt.Sprintf("https://example.com/p/%d", i),
			Platform:   problem.PlatformLeetCode,
			Difficulty: difficulties[i%len(difficulties)],
		}
	}
	return c
}

// BenchmarkBuild measures index construction for growing corpora.
func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			c := syntheticCorpus(n)
			norm := normalizer.New()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := FromCorpus(c, norm); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSearch measures one ranked query with and without a filter.
func BenchmarkSearch(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		idx, err := FromCorpus(syntheticCorpus(n), normalizer.New())
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = idx.Search("shortest path in a graph", Filter{})
			}
		})
		b.Run(fmt.Sprintf("docs_%d_filtered", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = idx.Search("shortest path in a graph", Filter{Difficulty: "Hard"})
			}
		})
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	idx, err := FromCorpus(syntheticCorpus(5000), normalizer.New())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = idx.Search("longest palindrome subsequence", Filter{})
		}
	})
}
