package problem

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const sampleJSON = `[
  {"title": "Two Sum", "url": "https://leetcode.com/problems/two-sum/", "platform": "LeetCode", "difficulty": "Easy", "language": "C++", "topic": "array"},
  {"title": "Sum of Two Numbers", "link": "https://codeforces.com/problemset/problem/1/A", "platform": "Codeforces", "language": "Python"}
]`

func TestDecodeJSON(t *testing.T) {
	corpus, err := DecodeJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if corpus.Len() != 2 {
		t.Fatalf("len = %d, want 2", corpus.Len())
	}
	if corpus[0].Title != "Two Sum" || corpus[0].Difficulty != "Easy" {
		t.Errorf("record 0 = %+v", corpus[0])
	}
	if corpus[1].URL != "https://codeforces.com/problemset/problem/1/A" {
		t.Errorf("link alias not applied: %+v", corpus[1])
	}
	if corpus[1].Difficulty != UnknownDifficulty {
		t.Errorf("missing difficulty = %q, want %q", corpus[1].Difficulty, UnknownDifficulty)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":      `title: two sum`,
		"object":        `{"title": "Two Sum"}`,
		"null":          `null`,
		"string items":  `["Two Sum"]`,
		"null item":     `[null]`,
		"wrong type":    `[{"title": 42}]`,
		"truncated":     `[{"title": "Two Sum"}`,
		"trailing data": `[] []`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(input))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecodeJSONEmptyArray(t *testing.T) {
	corpus, err := DecodeJSON(strings.NewReader(`[]`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if corpus.Len() != 0 {
		t.Fatalf("len = %d, want 0", corpus.Len())
	}
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	corpus, err := DecodeJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, corpus); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	back, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	for i := range corpus {
		if back[i] != corpus[i] {
			t.Errorf("record %d: got %+v, want %+v", i, back[i], corpus[i])
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	corpus := Corpus{
		{Title: "Two Sum", URL: "https://leetcode.com/problems/two-sum/", Platform: PlatformLeetCode, Difficulty: "Easy", AcceptanceRate: "49.1%"},
		{Title: "Watermelon, again", URL: "https://codeforces.com/problemset/problem/4/A", Platform: PlatformCodeforces, Difficulty: "800", SolvedCount: "x250000"},
	}
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, corpus); err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	back, err := DecodeCSV(&buf)
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(back) != len(corpus) {
		t.Fatalf("len = %d, want %d", len(back), len(corpus))
	}
	for i := range corpus {
		if back[i] != corpus[i] {
			t.Errorf("record %d: got %+v, want %+v", i, back[i], corpus[i])
		}
	}
}

func TestDecodeCSVRequiresTitle(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("platform,url\nLeetCode,https://x\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestDecodeCSVDefaultsDifficulty(t *testing.T) {
	corpus, err := DecodeCSV(strings.NewReader("title,link\nTwo Sum,https://example.com/1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if corpus[0].Difficulty != UnknownDifficulty || corpus[0].URL != "https://example.com/1" {
		t.Errorf("record = %+v", corpus[0])
	}
}

func TestValidate(t *testing.T) {
	good := Record{Title: "Two Sum", URL: "https://leetcode.com/problems/two-sum/", Platform: PlatformLeetCode}
	if err := Validate(good); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	bad := Record{Title: "  ", URL: "/problems/two-sum", Platform: "TopCoder"}
	err := Validate(bad)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	for _, field := range []string{"title", "url", "platform"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing %s error in %v", field, verr.Fields)
		}
	}
}

func TestSummarize(t *testing.T) {
	corpus := Corpus{
		{Title: "A", Platform: PlatformLeetCode, Topic: "array", Difficulty: "Easy"},
		{Title: "B", Platform: PlatformLeetCode, Topic: "string", Difficulty: "Medium"},
		{Title: "C", Platform: PlatformCodeChef, Difficulty: "School"},
		{Title: "D", Platform: PlatformLeetCode, Topic: "array", Difficulty: "Easy"},
	}
	s := Summarize(corpus)
	if s.Total != 4 {
		t.Errorf("total = %d", s.Total)
	}
	if s.Platforms[0] != (Count{Label: PlatformLeetCode, Count: 3}) {
		t.Errorf("platforms = %+v", s.Platforms)
	}
	if s.Topics[2] != (Count{Label: "Unknown", Count: 1}) {
		t.Errorf("topics = %+v", s.Topics)
	}

	var buf bytes.Buffer
	s.Print(&buf)
	if !strings.Contains(buf.String(), "Total problems scraped: 4") {
		t.Errorf("summary output:\n%s", buf.String())
	}

	var empty bytes.Buffer
	Summarize(nil).Print(&empty)
	if !strings.Contains(empty.String(), "No problems scraped yet.") {
		t.Errorf("empty summary output: %q", empty.String())
	}
}

func TestFilters(t *testing.T) {
	corpus := Corpus{
		{Title: "A", Platform: PlatformLeetCode, Topic: "dynamic-programming"},
		{Title: "B", Platform: PlatformCodeforces, Topic: "DP"},
		{Title: "C", Platform: PlatformCodeforces, Topic: "graphs"},
	}
	if got := FilterByPlatform(corpus, PlatformCodeforces); len(got) != 2 {
		t.Errorf("FilterByPlatform = %+v", got)
	}
	if got := FilterByTopic(corpus, "dp"); len(got) != 1 || got[0].Title != "B" {
		t.Errorf("FilterByTopic = %+v", got)
	}
	if got := FilterByTopic(corpus, "PROGRAM"); len(got) != 1 || got[0].Title != "A" {
		t.Errorf("FilterByTopic case-insensitive = %+v", got)
	}
	counts := ByCount([]Count{{"b", 1}, {"a", 1}, {"c", 3}})
	if counts[0].Label != "c" || counts[1].Label != "a" {
		t.Errorf("ByCount = %+v", counts)
	}
}
