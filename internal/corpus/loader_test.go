package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem/sqlitestore"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"data/problems.json":   FormatJSON,
		"data/problems.CSV":    FormatCSV,
		"data/problems.db":     FormatSQLite,
		"data/problems.sqlite": FormatSQLite,
		"data/problems":        FormatJSON,
	}
	for in, want := range tests {
		if got := DetectFormat(in); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "problems.json", `[
		{"title": "Two Sum", "url": "https://leetcode.com/problems/two-sum/", "platform": "LeetCode", "difficulty": "Easy", "language": "C++"},
		{"title": "Sum of Two Numbers", "url": "https://codeforces.com/problemset/problem/1/A", "platform": "Codeforces", "difficulty": "Medium"}
	]`)
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 || c[0].Title != "Two Sum" || c[1].Title != "Sum of Two Numbers" {
		t.Fatalf("corpus = %+v", c)
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "problems.csv", "title,url,platform,difficulty\nTwo Sum,https://leetcode.com/problems/two-sum/,LeetCode,Easy\n")
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 1 || c[0].Difficulty != "Easy" {
		t.Fatalf("corpus = %+v", c)
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.db")
	want := problem.Corpus{
		{Title: "Two Sum", URL: "https://leetcode.com/problems/two-sum/", Platform: problem.PlatformLeetCode, Difficulty: "Easy"},
	}
	if err := sqlitestore.Save(context.Background(), path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 1 || c[0] != want[0] {
		t.Fatalf("corpus = %+v", c)
	}
}

func TestLoadEmptyArray(t *testing.T) {
	path := writeFile(t, "problems.json", `[]`)
	c, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLoadUnavailable(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"missing":       filepath.Join(dir, "nope.json"),
		"missing db":    filepath.Join(dir, "nope.db"),
		"directory":     dir,
		"empty source":  "",
		"malformed":     writeFile(t, "bad.json", `{"title": "Two Sum"}`),
		"csv no title":  writeFile(t, "bad.csv", "url,platform\nhttps://x,LeetCode\n"),
		"not json":      writeFile(t, "bad2.json", `not json at all`),
		"wrong element": writeFile(t, "bad3.json", `[1, 2, 3]`),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), path)
			if !errors.Is(err, apperrors.ErrCorpusUnavailable) {
				t.Fatalf("err = %v, want ErrCorpusUnavailable", err)
			}
		})
	}
	if _, err := os.Stat(filepath.Join(dir, "nope.db")); !os.IsNotExist(err) {
		t.Error("loading a missing sqlite snapshot created a file")
	}
}

func TestDocuments(t *testing.T) {
	c := problem.Corpus{{Title: "Two Sum"}, {Title: ""}, {Title: "Sum of Two Numbers"}}
	docs := Documents(c, normalizer.New())
	if len(docs) != 3 {
		t.Fatalf("len = %d", len(docs))
	}
	if docs[0].String() != "two sum" || !docs[1].Empty() || docs[2].String() != "sum two number" {
		t.Errorf("docs = %v", docs)
	}
}
