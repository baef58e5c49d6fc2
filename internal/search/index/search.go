package index

import (
	"encoding/json"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
)

// MaxResults caps the number of records Search returns.
const MaxResults = 5

// Filter restricts results by exact, case-sensitive field equality. An empty
// field means the filter is not applied.
type Filter struct {
	Difficulty string `json:"difficulty,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Empty reports whether no filter field is set.
func (f Filter) Empty() bool {
	return f.Difficulty == "" && f.Language == ""
}

// Accept reports whether r satisfies every set field of f.
func (f Filter) Accept(r problem.Record) bool {
	if f.Difficulty != "" && r.Difficulty != f.Difficulty {
		return false
	}
	if f.Language != "" && r.Language != f.Language {
		return false
	}
	return true
}

// ScoredRecord is a corpus record annotated with its similarity to a query.
type ScoredRecord struct {
	problem.Record
	Score float64 `json:"score"`
}

// UnmarshalJSON decodes the record fields through problem.Record and then
// the score. Without it the promoted Record method would drop the score.
func (s *ScoredRecord) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &s.Record); err != nil {
		return err
	}
	var score struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &score); err != nil {
		return err
	}
	s.Score = score.Score
	return nil
}

type hit struct {
	pos   int
	score float64
}

// Terms returns the normalized query tokens that exist in the vocabulary.
func (idx *Index) Terms(query string) []string {
	doc := idx.norm.Normalize(query)
	terms := make([]string, 0, len(doc))
	for _, term := range doc {
		if _, ok := idx.vocab.Column(term); ok {
			terms = append(terms, term)
		}
	}
	return terms
}

// NormalizeQuery applies the index's normalizer to query.
func (idx *Index) NormalizeQuery(query string) normalizer.Document {
	return idx.norm.Normalize(query)
}

// Match returns every record with positive similarity to query that passes
// filter, ordered by descending score and then ascending corpus position.
// A query whose normalization shares no term with the vocabulary yields an
// empty, non-nil slice.
func (idx *Index) Match(query string, filter Filter) []ScoredRecord {
	q := idx.weigh(idx.norm.Normalize(query))
	if len(q) == 0 {
		return []ScoredRecord{}
	}
	hits := make([]hit, 0)
	for i, row := range idx.rows {
		score := cosine(q, row)
		if score <= 0 {
			continue
		}
		if !filter.Accept(idx.corpus[i]) {
			continue
		}
		hits = append(hits, hit{pos: i, score: score})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].pos < hits[b].pos
	})
	out := make([]ScoredRecord, len(hits))
	for i, h := range hits {
		out[i] = ScoredRecord{Record: idx.corpus[h.pos], Score: h.score}
	}
	return out
}

// Search returns at most MaxResults records from Match.
func (idx *Index) Search(query string, filter Filter) []ScoredRecord {
	results := idx.Match(query, filter)
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}
