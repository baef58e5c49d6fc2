// Package problem defines the competitive-programming problem record, the
// ordered corpus built from a snapshot, and the JSON and CSV snapshot codecs.
package problem

import (
	"encoding/json"
	"fmt"
)

// UnknownDifficulty is stored when the source page carries no difficulty.
const UnknownDifficulty = "Unknown"

// Platform names as written by the scrapers.
const (
	PlatformLeetCode   = "LeetCode"
	PlatformCodeforces = "Codeforces"
	PlatformHackerRank = "HackerRank"
	PlatformCodeChef   = "CodeChef"
)

// Record is a single problem listing. Records are immutable once loaded;
// identity is the position in the Corpus.
type Record struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Platform   string `json:"platform"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language,omitempty"`
	Topic      string `json:"topic,omitempty"`

	AcceptanceRate string `json:"acceptance_rate,omitempty"`
	SolvedCount    string `json:"solved_count,omitempty"`
	Domain         string `json:"domain,omitempty"`
}

// recordJSON mirrors Record on the wire and also accepts "link", which the
// older collector wrote instead of "url".
type recordJSON struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Link           string `json:"link"`
	Platform       string `json:"platform"`
	Difficulty     string `json:"difficulty"`
	Language       string `json:"language"`
	Topic          string `json:"topic"`
	AcceptanceRate string `json:"acceptance_rate"`
	SolvedCount    string `json:"solved_count"`
	Domain         string `json:"domain"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		Title:          raw.Title,
		URL:            raw.URL,
		Platform:       raw.Platform,
		Difficulty:     raw.Difficulty,
		Language:       raw.Language,
		Topic:          raw.Topic,
		AcceptanceRate: raw.AcceptanceRate,
		SolvedCount:    raw.SolvedCount,
		Domain:         raw.Domain,
	}
	if r.URL == "" {
		r.URL = raw.Link
	}
	r.applyDefaults()
	return nil
}

func (r *Record) applyDefaults() {
	if r.Difficulty == "" {
		r.Difficulty = UnknownDifficulty
	}
}

func (r Record) String() string {
	return fmt.Sprintf("%s [%s] (%s)", r.Title, r.Difficulty, r.Platform)
}

// Corpus is the ordered set of records loaded at startup. Index positions
// are the join key with normalized documents and index rows.
type Corpus []Record

// Len returns the number of records.
func (c Corpus) Len() int { return len(c) }
