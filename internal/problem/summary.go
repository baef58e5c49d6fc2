package problem

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Count is a label with the number of records carrying it.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary tallies a corpus by platform, topic and difficulty. Each list is
// ordered by first appearance in the corpus.
type Summary struct {
	Total        int     `json:"total"`
	Platforms    []Count `json:"platforms"`
	Topics       []Count `json:"topics"`
	Difficulties []Count `json:"difficulties"`
}

// Summarize counts records per platform, topic and difficulty. Records with
// no topic are counted under "Unknown".
func Summarize(c Corpus) Summary {
	platforms := newTally()
	topics := newTally()
	difficulties := newTally()
	for _, r := range c {
		platforms.add(r.Platform)
		topic := r.Topic
		if topic == "" {
			topic = "Unknown"
		}
		topics.add(topic)
		difficulties.add(r.Difficulty)
	}
	return Summary{
		Total:        len(c),
		Platforms:    platforms.counts,
		Topics:       topics.counts,
		Difficulties: difficulties.counts,
	}
}

// Print writes a human readable summary. Only the first ten topics are shown.
func (s Summary) Print(w io.Writer) {
	if s.Total == 0 {
		fmt.Fprintln(w, "No problems scraped yet.")
		return
	}
	fmt.Fprintln(w, "\n=== SCRAPING SUMMARY ===")
	fmt.Fprintf(w, "Total problems scraped: %d\n", s.Total)
	fmt.Fprintln(w, "\nBy Platform:")
	for _, c := range s.Platforms {
		fmt.Fprintf(w, "  %s: %d\n", c.Label, c.Count)
	}
	fmt.Fprintln(w, "\nBy Topic:")
	topics := s.Topics
	if len(topics) > 10 {
		topics = topics[:10]
	}
	for _, c := range topics {
		fmt.Fprintf(w, "  %s: %d\n", c.Label, c.Count)
	}
	fmt.Fprintln(w, "\nBy Difficulty:")
	for _, c := range s.Difficulties {
		fmt.Fprintf(w, "  %s: %d\n", c.Label, c.Count)
	}
}

// ByCount returns a copy of counts sorted by count descending, ties by label.
func ByCount(counts []Count) []Count {
	out := make([]Count, len(counts))
	copy(out, counts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// FilterByPlatform returns the records whose platform equals platform.
func FilterByPlatform(c Corpus, platform string) Corpus {
	out := make(Corpus, 0)
	for _, r := range c {
		if r.Platform == platform {
			out = append(out, r)
		}
	}
	return out
}

// FilterByTopic returns the records whose topic contains topic, ignoring case.
func FilterByTopic(c Corpus, topic string) Corpus {
	needle := strings.ToLower(topic)
	out := make(Corpus, 0)
	for _, r := range c {
		if strings.Contains(strings.ToLower(r.Topic), needle) {
			out = append(out, r)
		}
	}
	return out
}

type tally struct {
	pos    map[string]int
	counts []Count
}

func newTally() *tally {
	return &tally{pos: make(map[string]int), counts: make([]Count, 0)}
}

func (t *tally) add(label string) {
	if i, ok := t.pos[label]; ok {
		t.counts[i].Count++
		return
	}
	t.pos[label] = len(t.counts)
	t.counts = append(t.counts, Count{Label: label, Count: 1})
}
