// Package normalizer turns problem titles and queries into normalized token
// sequences. It lower-cases input, splits on non-alphanumeric boundaries,
// removes stop-words and reduces each token to a canonical lemma.
//
// The same Normalizer must be used for building an index and for querying
// it; the index keeps a reference to enforce that.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

// Document is the normalized form of one title or query.
type Document []string

// String joins the tokens with single spaces.
func (d Document) String() string {
	return strings.Join(d, " ")
}

// Empty reports whether normalization left no tokens.
func (d Document) Empty() bool {
	return len(d) == 0
}

// Normalizer holds the fixed stop-word and irregular-lemma tables. A
// Normalizer is never mutated after New and is safe for concurrent use.
type Normalizer struct {
	stopWords map[string]struct{}
	irregular map[string]string
	minLength int
}

// Option customises a Normalizer at construction.
type Option func(*Normalizer)

// WithStopWords adds extra stop-words to the default table.
func WithStopWords(words ...string) Option {
	return func(n *Normalizer) {
		for _, w := range words {
			n.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithMinLength sets the minimum token length in runes. Tokens shorter than
// this are dropped before stop-word removal. The default is 2.
func WithMinLength(runes int) Option {
	return func(n *Normalizer) {
		n.minLength = runes
	}
}

// New returns a Normalizer with the default English tables.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		stopWords: make(map[string]struct{}, len(englishStopWords)),
		irregular: make(map[string]string, len(irregularForms)),
		minLength: 2,
	}
	for _, w := range englishStopWords {
		n.stopWords[w] = struct{}{}
	}
	for form, lemma := range irregularForms {
		n.irregular[form] = lemma
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the normalized tokens of text in their original order.
// It is a pure function of text and the Normalizer's tables.
func (n *Normalizer) Normalize(text string) Document {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	doc := make(Document, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < n.minLength {
			continue
		}
		if n.IsStopWord(word) {
			continue
		}
		lemma := n.Lemma(word)
		if lemma == "" || n.IsStopWord(lemma) {
			continue
		}
		doc = append(doc, lemma)
	}
	return doc
}

// IsStopWord reports whether the lower-cased word is in the stop-word table.
func (n *Normalizer) IsStopWord(word string) bool {
	_, ok := n.stopWords[word]
	return ok
}

// Lemma reduces a lower-cased word to its canonical form. Irregular plurals
// are mapped first so that they share a stem with their singular.
func (n *Normalizer) Lemma(word string) string {
	if base, ok := n.irregular[word]; ok {
		word = base
	}
	return english.Stem(word, false)
}
