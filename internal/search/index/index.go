// Package index builds a TF-IDF term-weight matrix over a problem corpus and
// answers ranked title queries against it.
//
// An Index is built once and never mutated afterwards. Build must complete
// before the Index is shared with query goroutines; after that Search may be
// called concurrently without further synchronisation.
package index

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
)

// Vocabulary maps every term seen at build time to a column and holds the
// smoothed inverse document frequency of each column.
type Vocabulary struct {
	columns map[string]int
	terms   []string
	idf     []float64
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Column returns the column of term and whether the term is known.
func (v *Vocabulary) Column(term string) (int, bool) {
	col, ok := v.columns[term]
	return col, ok
}

// IDF returns the inverse document frequency of term, or 0 if unknown.
func (v *Vocabulary) IDF(term string) float64 {
	col, ok := v.columns[term]
	if !ok {
		return 0
	}
	return v.idf[col]
}

// Terms returns the vocabulary in column order, which is lexicographic.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index is the immutable snapshot produced by Build: the corpus, its
// normalized documents, the vocabulary and one L2-normalized TF-IDF row per
// record. Row i, document i and record i describe the same problem.
type Index struct {
	corpus      problem.Corpus
	docs        []normalizer.Document
	vocab       *Vocabulary
	rows        []vector
	norm        *normalizer.Normalizer
	fingerprint string
	emptyDocs   int
}

// Stats summarises a built Index.
type Stats struct {
	Documents      int    `json:"documents"`
	Vocabulary     int    `json:"vocabulary"`
	EmptyDocuments int    `json:"empty_documents"`
	NonZero        int    `json:"non_zero"`
	Fingerprint    string `json:"fingerprint"`
}

// Build fits the vocabulary and term-weight matrix. docs[i] must be the
// normalization of corpus[i].Title produced by norm; norm is retained and
// used for every query so build and query normalization cannot diverge.
//
// It returns ErrEmptyCorpus for a corpus with no records.
func Build(corpus problem.Corpus, docs []normalizer.Document, norm *normalizer.Normalizer) (*Index, error) {
	if len(corpus) == 0 {
		return nil, apperrors.ErrEmptyCorpus
	}
	if len(docs) != len(corpus) {
		return nil, fmt.Errorf("%w: %d documents for %d records", apperrors.ErrInvalidInput, len(docs), len(corpus))
	}
	if norm == nil {
		return nil, fmt.Errorf("%w: nil normalizer", apperrors.ErrInvalidInput)
	}

	docFreq := make(map[string]int)
	emptyDocs := 0
	for _, doc := range docs {
		if doc.Empty() {
			emptyDocs++
			continue
		}
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	vocab := &Vocabulary{
		columns: make(map[string]int, len(docFreq)),
		terms:   make([]string, 0, len(docFreq)),
	}
	for term := range docFreq {
		vocab.terms = append(vocab.terms, term)
	}
	sort.Strings(vocab.terms)
	vocab.idf = make([]float64, len(vocab.terms))
	n := float64(len(corpus))
	for col, term := range vocab.terms {
		vocab.columns[term] = col
		vocab.idf[col] = smoothIDF(n, float64(docFreq[term]))
	}

	idx := &Index{
		corpus:    corpus,
		docs:      docs,
		vocab:     vocab,
		rows:      make([]vector, len(docs)),
		norm:      norm,
		emptyDocs: emptyDocs,
	}
	for i, doc := range docs {
		idx.rows[i] = idx.weigh(doc)
	}
	idx.fingerprint = fingerprint(corpus, docs)
	return idx, nil
}

// FromCorpus normalizes every title with norm and builds the Index.
func FromCorpus(c problem.Corpus, norm *normalizer.Normalizer) (*Index, error) {
	if norm == nil {
		norm = normalizer.New()
	}
	return Build(c, corpus.Documents(c, norm), norm)
}

// weigh projects a normalized document into the vocabulary space: raw term
// counts times IDF, L2-normalized. Unknown terms are ignored.
func (idx *Index) weigh(doc normalizer.Document) vector {
	if doc.Empty() {
		return nil
	}
	counts := make(map[int]int, len(doc))
	for _, term := range doc {
		if col, ok := idx.vocab.Column(term); ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	v := make(vector, 0, len(counts))
	for col, tf := range counts {
		v = append(v, entry{Col: col, Weight: float64(tf) * idx.vocab.idf[col]})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Col < v[j].Col })
	v.normalize()
	return v
}

// Len returns the number of records in the index.
func (idx *Index) Len() int { return len(idx.corpus) }

// Vocabulary returns the fitted vocabulary.
func (idx *Index) Vocabulary() *Vocabulary { return idx.vocab }

// Normalizer returns the normalizer the index was built with.
func (idx *Index) Normalizer() *normalizer.Normalizer { return idx.norm }

// Record returns record i of the corpus.
func (idx *Index) Record(i int) problem.Record { return idx.corpus[i] }

// Document returns the normalized title of record i.
func (idx *Index) Document(i int) normalizer.Document { return idx.docs[i] }

// Fingerprint identifies the indexed content. Two indexes built from the
// same records and documents share a fingerprint.
func (idx *Index) Fingerprint() string { return idx.fingerprint }

// Stats reports sizes of the built index.
func (idx *Index) Stats() Stats {
	nnz := 0
	for _, row := range idx.rows {
		nnz += len(row)
	}
	return Stats{
		Documents:      len(idx.corpus),
		Vocabulary:     idx.vocab.Len(),
		EmptyDocuments: idx.emptyDocs,
		NonZero:        nnz,
		Fingerprint:    idx.fingerprint,
	}
}

// smoothIDF is ln((1+n)/(1+df)) + 1. The +1 terms keep every weight
// positive, including for terms present in every document.
func smoothIDF(n, df float64) float64 {
	return math.Log((1+n)/(1+df)) + 1
}

func fingerprint(corpus problem.Corpus, docs []normalizer.Document) string {
	h := sha256.New()
	var lenBuf [8]byte
	write := func(s string) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	for i, r := range corpus {
		write(r.Title)
		write(r.URL)
		write(r.Platform)
		write(r.Difficulty)
		write(r.Language)
		write(r.Topic)
		write(docs[i].String())
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
