package problem

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned when a snapshot is not a sequence of record
// objects.
var ErrMalformed = errors.New("malformed snapshot")

// DecodeJSON reads a JSON array of record objects. Anything else, including
// null elements or fields of the wrong type, is ErrMalformed.
func DecodeJSON(r io.Reader) (Corpus, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrMalformed)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}
	corpus := make(Corpus, 0, len(raw))
	for i, msg := range raw {
		trimmed := bytes.TrimSpace(msg)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformed, i)
		}
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrMalformed, i, err)
		}
		corpus = append(corpus, rec)
	}
	return corpus, nil
}

// EncodeJSON writes the corpus as an indented JSON array.
func EncodeJSON(w io.Writer, corpus Corpus) error {
	if corpus == nil {
		corpus = Corpus{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(corpus); err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}
	return nil
}

// csvColumns is the column order EncodeCSV writes.
var csvColumns = []string{
	"platform", "title", "url", "difficulty", "language", "topic",
	"acceptance_rate", "solved_count", "domain",
}

// EncodeCSV writes a header row followed by one row per record.
func EncodeCSV(w io.Writer, corpus Corpus) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range corpus {
		row := []string{
			r.Platform, r.Title, r.URL, r.Difficulty, r.Language, r.Topic,
			r.AcceptanceRate, r.SolvedCount, r.Domain,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a CSV snapshot. Columns are matched by header name in any
// order; a title column is required and unknown columns are ignored.
func DecodeCSV(r io.Reader) (Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %w", ErrMalformed, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["title"]; !ok {
		return nil, fmt.Errorf("%w: csv has no title column", ErrMalformed)
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	corpus := make(Corpus, 0)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		rec := Record{
			Title:          field(row, "title"),
			URL:            field(row, "url"),
			Platform:       field(row, "platform"),
			Difficulty:     field(row, "difficulty"),
			Language:       field(row, "language"),
			Topic:          field(row, "topic"),
			AcceptanceRate: field(row, "acceptance_rate"),
			SolvedCount:    field(row, "solved_count"),
			Domain:         field(row, "domain"),
		}
		if rec.URL == "" {
			rec.URL = field(row, "link")
		}
		rec.applyDefaults()
		corpus = append(corpus, rec)
	}
	return corpus, nil
}
