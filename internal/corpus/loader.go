// Package corpus loads a problem snapshot into an ordered problem.Corpus and
// prepares the normalized documents the search index is built from.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem/sqlitestore"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
)

// Format identifies a snapshot encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// DetectFormat picks the snapshot format from the file extension. Unknown
// extensions are read as JSON, the collector's primary format.
func DetectFormat(source string) Format {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		return FormatCSV
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Load reads the snapshot at source. Every failure wraps
// ErrCorpusUnavailable. A snapshot with zero records loads successfully.
func Load(ctx context.Context, source string) (problem.Corpus, error) {
	log := slog.Default().With("component", "corpus-loader")
	if source == "" {
		return nil, fmt.Errorf("%w: no source configured", apperrors.ErrCorpusUnavailable)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrCorpusUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperrors.ErrCorpusUnavailable, source)
	}

	format := DetectFormat(source)
	var c problem.Corpus
	switch format {
	case FormatSQLite:
		c, err = sqlitestore.Load(ctx, source)
	default:
		c, err = decodeFile(source, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", apperrors.ErrCorpusUnavailable, source, err)
	}

	log.Info("corpus loaded", "source", source, "format", string(format), "records", len(c))
	return c, nil
}

func decodeFile(path string, format Format) (problem.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if format == FormatCSV {
		return problem.DecodeCSV(f)
	}
	return problem.DecodeJSON(f)
}

// Documents normalizes every title in corpus order, so documents[i]
// corresponds to c[i].
func Documents(c problem.Corpus, norm *normalizer.Normalizer) []normalizer.Document {
	docs := make([]normalizer.Document, len(c))
	for i, r := range c {
		docs[i] = norm.Normalize(r.Title)
	}
	return docs
}
