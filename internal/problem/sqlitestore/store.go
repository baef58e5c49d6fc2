// Package sqlitestore reads and writes problem snapshots as SQLite files.
// A snapshot is written once by the scraper and read once at startup; the
// position column keeps corpus order stable across the round trip.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/problem"
)

const schema = `
CREATE TABLE IF NOT EXISTS problems (
	position        INTEGER PRIMARY KEY,
	title           TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	platform        TEXT NOT NULL DEFAULT '',
	difficulty      TEXT NOT NULL DEFAULT '',
	language        TEXT NOT NULL DEFAULT '',
	topic           TEXT NOT NULL DEFAULT '',
	acceptance_rate TEXT NOT NULL DEFAULT '',
	solved_count    TEXT NOT NULL DEFAULT '',
	domain          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_problems_platform ON problems(platform);`

// Save replaces the contents of the snapshot at path with corpus.
func Save(ctx context.Context, path string, corpus problem.Corpus) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating problems table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM problems`); err != nil {
		return fmt.Errorf("clearing problems: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO problems (position, title, url, platform, difficulty, language, topic, acceptance_rate, solved_count, domain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range corpus {
		if _, err := stmt.ExecContext(ctx, i, r.Title, r.URL, r.Platform, r.Difficulty,
			r.Language, r.Topic, r.AcceptanceRate, r.SolvedCount, r.Domain); err != nil {
			return fmt.Errorf("inserting problem %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load reads every problem from the snapshot at path in position order.
func Load(ctx context.Context, path string) (problem.Corpus, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT title, url, platform, difficulty, language, topic, acceptance_rate, solved_count, domain
		FROM problems ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying problems: %w", err)
	}
	defer rows.Close()

	corpus := make(problem.Corpus, 0)
	for rows.Next() {
		var r problem.Record
		if err := rows.Scan(&r.Title, &r.URL, &r.Platform, &r.Difficulty, &r.Language,
			&r.Topic, &r.AcceptanceRate, &r.SolvedCount, &r.Domain); err != nil {
			return nil, fmt.Errorf("scanning problem row: %w", err)
		}
		if r.Difficulty == "" {
			r.Difficulty = problem.UnknownDifficulty
		}
		corpus = append(corpus, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating problem rows: %w", err)
	}
	return corpus, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite snapshot %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
