// Package sqlite keeps diary entries in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under autosave bursts
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "sqlite" }

// Get prefers the canonical row and falls back to a legacy unpadded one
func (s *Store) Get(ctx context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	spellings := date.Spellings()
	legacy := spellings[len(spellings)-1]

	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM entries WHERE owner = ? AND date IN (?, ?)
		 ORDER BY CASE WHEN date = ? THEN 0 ELSE 1 END LIMIT 1`,
		string(owner), spellings[0], legacy, spellings[0],
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: get %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}
	return &domain.DiaryEntry{Date: domain.DateKey(spellings[0]), Content: content, Exists: true}, nil
}

// Put writes the canonical row and drops a legacy one for the same day
func (s *Store) Put(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	spellings := date.Spellings()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: put %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (owner, date, content) VALUES (?, ?, ?)
		 ON CONFLICT(owner, date) DO UPDATE SET content = excluded.content`,
		string(owner), spellings[0], content,
	); err != nil {
		return fmt.Errorf("sqlite store: put %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}
	for _, legacy := range spellings[1:] {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE owner = ? AND date = ?`, string(owner), legacy,
		); err != nil {
			return fmt.Errorf("sqlite store: put %s: %w: %w", date, domain.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: put %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date FROM entries WHERE owner = ?`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("sqlite store: dates: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	raw := make([]string, 0)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("sqlite store: scan date: %w", err)
		}
		raw = append(raw, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: dates: %w: %w", domain.ErrStoreUnavailable, err)
	}

	// lexical ORDER BY would misplace unpadded legacy rows
	return domain.UniqueDateKeys(raw), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
