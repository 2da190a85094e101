// Package sqlitestore persists session keys in a single SQLite table.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
)

const schema = `CREATE TABLE IF NOT EXISTS session_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var _ sessions.Storage = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and ensures the table.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sqlitestore Open] open")
	}
	// A single connection keeps in-memory databases consistent and serialises
	// writers, which is all a session needs.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.Wrapf(err, "[sqlitestore Open] create table")
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrStorageKeyNotFound
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "[sqlitestore Get] %s", key)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return apperrors.Wrapf(err, "[sqlitestore Set] %s", key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key = ?`, key)
	return apperrors.Wrapf(err, "[sqlitestore Delete] %s", key)
}

func (s *Store) Close() error {
	return s.db.Close()
}
