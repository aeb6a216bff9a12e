package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStorage persists session entries in the session_kv table. Several
// consoles can share one database by using different profiles.
type PGStorage struct {
	db      queryable
	profile string
}

// NewPGStorage returns a storage using db (usually a *pgxpool.Pool).
func NewPGStorage(db queryable, profile string) *PGStorage {
	if profile == "" {
		profile = "default"
	}
	return &PGStorage{db: db, profile: profile}
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session_kv (
    profile    VARCHAR(64)  NOT NULL,
    key        VARCHAR(64)  NOT NULL,
    value      TEXT         NOT NULL,
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    PRIMARY KEY (profile, key)
)`

// EnsureSchema creates the session_kv table if it does not exist.
func (s *PGStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, sessionSchema); err != nil {
		return fmt.Errorf("create session_kv table: %w", err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM session_kv WHERE profile = $1 AND key = $2`,
		s.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PGStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_kv (profile, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.profile, key, value)
	if err != nil {
		return fmt.Errorf("write session %s: %w", key, err)
	}
	return nil
}

func (s *PGStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM session_kv WHERE profile = $1 AND key = $2`, s.profile, key)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}
