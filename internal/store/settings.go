package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Settings reads and writes the settings table through a connection or a
// transaction.
type Settings struct {
	q querier
}

// Settings returns a settings accessor bound to the database connection.
func (s *DB) Settings() Settings {
	return Settings{q: s.db}
}

// Get returns the setting named name, or nil if no such row exists.
func (st Settings) Get(ctx context.Context, name string) (*Setting, error) {
	var row Setting
	err := st.q.QueryRowContext(ctx,
		`SELECT id, name, value FROM settings WHERE name = ?`, name,
	).Scan(&row.ID, &row.Name, &row.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return &row, nil
}

// Set inserts or updates the setting in one statement, so concurrent
// writers of the same name do not conflict.
func (st Settings) Set(ctx context.Context, name, value string) error {
	if _, err := st.q.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value,
	); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", name, err)
	}
	return nil
}

// GetSetting returns the named setting, or nil if absent.
func (s *DB) GetSetting(ctx context.Context, name string) (*Setting, error) {
	return s.Settings().Get(ctx, name)
}
