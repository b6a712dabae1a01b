package database

import (
	"context"
	"database/sql"
	"fmt"
)

var ErrStateKeyNotFound = fmt.Errorf("bot state key not found")

// PostgresBotStateRepository is the persistent key->value map behind
// cross-restart cursors.
type PostgresBotStateRepository struct {
	db *sql.DB
}

func NewPostgresBotStateRepository(db *sql.DB) *PostgresBotStateRepository {
	return &PostgresBotStateRepository{db: db}
}

func (r *PostgresBotStateRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM bot_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrStateKeyNotFound
		}
		return "", fmt.Errorf("error reading bot state %q: %w", key, err)
	}
	return value, nil
}

func (r *PostgresBotStateRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bot_state (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("error writing bot state %q: %w", key, err)
	}
	return nil
}
