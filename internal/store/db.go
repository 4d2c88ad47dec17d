// Package store persists the normalized sales model in Postgres and serves
// the read queries used by the analytics calculators.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bizpulse/internal/config"
)

// NewDB opens a Postgres connection pool using the pgx stdlib driver.
func NewDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return db, nil
}

// CloseDB closes the connection pool, logging is left to the caller.
func CloseDB(_ context.Context, db *sql.DB) error {
	return db.Close()
}
