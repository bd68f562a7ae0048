package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Portable between Postgres and SQLite; timestamps are unix seconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  priv BIGINT NOT NULL DEFAULT 1,
  clan_id BIGINT NOT NULL DEFAULT 0,
  clan_rank INT NOT NULL DEFAULT 0,
  donor_end BIGINT NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_users_clan_id ON users(clan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_donor_end ON users(donor_end)`,
	`CREATE TABLE IF NOT EXISTS channels (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  topic TEXT NOT NULL DEFAULT '',
  read_priv BIGINT,
  write_priv BIGINT,
  auto_join BOOLEAN NOT NULL DEFAULT false
)`,
	`CREATE TABLE IF NOT EXISTS tourney_pools (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  created_by BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tourney_pool_maps (
  pool_id BIGINT NOT NULL,
  map_id BIGINT NOT NULL,
  mods INT NOT NULL,
  slot INT NOT NULL,
  PRIMARY KEY (pool_id, mods, slot)
)`,
	`CREATE TABLE IF NOT EXISTS clans (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  tag TEXT NOT NULL UNIQUE,
  created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS achievements (
  id BIGINT PRIMARY KEY,
  file TEXT NOT NULL,
  name TEXT NOT NULL,
  descr TEXT NOT NULL DEFAULT '',
  cond TEXT NOT NULL,
  mode INT NOT NULL
)`,
}

// EnsureSchema creates the tables if not exists (idempotent).
// This is a convenience for development and tests; prefer migrations in production.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
