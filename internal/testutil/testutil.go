// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"

	_ "modernc.org/sqlite"
)

// NopLogger returns a logger that discards everything.
func NopLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

var dbSeq atomic.Int64

// NewSQLite opens a private in-memory database with the schema applied.
func NewSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bancho_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background(), db))
	return db
}

// Fixture inserts rows through a test database.
type Fixture struct {
	t  *testing.T
	db *sqlx.DB
}

func NewFixture(t *testing.T, db *sqlx.DB) *Fixture { return &Fixture{t: t, db: db} }

func (f *Fixture) exec(q string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(f.db.Rebind(q), args...)
	require.NoError(f.t, err)
}

func (f *Fixture) User(id int64, name string, priv int64) *Fixture {
	f.exec(`INSERT INTO users (id, name, priv) VALUES (?, ?, ?)`, id, name, priv)
	return f
}

func (f *Fixture) ClanMember(userID, clanID int64, rank int) *Fixture {
	f.exec(`UPDATE users SET clan_id = ?, clan_rank = ? WHERE id = ?`, clanID, rank, userID)
	return f
}

func (f *Fixture) Donor(userID, donorEnd int64) *Fixture {
	f.exec(`UPDATE users SET donor_end = ? WHERE id = ?`, donorEnd, userID)
	return f
}

// Channel inserts a channel; a zero read or write privilege is stored as NULL.
func (f *Fixture) Channel(id int64, name, topic string, read, write int64, autoJoin bool) *Fixture {
	f.exec(`INSERT INTO channels (id, name, topic, read_priv, write_priv, auto_join) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, topic, nullable(read), nullable(write), autoJoin)
	return f
}

func (f *Fixture) Pool(id int64, name string, createdAt, createdBy int64) *Fixture {
	f.exec(`INSERT INTO tourney_pools (id, name, created_at, created_by) VALUES (?, ?, ?, ?)`,
		id, name, createdAt, createdBy)
	return f
}

func (f *Fixture) PoolMap(poolID, mapID int64, mods, slot int) *Fixture {
	f.exec(`INSERT INTO tourney_pool_maps (pool_id, map_id, mods, slot) VALUES (?, ?, ?, ?)`,
		poolID, mapID, mods, slot)
	return f
}

func (f *Fixture) Clan(id int64, name, tag string, createdAt int64) *Fixture {
	f.exec(`INSERT INTO clans (id, name, tag, created_at) VALUES (?, ?, ?, ?)`, id, name, tag, createdAt)
	return f
}

func (f *Fixture) Achievement(id int64, file, name, cond string, mode int) *Fixture {
	f.exec(`INSERT INTO achievements (id, file, name, descr, cond, mode) VALUES (?, ?, ?, ?, ?, ?)`,
		id, file, name, name+" unlocked", cond, mode)
	return f
}

func nullable(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
