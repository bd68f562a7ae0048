package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type ChannelRow struct {
	ID        int64         `db:"id"`
	Name      string        `db:"name"`
	Topic     string        `db:"topic"`
	ReadPriv  sql.NullInt64 `db:"read_priv"`
	WritePriv sql.NullInt64 `db:"write_priv"`
	AutoJoin  bool          `db:"auto_join"`
}

type PoolRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
	CreatedBy int64  `db:"created_by"`
}

type PoolMapRow struct {
	MapID int64 `db:"map_id"`
	Mods  int   `db:"mods"`
	Slot  int   `db:"slot"`
}

type ClanRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Tag       string `db:"tag"`
	CreatedAt int64  `db:"created_at"`
}

type ClanMemberRow struct {
	ID       int64 `db:"id"`
	ClanRank int   `db:"clan_rank"`
}

type AchievementRow struct {
	ID   int64  `db:"id"`
	File string `db:"file"`
	Name string `db:"name"`
	Desc string `db:"descr"`
	Cond string `db:"cond"`
	Mode int    `db:"mode"`
}

// WorldRepo reads the static world tables loaded at boot.
type WorldRepo struct {
	db *sqlx.DB
}

func NewWorldRepo(db *sqlx.DB) *WorldRepo { return &WorldRepo{db: db} }

func (r *WorldRepo) Channels(ctx context.Context) ([]ChannelRow, error) {
	var rows []ChannelRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, topic, read_priv, write_priv, auto_join FROM channels ORDER BY id`)
	return rows, err
}

func (r *WorldRepo) Pools(ctx context.Context) ([]PoolRow, error) {
	var rows []PoolRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, created_at, created_by FROM tourney_pools ORDER BY id`)
	return rows, err
}

func (r *WorldRepo) PoolMaps(ctx context.Context, poolID int64) ([]PoolMapRow, error) {
	var rows []PoolMapRow
	q := r.db.Rebind(`SELECT map_id, mods, slot FROM tourney_pool_maps WHERE pool_id = ? ORDER BY mods, slot`)
	err := r.db.SelectContext(ctx, &rows, q, poolID)
	return rows, err
}

func (r *WorldRepo) Clans(ctx context.Context) ([]ClanRow, error) {
	var rows []ClanRow
	err := r.db.SelectContext(ctx, &rows, `SELECT id, name, tag, created_at FROM clans ORDER BY id`)
	return rows, err
}

func (r *WorldRepo) ClanMembers(ctx context.Context, clanID int64) ([]ClanMemberRow, error) {
	var rows []ClanMemberRow
	q := r.db.Rebind(`SELECT id, clan_rank FROM users WHERE clan_id = ? ORDER BY id`)
	err := r.db.SelectContext(ctx, &rows, q, clanID)
	return rows, err
}

func (r *WorldRepo) Achievements(ctx context.Context) ([]AchievementRow, error) {
	var rows []AchievementRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, file, name, descr, cond, mode FROM achievements ORDER BY id`)
	return rows, err
}
