package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/testutil"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := testutil.NewSQLite(t)
	require.NoError(t, repo.EnsureSchema(context.Background(), db))
}

func TestUserRepo(t *testing.T) {
	db := testutil.NewSQLite(t)
	testutil.NewFixture(t, db).
		User(3, "cookiezi", 1|2|16|32).
		User(4, "rafis", 1|2).
		User(5, "mrekk", 1|2|16).
		Donor(3, 2_000).
		Donor(4, 500).
		Donor(5, 900)
	users := repo.NewUserRepo(db)
	ctx := context.Background()

	u, err := users.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "cookiezi", u.Name)
	assert.EqualValues(t, 51, u.Priv)

	_, err = users.GetByID(ctx, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// 3 is in the future, 5 lapsed but still has the bit, 4 lapsed and clean
	grants, err := users.DonorGrants(ctx, 1_000, 16|32)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, repo.DonorRow{ID: 5, DonorEnd: 900}, grants[0])
	assert.Equal(t, repo.DonorRow{ID: 3, DonorEnd: 2_000}, grants[1])

	require.NoError(t, users.RemovePrivileges(ctx, 3, 16|32))
	u, err = users.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, u.Priv)
}

func TestWorldRepo(t *testing.T) {
	db := testutil.NewSQLite(t)
	testutil.NewFixture(t, db).
		User(2, "owner", 3).
		ClanMember(2, 7, 3).
		Channel(2, "#lobby", "multi", 0, 0, false).
		Channel(1, "#osu", "general", 1, 4, true).
		Pool(1, "OWC", 100, 2).
		PoolMap(1, 30, 8, 2).
		PoolMap(1, 10, 0, 1).
		PoolMap(1, 20, 8, 1).
		Clan(7, "Team", "TM", 50).
		Achievement(1, "osu-skill-pass-1", "Rising Star", "score.sr >= 1", 0)
	world := repo.NewWorldRepo(db)
	ctx := context.Background()

	chans, err := world.Channels(ctx)
	require.NoError(t, err)
	require.Len(t, chans, 2)
	assert.Equal(t, "#osu", chans[0].Name)
	assert.True(t, chans[0].AutoJoin)
	assert.False(t, chans[1].ReadPriv.Valid)

	maps, err := world.PoolMaps(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []repo.PoolMapRow{
		{MapID: 10, Mods: 0, Slot: 1},
		{MapID: 20, Mods: 8, Slot: 1},
		{MapID: 30, Mods: 8, Slot: 2},
	}, maps)

	members, err := world.ClanMembers(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []repo.ClanMemberRow{{ID: 2, ClanRank: 3}}, members)

	achs, err := world.Achievements(ctx)
	require.NoError(t, err)
	require.Len(t, achs, 1)
	assert.Equal(t, "Rising Star unlocked", achs[0].Desc)
}
