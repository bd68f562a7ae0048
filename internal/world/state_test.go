package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

func TestLoginJoinsReadableAutoJoinChannels(t *testing.T) {
	osu := entity.NewChannel(1, "#osu", "general", privileges.Normal, privileges.Verified, true)
	staff := entity.NewChannel(2, "#staff", "staff", privileges.Staff, privileges.Staff, true)
	lobby := entity.NewChannel(3, "#lobby", "multiplayer", privileges.Normal, privileges.Verified, false)
	st := &State{
		Players:  NewPlayerRegistry(),
		Channels: []*entity.Channel{osu, staff, lobby},
	}

	now := time.Unix(1_700_000_000, 0)
	p := entity.NewPlayer(10, "alice", privileges.Normal|privileges.Verified)
	joined := st.Login(p, now)

	require.Len(t, joined, 1)
	assert.Same(t, osu, joined[0])
	assert.True(t, osu.Has(10))
	assert.False(t, staff.Has(10))
	assert.False(t, lobby.Has(10))

	got, ok := st.Players.Get(10)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.True(t, p.Online())
	assert.Equal(t, now, p.LastRecv())

	// a second login does not duplicate memberships
	assert.Empty(t, st.Login(p, now.Add(time.Minute)))
	assert.Equal(t, 1, osu.MemberCount())
}

func TestLoginStaffSeesStaffChannel(t *testing.T) {
	staff := entity.NewChannel(2, "#staff", "staff", privileges.Staff, privileges.Staff, true)
	st := &State{Players: NewPlayerRegistry(), Channels: []*entity.Channel{staff}}

	mod := entity.NewPlayer(11, "mod", privileges.Normal|privileges.Mod)
	assert.Len(t, st.Login(mod, time.Now()), 1)
	assert.True(t, staff.Has(11))
}
