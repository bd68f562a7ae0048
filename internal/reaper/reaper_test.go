package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/testutil"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

func login(reg *world.PlayerRegistry, id int64, at time.Time) *entity.Player {
	p := entity.NewPlayer(id, "player", privileges.Normal)
	p.MarkOnline(at)
	reg.Add(p)
	return p
}

func TestSweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := world.NewPlayerRegistry()
	reg.Add(entity.NewBot("Aika"))
	idle := login(reg, 10, clock.Now())
	clock.Advance(200 * time.Second)
	active := login(reg, 11, clock.Now())
	clock.Advance(150 * time.Second)

	r := New(reg, clock, 300*time.Second, testutil.NopLogger())
	evicted := r.Sweep()

	require.Len(t, evicted, 1)
	assert.Same(t, idle, evicted[0])
	_, ok := reg.Get(active.ID)
	assert.True(t, ok)
	_, ok = reg.Get(entity.BotID)
	assert.True(t, ok)
	assert.Equal(t, 100*time.Second, r.Interval())
}

func TestRunEvictsOnSchedule(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := world.NewPlayerRegistry()
	login(reg, 10, clock.Now())

	r := New(reg, clock, 300*time.Second, testutil.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// first sweep runs immediately, then waits on the interval timer
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
		assert.Equal(t, 1, reg.Len())
		clock.Advance(100 * time.Second)
	}
	// 300s have passed; one more interval crosses the timeout
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(100 * time.Second)
	require.Eventually(t, func() bool { return reg.Len() == 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not stop")
	}
}
