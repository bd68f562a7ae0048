// Package reaper evicts players that stopped talking to the server.
package reaper

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

// DefaultTimeout is how long a session may stay silent.
const DefaultTimeout = 300 * time.Second

type Reaper struct {
	players  *world.PlayerRegistry
	clock    clockwork.Clock
	timeout  time.Duration
	interval time.Duration
	logger   *zap.SugaredLogger
}

// New builds a reaper that sweeps every timeout/3.
func New(players *world.PlayerRegistry, clock clockwork.Clock, timeout time.Duration, logger *zap.SugaredLogger) *Reaper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reaper{
		players:  players,
		clock:    clock,
		timeout:  timeout,
		interval: timeout / 3,
		logger:   logger.Named("reaper"),
	}
}

func (r *Reaper) Interval() time.Duration { return r.interval }

// Sweep logs out every idle player and returns them.
func (r *Reaper) Sweep() []*entity.Player {
	evicted := r.players.EvictIdle(r.clock.Now(), r.timeout)
	for _, p := range evicted {
		r.logger.Infow("auto-dced for inactivity", "player_id", p.ID, "player", p.Name, "last_recv", p.LastRecv())
	}
	return evicted
}

// Run sweeps until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	r.logger.Infow("reaper started", "timeout", r.timeout, "interval", r.interval)
	for {
		r.Sweep()

		t := r.clock.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			r.logger.Info("reaper stopped")
			return nil
		case <-t.Chan():
		}
	}
}
