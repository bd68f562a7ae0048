// Package donor expires time-limited donor privileges.
package donor

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Revoker removes a player's donor privileges.
type Revoker interface {
	Revoke(ctx context.Context, playerID int64) error
}

// Scheduler holds pending revocations in one delay queue drained by Run.
// Pending entries are not persisted; the next boot re-derives them from the
// users table.
type Scheduler struct {
	clock   clockwork.Clock
	revoker Revoker
	logger  *zap.SugaredLogger

	mu    sync.Mutex
	queue delayQueue
	seq   uint64
	wake  chan struct{}

	inflight sync.WaitGroup
}

func NewScheduler(revoker Revoker, clock clockwork.Clock, logger *zap.SugaredLogger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		revoker: revoker,
		logger:  logger.Named("donor"),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule revokes playerID's donor privileges after delay. A delay <= 0
// fires on the next loop iteration.
func (s *Scheduler) Schedule(playerID int64, delay time.Duration) {
	s.mu.Lock()
	s.seq++
	heap.Push(&s.queue, grant{playerID: playerID, due: s.clock.Now().Add(delay), seq: s.seq})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending is the number of grants not yet due.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Run fires due grants until ctx is cancelled, then waits for in-flight
// revocations. Each revocation runs on its own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infow("donor scheduler started", "pending", s.Pending())
	// revocations already started finish even when shutdown begins
	revokeCtx := context.WithoutCancel(ctx)
	for {
		s.mu.Lock()
		due := s.queue.popDue(s.clock.Now())
		next, ok := s.queue.next()
		s.mu.Unlock()

		for _, g := range due {
			s.inflight.Add(1)
			go s.revoke(revokeCtx, g.playerID)
		}

		var (
			timer   clockwork.Timer
			timeout <-chan time.Time
		)
		if ok {
			timer = s.clock.NewTimer(next.Sub(s.clock.Now()))
			timeout = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.inflight.Wait()
			s.logger.Infow("donor scheduler stopped", "abandoned", s.Pending())
			return nil
		case <-s.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (s *Scheduler) revoke(ctx context.Context, playerID int64) {
	defer s.inflight.Done()
	if err := s.revoker.Revoke(ctx, playerID); err != nil {
		s.logger.Warnw("donor revoke failed", "player_id", playerID, "error", err)
	}
}
