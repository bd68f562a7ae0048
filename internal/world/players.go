package world

import (
	"sort"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

// PlayerRegistry holds online players by id.
//
// Sweeps take the write lock; activity renewals take the read lock and then
// the player's own lock, so a renewal can never interleave with a sweep.
type PlayerRegistry struct {
	mu   sync.RWMutex
	byID map[int64]*entity.Player
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{byID: make(map[int64]*entity.Player)}
}

// Add registers p, replacing any stale entry with the same id.
func (r *PlayerRegistry) Add(p *entity.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
}

func (r *PlayerRegistry) Get(id int64) (*entity.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

func (r *PlayerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// List returns a snapshot ordered by id.
func (r *PlayerRegistry) List() []*entity.Player {
	r.mu.RLock()
	out := make([]*entity.Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Touch renews a player's activity timestamp. It reports false for unknown ids.
func (r *PlayerRegistry) Touch(id int64, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.Touch(now)
	return true
}

// Logout releases the player's memberships and unregisters it.
func (r *PlayerRegistry) Logout(id int64) (*entity.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	p.Logout()
	delete(r.byID, id)
	return p, true
}

// EvictIdle logs out every player idle for longer than timeout, in one
// critical section, and returns them.
func (r *PlayerRegistry) EvictIdle(now time.Time, timeout time.Duration) []*entity.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []*entity.Player
	for id, p := range r.byID {
		if !p.Idle(now, timeout) {
			continue
		}
		p.Logout()
		delete(r.byID, id)
		evicted = append(evicted, p)
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].ID < evicted[j].ID })
	return evicted
}
