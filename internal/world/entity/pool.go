package entity

import "time"

// PoolEntry assigns a beatmap to a (mods, slot) position of a pool, e.g. HD2.
type PoolEntry struct {
	MapID int64
	Mods  int
	Slot  int
}

// MapPool is a tournament map pool.
type MapPool struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Creator   *Player
	// Maps is ordered by (Mods, Slot).
	Maps []PoolEntry
}

// Entry looks up the beatmap assigned to (mods, slot).
func (p *MapPool) Entry(mods, slot int) (PoolEntry, bool) {
	for _, e := range p.Maps {
		if e.Mods == mods && e.Slot == slot {
			return e, true
		}
	}
	return PoolEntry{}, false
}
