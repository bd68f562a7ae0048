package entity

import (
	"sort"
	"time"
)

// OwnerRank is the users.clan_rank value marking a clan's owner.
const OwnerRank = 3

// Clan is built from a clans row plus its members' (id, clan_rank) rows.
type Clan struct {
	ID        int64
	Name      string
	Tag       string
	CreatedAt time.Time
	// OwnerID is 0 when no member carries OwnerRank.
	OwnerID int64
	Members map[int64]struct{}
}

func (c *Clan) HasOwner() bool { return c.OwnerID != 0 }

func (c *Clan) IsMember(id int64) bool {
	_, ok := c.Members[id]
	return ok
}

// MemberIDs returns member ids in ascending order.
func (c *Clan) MemberIDs() []int64 {
	ids := make([]int64, 0, len(c.Members))
	for id := range c.Members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
