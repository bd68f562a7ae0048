package entity

import (
	"sync"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
)

// Channel is a chat channel loaded from the channels table.
type Channel struct {
	ID        int64
	Name      string
	Topic     string
	ReadPriv  privileges.Privileges
	WritePriv privileges.Privileges
	AutoJoin  bool

	mu      sync.Mutex
	members map[int64]*Player
}

func NewChannel(id int64, name, topic string, read, write privileges.Privileges, autoJoin bool) *Channel {
	return &Channel{
		ID:        id,
		Name:      name,
		Topic:     topic,
		ReadPriv:  read,
		WritePriv: write,
		AutoJoin:  autoJoin,
		members:   make(map[int64]*Player),
	}
}

// CanRead reports whether p's privileges satisfy the read requirement.
func (c *Channel) CanRead(p privileges.Privileges) bool { return p.Any(c.ReadPriv) }

func (c *Channel) Has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.members[id]
	return ok
}

func (c *Channel) MemberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

func (c *Channel) addMember(p *Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[p.ID] = p
}

func (c *Channel) removeMember(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members, id)
}
