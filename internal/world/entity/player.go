package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/privileges"
)

// BotID is the id of the synthetic system account created at boot.
const BotID int64 = 1

// NeverExpires is the activity timestamp pinned on accounts that must never
// be evicted for inactivity.
var NeverExpires = time.Unix(0x7fffffff, 0)

// Player is an account, either online (held by the player registry) or
// materialised offline from the users table.
type Player struct {
	ID   int64
	Name string

	mu       sync.Mutex
	priv     privileges.Privileges
	lastRecv time.Time
	online   bool
	channels []*Channel
	match    *Match
}

// NewPlayer builds an offline player.
func NewPlayer(id int64, name string, priv privileges.Privileges) *Player {
	return &Player{ID: id, Name: name, priv: priv}
}

// NewBot builds the system account. Its activity timestamp never ages.
func NewBot(name string) *Player {
	p := NewPlayer(BotID, name, privileges.Normal)
	p.lastRecv = NeverExpires
	p.online = true
	return p
}

func (p *Player) String() string { return fmt.Sprintf("<%s (%d)>", p.Name, p.ID) }

func (p *Player) Priv() privileges.Privileges {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.priv
}

// RemovePrivs clears bits and returns the resulting privileges.
func (p *Player) RemovePrivs(bits privileges.Privileges) privileges.Privileges {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priv = p.priv.Remove(bits)
	return p.priv
}

func (p *Player) LastRecv() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRecv
}

// Touch records client activity at t. The bot's pinned timestamp is kept.
func (p *Player) Touch(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRecv.Equal(NeverExpires) {
		return
	}
	p.lastRecv = t
}

// Idle reports whether more than timeout has passed since the last activity.
func (p *Player) Idle(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastRecv()) > timeout
}

func (p *Player) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// MarkOnline flags the player as having a live session active since t.
func (p *Player) MarkOnline(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = true
	if !p.lastRecv.Equal(NeverExpires) {
		p.lastRecv = t
	}
}

func (p *Player) Channels() []*Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Channel, len(p.channels))
	copy(out, p.channels)
	return out
}

func (p *Player) Match() *Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.match
}

// JoinChannel adds the player to c. It returns false when already a member.
func (p *Player) JoinChannel(c *Channel) bool {
	p.mu.Lock()
	for _, have := range p.channels {
		if have == c {
			p.mu.Unlock()
			return false
		}
	}
	p.channels = append(p.channels, c)
	p.mu.Unlock()

	c.addMember(p)
	return true
}

// LeaveChannel removes the player from c.
func (p *Player) LeaveChannel(c *Channel) {
	p.mu.Lock()
	for i, have := range p.channels {
		if have == c {
			p.channels = append(p.channels[:i], p.channels[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	c.removeMember(p.ID)
}

// JoinMatch moves the player into m, leaving any previous match.
func (p *Player) JoinMatch(m *Match) {
	p.mu.Lock()
	prev := p.match
	p.match = m
	p.mu.Unlock()

	if prev != nil && prev != m {
		prev.removeMember(p.ID)
	}
	m.addMember(p)
}

// LeaveMatch releases the player's match slot, if any.
func (p *Player) LeaveMatch() {
	p.mu.Lock()
	m := p.match
	p.match = nil
	p.mu.Unlock()

	if m != nil {
		m.removeMember(p.ID)
	}
}

// Logout marks the player offline and releases every channel and match
// membership it held. Removal from the registry is the caller's job.
func (p *Player) Logout() {
	p.mu.Lock()
	chans := p.channels
	m := p.match
	p.channels = nil
	p.match = nil
	p.online = false
	p.mu.Unlock()

	for _, c := range chans {
		c.removeMember(p.ID)
	}
	if m != nil {
		m.removeMember(p.ID)
	}
}
