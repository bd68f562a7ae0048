package world

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/entity"
)

// State is the in-memory world built by the hydrator at boot. Apart from the
// player registry its collections are read-only once hydration returns.
type State struct {
	Players      *PlayerRegistry
	Bot          *entity.Player
	Channels     []*entity.Channel
	Pools        []*entity.MapPool
	Clans        []*entity.Clan
	Achievements map[gamemode.GameMode][]*entity.Achievement
}

func (s *State) Channel(name string) (*entity.Channel, bool) {
	for _, c := range s.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AutoJoinChannels are joined on login.
func (s *State) AutoJoinChannels() []*entity.Channel {
	var out []*entity.Channel
	for _, c := range s.Channels {
		if c.AutoJoin {
			out = append(out, c)
		}
	}
	return out
}

func (s *State) Clan(id int64) (*entity.Clan, bool) {
	for _, c := range s.Clans {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (s *State) Pool(name string) (*entity.MapPool, bool) {
	for _, p := range s.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// AchievementsFor returns the achievements stored under exactly mode m.
func (s *State) AchievementsFor(m gamemode.GameMode) []*entity.Achievement {
	return s.Achievements[m]
}

// Login registers p as online at now and joins it to the auto-join channels
// its privileges can read. It returns the channels joined.
func (s *State) Login(p *entity.Player, now time.Time) []*entity.Channel {
	p.MarkOnline(now)
	s.Players.Add(p)

	priv := p.Priv()
	var joined []*entity.Channel
	for _, c := range s.AutoJoinChannels() {
		if !c.CanRead(priv) {
			continue
		}
		if p.JoinChannel(c) {
			joined = append(joined, c)
		}
	}
	return joined
}

// Stats are the counters exposed on the ops surface.
type Stats struct {
	PlayersOnline int            `json:"players_online"`
	Channels      int            `json:"channels"`
	Pools         int            `json:"pools"`
	Clans         int            `json:"clans"`
	Achievements  map[string]int `json:"achievements"`
}

func (s *State) Stats() Stats {
	st := Stats{
		PlayersOnline: s.Players.Len(),
		Channels:      len(s.Channels),
		Pools:         len(s.Pools),
		Clans:         len(s.Clans),
		Achievements:  make(map[string]int),
	}
	for _, m := range gamemode.All() {
		st.Achievements[m.String()] = len(s.Achievements[m])
	}
	return st
}
