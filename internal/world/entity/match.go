package entity

import "sync"

// Match is a multiplayer lobby. Only membership is tracked here.
type Match struct {
	ID   int64
	Name string

	mu      sync.Mutex
	members map[int64]*Player
}

func NewMatch(id int64, name string) *Match {
	return &Match{ID: id, Name: name, members: make(map[int64]*Player)}
}

func (m *Match) Has(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[id]
	return ok
}

func (m *Match) MemberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

func (m *Match) addMember(p *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[p.ID] = p
}

func (m *Match) removeMember(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, id)
}
