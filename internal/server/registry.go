package server

import (
	"strings"
	"sync"
)

// Conn is the outbound half of a client connection.
type Conn interface {
	Send(payload any) error
	Close() error
}

// Member is a connection bound to a player in a room.
type Member struct {
	ConnID   string
	RoomID   string
	Username string
	Conn     Conn
}

// Registry maps connections to (room, username) and back. A username is bound
// to at most one connection per room.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]Member
	byRoom map[string]map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]Member),
		byRoom: make(map[string]map[string]string),
	}
}

// Bind records m, replacing any earlier binding of the same connection or of
// the same username in the room.
func (r *Registry) Bind(m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byConn[m.ConnID]; ok {
		r.unbindLocked(prev)
	}
	users := r.byRoom[m.RoomID]
	if users == nil {
		users = make(map[string]string)
		r.byRoom[m.RoomID] = users
	}
	key := memberKey(m.Username)
	if prevConn, ok := users[key]; ok {
		delete(r.byConn, prevConn)
	}
	users[key] = m.ConnID
	r.byConn[m.ConnID] = m
}

// Unbind removes the connection and returns what it was bound to. Calling it
// twice is harmless.
func (r *Registry) Unbind(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byConn[connID]
	if !ok {
		return Member{}, false
	}
	r.unbindLocked(m)
	return m, true
}

func (r *Registry) UnbindUser(roomID, username string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.byRoom[roomID][memberKey(username)]
	if !ok {
		return Member{}, false
	}
	m := r.byConn[connID]
	r.unbindLocked(m)
	return m, true
}

func (r *Registry) unbindLocked(m Member) {
	delete(r.byConn, m.ConnID)
	users := r.byRoom[m.RoomID]
	key := memberKey(m.Username)
	if users[key] == m.ConnID {
		delete(users, key)
	}
	if len(users) == 0 {
		delete(r.byRoom, m.RoomID)
	}
}

func (r *Registry) Lookup(connID string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byConn[connID]
	return m, ok
}

func (r *Registry) ConnFor(roomID, username string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byRoom[roomID][memberKey(username)]
	if !ok {
		return Member{}, false
	}
	return r.byConn[connID], true
}

func (r *Registry) Members(roomID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := r.byRoom[roomID]
	members := make([]Member, 0, len(users))
	for _, connID := range users {
		members = append(members, r.byConn[connID])
	}
	return members
}

func (r *Registry) Bound(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRoom[roomID])
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func memberKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
