package server

import (
	"context"
	"sort"
	"sync"

	"sketch-rooms/internal/game"
)

// RoomStore persists rooms. SaveRoom is a compare-and-swap on Revision:
// revision zero inserts, anything else must match the stored revision, and a
// successful save advances room.Revision.
type RoomStore interface {
	LoadRoom(ctx context.Context, id string) (*game.Room, error)
	SaveRoom(ctx context.Context, room *game.Room) error
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]*game.Room, error)
}

type ChatLog interface {
	AppendChat(ctx context.Context, msg game.ChatMessage) error
	ListChat(ctx context.Context, roomID string, offset, limit int) ([]game.ChatMessage, int64, error)
}

type EventLog interface {
	RecordEvent(ctx context.Context, roomID, eventType string, payload any) error
}

type storedEvent struct {
	RoomID  string
	Type    string
	Payload any
}

// Store is the in-memory backend used when no database is configured. Rooms
// are cloned on the way in and out so callers never share state with it.
type Store struct {
	mu     sync.Mutex
	rooms  map[string]*game.Room
	chat   map[string][]game.ChatMessage
	events []storedEvent
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*game.Room),
		chat:  make(map[string][]game.ChatMessage),
	}
}

func (s *Store) LoadRoom(ctx context.Context, id string) (*game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Store) SaveRoom(ctx context.Context, room *game.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[room.ID]
	switch {
	case room.Revision == 0 && ok:
		return game.ErrRevisionConflict
	case room.Revision != 0 && !ok:
		return game.ErrRoomNotFound
	case ok && current.Revision != room.Revision:
		return game.ErrRevisionConflict
	}
	room.Revision++
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Store) ListRooms(ctx context.Context) ([]*game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Store) AppendChat(ctx context.Context, msg game.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat[msg.RoomID] = append(s.chat[msg.RoomID], msg)
	return nil
}

func (s *Store) ListChat(ctx context.Context, roomID string, offset, limit int) ([]game.ChatMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.chat[roomID]
	total := int64(len(all))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []game.ChatMessage{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]game.ChatMessage(nil), all[offset:end]...), total, nil
}

func (s *Store) RecordEvent(ctx context.Context, roomID, eventType string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, storedEvent{RoomID: roomID, Type: eventType, Payload: payload})
	return nil
}

