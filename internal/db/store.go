package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sketch-rooms/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store persists rooms, the chat moderation log, and the event log in
// Postgres.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) LoadRoom(ctx context.Context, id string) (*game.Room, error) {
	var record Room
	if err := s.conn.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.ErrRoomNotFound
		}
		return nil, err
	}
	return decodeRoom(record)
}

// SaveRoom inserts a room with revision zero and otherwise updates it only if
// the stored revision still matches. On success room.Revision is advanced.
func (s *Store) SaveRoom(ctx context.Context, room *game.Room) error {
	next := room.Revision + 1
	snapshot := *room
	snapshot.Revision = next
	state, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	now := time.Now().UTC()

	if room.Revision == 0 {
		record := Room{
			ID:           room.ID,
			Owner:        room.Owner,
			Phase:        string(room.Phase),
			CurrentRound: room.CurrentRound,
			PlayerCount:  len(room.Players),
			Revision:     next,
			State:        datatypes.JSON(state),
			CreatedAt:    room.CreatedAt,
			UpdatedAt:    now,
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return game.ErrRevisionConflict
			}
			return err
		}
		room.Revision = next
		return nil
	}

	result := s.conn.WithContext(ctx).
		Model(&Room{}).
		Where("id = ? AND revision = ?", room.ID, room.Revision).
		Updates(map[string]any{
			"owner":         room.Owner,
			"phase":         string(room.Phase),
			"current_round": room.CurrentRound,
			"player_count":  len(room.Players),
			"revision":      next,
			"state":         datatypes.JSON(state),
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.conn.WithContext(ctx).Model(&Room{}).Where("id = ?", room.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return game.ErrRoomNotFound
		}
		return game.ErrRevisionConflict
	}
	room.Revision = next
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	return s.conn.WithContext(ctx).Delete(&Room{}, "id = ?", id).Error
}

func (s *Store) ListRooms(ctx context.Context) ([]*game.Room, error) {
	var records []Room
	if err := s.conn.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}
	rooms := make([]*game.Room, 0, len(records))
	for _, record := range records {
		room, err := decodeRoom(record)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *Store) AppendChat(ctx context.Context, msg game.ChatMessage) error {
	record := ChatMessage{
		RoomID:    msg.RoomID,
		Username:  msg.Username,
		Message:   msg.Message,
		System:    msg.System,
		CreatedAt: msg.CreatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.conn.WithContext(ctx).Create(&record).Error
}

func (s *Store) ListChat(ctx context.Context, roomID string, offset, limit int) ([]game.ChatMessage, int64, error) {
	query := s.conn.WithContext(ctx).Model(&ChatMessage{}).Where("room_id = ?", roomID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []ChatMessage
	if err := query.Order("created_at asc, id asc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	messages := make([]game.ChatMessage, 0, len(records))
	for _, record := range records {
		messages = append(messages, game.ChatMessage{
			RoomID:    record.RoomID,
			Username:  record.Username,
			Message:   record.Message,
			System:    record.System,
			CreatedAt: record.CreatedAt,
		})
	}
	return messages, total, nil
}

func (s *Store) RecordEvent(ctx context.Context, roomID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := Event{
		RoomID:    roomID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	return s.conn.WithContext(ctx).Create(&record).Error
}

func decodeRoom(record Room) (*game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(record.State, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", record.ID, err)
	}
	room.Revision = record.Revision
	if room.KickedUsernames == nil {
		room.KickedUsernames = make(map[string]bool)
	}
	return &room, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
