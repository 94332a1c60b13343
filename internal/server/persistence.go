package server

import (
	"context"

	"sketch-rooms/internal/game"

	"github.com/rs/zerolog/log"
)

// Chat and event log writes are best effort: a failure is logged and the
// game carries on.

func (c *Coordinator) appendChat(ctx context.Context, msg game.ChatMessage) {
	if c.chat == nil {
		return
	}
	if err := c.chat.AppendChat(ctx, msg); err != nil {
		log.Warn().Err(err).Str("room_id", msg.RoomID).Str("username", msg.Username).Msg("persist chat failed")
	}
}

func (c *Coordinator) recordEvent(ctx context.Context, roomID, eventType string, payload EventPayload) {
	if c.events == nil {
		return
	}
	if err := c.events.RecordEvent(ctx, roomID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("event", eventType).Msg("persist event failed")
	}
}

// ChatHistory returns one page of the moderation log.
func (c *Coordinator) ChatHistory(ctx context.Context, roomID string, page, perPage int) ([]game.ChatMessage, int64, error) {
	if c.chat == nil {
		return []game.ChatMessage{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	return c.chat.ListChat(ctx, roomID, (page-1)*perPage, perPage)
}
