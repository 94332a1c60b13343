package server

import (
	"encoding/json"
	"time"

	"sketch-rooms/internal/game"
)

const (
	eventRoomCreated  = "room_created"
	eventRoomDeleted  = "room_deleted"
	eventPlayerJoined = "player_joined"
	eventPlayerLeft   = "player_left"
	eventPlayerKicked = "player_kicked"
	eventPhaseChanged = "phase_changed"
	eventWordGuessed  = "word_guessed"
)

type EventPayload struct {
	RoomID   string `json:"room_id,omitempty"`
	Username string `json:"username,omitempty"`
	By       string `json:"by,omitempty"`
	From     string `json:"from,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Round    int    `json:"round,omitempty"`
	Drawer   string `json:"drawer,omitempty"`
	Points   int    `json:"points,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type eventRecord struct {
	Type    string
	Payload EventPayload
}

// Outbound message types.
const (
	msgGameState   = "gameStateUpdate"
	msgChat        = "chatMessage"
	msgCanvas      = "canvasUpdate"
	msgCanvasClear = "canvasClear"
	msgKicked      = "kicked"
	msgError       = "error"
)

type outboundMessage struct {
	Type      string          `json:"type"`
	Room      *game.RoomView  `json:"room,omitempty"`
	RoomID    string          `json:"roomId,omitempty"`
	Username  string          `json:"username,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	System    bool            `json:"system,omitempty"`
	Frame     json.RawMessage `json:"frame,omitempty"`
}

func stateMessage(view game.RoomView) outboundMessage {
	return outboundMessage{Type: msgGameState, Room: &view}
}

func chatMessage(msg game.ChatMessage) outboundMessage {
	ts := msg.CreatedAt
	return outboundMessage{
		Type:      msgChat,
		Username:  msg.Username,
		Message:   msg.Message,
		Timestamp: &ts,
		System:    msg.System,
	}
}

func canvasMessage(frame json.RawMessage) outboundMessage {
	return outboundMessage{Type: msgCanvas, Frame: frame}
}

func errorMessage(text string) outboundMessage {
	return outboundMessage{Type: msgError, Message: text}
}
