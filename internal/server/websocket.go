package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"sketch-rooms/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsMaxMessageSize = 256 * 1024
	wsCommandTimeout = 10 * time.Second
)

// wsClient serializes writes; gorilla connections allow one writer at a time.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

type inboundMessage struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId"`
	Username string          `json:"username"`
	Word     string          `json:"word"`
	Message  string          `json:"message"`
	Guess    string          `json:"guess"`
	Target   string          `json:"target"`
	Frame    json.RawMessage `json:"frame"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)
	client := &wsClient{id: uuid.NewString(), conn: conn}
	log.Debug().Str("conn_id", client.id).Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	go s.readWS(client)
}

func (s *Server) readWS(client *wsClient) {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), wsCommandTimeout)
		defer cancel()
		_ = s.coord.Leave(ctx, client.id)
		_ = client.conn.Close()
	}()
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("conn_id", client.id).Msg("ws disconnected")
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = client.Send(errorMessage("Malformed message."))
			continue
		}
		if msg.Type == "leaveRoom" {
			return
		}
		if err := s.dispatch(client, msg); err != nil {
			if !errors.Is(err, game.ErrRoomNotFound) && !errors.Is(err, ErrNotInRoom) {
				log.Debug().Err(err).Str("conn_id", client.id).Str("type", msg.Type).Msg("ws command rejected")
			}
			_ = client.Send(errorMessage(userMessage(err)))
		}
	}
}

func (s *Server) dispatch(client *wsClient, msg inboundMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), wsCommandTimeout)
	defer cancel()

	if msg.Type == "joinLobby" {
		username, err := validateName(msg.Username)
		if err != nil {
			return invalidInput(err)
		}
		_, err = s.coord.Join(ctx, client.id, client, msg.RoomID, username)
		return err
	}
	if msg.Type == "canvasUpdate" {
		return s.coord.Canvas(ctx, client.id, msg.Frame)
	}

	member, ok := s.coord.Registry().Lookup(client.id)
	if !ok {
		return ErrNotInRoom
	}
	switch msg.Type {
	case "startGame":
		return s.coord.StartGame(ctx, member.RoomID, member.Username)
	case "selectWord":
		return s.coord.SelectWord(ctx, member.RoomID, member.Username, msg.Word)
	case "chatMessage":
		return s.coord.Chat(ctx, member.RoomID, member.Username, msg.Message)
	case "checkWordGuess":
		guess := msg.Guess
		if guess == "" {
			guess = msg.Message
		}
		return s.coord.CheckGuess(ctx, member.RoomID, member.Username, guess)
	case "kickPlayer":
		return s.coord.Kick(ctx, member.RoomID, msg.Target, member.Username)
	default:
		return errUnknownMessage
	}
}
