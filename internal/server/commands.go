package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"sketch-rooms/internal/game"

	"github.com/rs/zerolog/log"
)

// maxChatLength is counted in characters, not bytes.
const maxChatLength = 200

func (c *Coordinator) StartGame(ctx context.Context, roomID, username string) error {
	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		if !room.HasPlayer(username) {
			return ErrNotInRoom
		}
		if !c.policy.CanStart(room, username) {
			return ErrNotAuthorized
		}
		return c.apply(room, game.Event{Kind: game.EventStartGame, Username: username}, fx)
	})
	return err
}

func (c *Coordinator) SelectWord(ctx context.Context, roomID, username, word string) error {
	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		if !room.HasPlayer(username) {
			return ErrNotInRoom
		}
		return c.apply(room, game.Event{Kind: game.EventSelectWord, Username: username, Text: word}, fx)
	})
	return err
}

// Chat posts a message. While someone is drawing, a guesser's message that
// matches the word is scored instead of shown, and the drawer cannot type it.
func (c *Coordinator) Chat(ctx context.Context, roomID, username, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	message = truncateRunes(strings.ToValidUTF8(message, ""), maxChatLength)
	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		p, ok := room.FindPlayer(username)
		if !ok {
			return ErrNotInRoom
		}
		if room.Phase == game.PhaseDrawing && room.CurrentWord != "" {
			if room.IsDrawer(p.Username) {
				if game.RevealsWord(message, room.CurrentWord) {
					fx.skipSave = true
					fx.tell(p.Username, "You can't say the word while drawing.")
					return nil
				}
			} else if game.MatchesWord(message, room.CurrentWord) {
				return c.guess(room, p.Username, message, fx)
			} else if p.HasGuessedCorrectThisTurn && game.RevealsWord(message, room.CurrentWord) {
				fx.skipSave = true
				fx.tell(p.Username, "Don't spoil the word!")
				return nil
			}
		}
		fx.skipSave = true
		fx.chat = &game.ChatMessage{
			RoomID:    room.ID,
			Username:  p.Username,
			Message:   message,
			CreatedAt: c.engine.Now(),
		}
		return nil
	})
	return err
}

// CheckGuess submits an explicit guess. Wrong guesses are shown as chat.
func (c *Coordinator) CheckGuess(ctx context.Context, roomID, username, guess string) error {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return nil
	}
	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		p, ok := room.FindPlayer(username)
		if !ok {
			return ErrNotInRoom
		}
		return c.guess(room, p.Username, guess, fx)
	})
	return err
}

func (c *Coordinator) guess(room *game.Room, username, text string, fx *effects) error {
	alreadyGuessed := false
	if p, ok := room.FindPlayer(username); ok {
		alreadyGuessed = p.HasGuessedCorrectThisTurn
	}
	err := c.apply(room, game.Event{Kind: game.EventGuess, Username: username, Text: text}, fx)
	if errors.Is(err, game.ErrAlreadyGuessed) {
		fx.outcome = nil
		fx.skipSave = true
		fx.tell(username, "You already guessed the word.")
		return nil
	}
	if err != nil {
		return err
	}
	result := fx.outcome.Guess
	if result == nil || !result.Correct {
		fx.skipSave = true
		if alreadyGuessed && game.RevealsWord(text, room.CurrentWord) {
			fx.tell(username, "Don't spoil the word!")
			return nil
		}
		fx.chat = &game.ChatMessage{
			RoomID:    room.ID,
			Username:  username,
			Message:   text,
			CreatedAt: c.engine.Now(),
		}
		return nil
	}
	fx.tell(username, fmt.Sprintf("You guessed it! +%d points.", result.Points))
	fx.record(eventWordGuessed, EventPayload{Username: username, Points: result.Points, Round: room.CurrentRound})
	return nil
}

// Canvas relays a drawing frame from the drawer to the rest of the room. It
// never takes the room lock; frames from anyone else, or over the rate
// limit, are dropped.
func (c *Coordinator) Canvas(ctx context.Context, connID string, frame json.RawMessage) error {
	m, ok := c.registry.Lookup(connID)
	if !ok {
		return ErrNotInRoom
	}
	if len(frame) == 0 || !c.canvas.Allow(connID) {
		return nil
	}
	if !c.canvas.Accept(m.RoomID, m.Username, frame) {
		log.Debug().Str("room_id", m.RoomID).Str("username", m.Username).Msg("canvas frame from non-drawer dropped")
		return nil
	}
	c.broadcastExcept(m.RoomID, connID, canvasMessage(frame))
	return nil
}

func (c *Coordinator) Room(ctx context.Context, roomID string) (*game.Room, error) {
	return c.store.LoadRoom(ctx, roomID)
}

func (c *Coordinator) View(ctx context.Context, roomID, viewer string) (game.RoomView, error) {
	room, err := c.store.LoadRoom(ctx, roomID)
	if err != nil {
		return game.RoomView{}, err
	}
	return c.engine.View(room, viewer), nil
}

func (c *Coordinator) Rooms(ctx context.Context) ([]*game.Room, error) {
	return c.store.ListRooms(ctx)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
