package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sketch-rooms/internal/game"

	"github.com/rs/zerolog/log"
)

// CreateRoom stores a new WAITING room with the creator already seated. The
// creator claims the seat when their connection joins; a room nobody claims
// is swept.
func (c *Coordinator) CreateRoom(ctx context.Context, owner string, settings game.Settings) (*game.Room, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, game.ErrPlayerNotFound
	}
	settings = settings.WithDefaults(c.defaults)
	now := c.engine.Now()
	room := game.NewRoom(c.newID(), owner, settings, now)
	room.AddPlayer(owner, c.engine.Timing().BaselineScore, now)
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("%w: create room: %v", ErrPersistence, err)
	}
	c.scheduleSweep(room.ID)
	c.recordEvent(ctx, room.ID, eventRoomCreated, EventPayload{RoomID: room.ID, Username: owner})
	log.Info().Str("room_id", room.ID).Str("username", owner).Msg("room created")
	return room, nil
}

// Join binds connID to username in roomID. A username already in the room
// may be claimed only if no live connection holds it.
func (c *Coordinator) Join(ctx context.Context, connID string, conn Conn, roomID, username string) (*game.Room, error) {
	username = strings.TrimSpace(username)
	if prev, ok := c.registry.Lookup(connID); ok {
		if prev.RoomID != roomID || !strings.EqualFold(prev.Username, username) {
			if err := c.Leave(ctx, connID); err != nil {
				return nil, err
			}
		}
	}

	return c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		if room.IsKicked(username) {
			return ErrAlreadyKicked
		}
		member := Member{ConnID: connID, RoomID: roomID, Conn: conn}
		if p, ok := room.FindPlayer(username); ok {
			bound, live := c.registry.ConnFor(roomID, p.Username)
			if live && bound.ConnID != connID {
				return ErrAlreadyInRoom
			}
			member.Username = p.Username
			fx.skipSave = true
			if !live {
				fx.notice("%s connected.", p.Username)
			}
		} else {
			if limit := room.Settings.PlayerLimit; limit > 0 && len(room.Players) >= limit {
				return ErrRoomFull
			}
			room.AddPlayer(username, c.engine.Timing().BaselineScore, c.engine.Now())
			member.Username = username
			fx.notice("%s joined the room.", username)
			fx.record(eventPlayerJoined, EventPayload{Username: username})
		}
		fx.sendState = true
		fx.canvasTo = &member
		fx.afterSave = func() {
			c.registry.Bind(member)
		}
		log.Info().Str("room_id", roomID).Str("username", member.Username).Str("conn_id", connID).Msg("player joined")
		return nil
	})
}

// Leave removes the connection's player and then unbinds the connection.
// Unknown or already released connections are a no-op. The binding is only
// dropped once the removal is committed, so a failed save is retried instead
// of leaving a seat behind that nobody can reclaim.
func (c *Coordinator) Leave(ctx context.Context, connID string) error {
	c.canvas.ForgetConn(connID)
	m, ok := c.registry.Lookup(connID)
	if !ok {
		return nil
	}
	_, err := c.withRoom(ctx, m.RoomID, func(room *game.Room, fx *effects) error {
		fx.afterSave = func() { c.registry.Unbind(connID) }
		if bound, live := c.registry.ConnFor(m.RoomID, m.Username); live && bound.ConnID != connID {
			fx.skipSave = true
			return nil
		}
		if !room.HasPlayer(m.Username) {
			fx.skipSave = true
			return nil
		}
		if err := c.dropPlayer(room, m.Username, fx); err != nil {
			return err
		}
		fx.notice("%s left the room.", m.Username)
		fx.record(eventPlayerLeft, EventPayload{Username: m.Username, Reason: "disconnect"})
		return nil
	})
	switch {
	case err == nil:
		log.Info().Str("room_id", m.RoomID).Str("username", m.Username).Msg("player left")
		return nil
	case errors.Is(err, game.ErrRoomNotFound):
		c.registry.Unbind(connID)
		return nil
	case retryable(err):
		log.Warn().Err(err).Str("room_id", m.RoomID).Str("username", m.Username).Dur("retry_in", c.timerRetry).Msg("leave failed")
		c.timers.ScheduleIfIdle(leaveKey(connID), c.timerRetry, func() {
			retryCtx, cancel := context.WithTimeout(context.Background(), 2*c.lockTimeout)
			defer cancel()
			_ = c.Leave(retryCtx, connID)
		})
		return err
	default:
		log.Warn().Err(err).Str("room_id", m.RoomID).Str("username", m.Username).Msg("leave failed")
		c.registry.Unbind(connID)
		return err
	}
}

func (c *Coordinator) Kick(ctx context.Context, roomID, target, requestedBy string) error {
	target = strings.TrimSpace(target)
	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		if !room.HasPlayer(requestedBy) {
			return ErrNotInRoom
		}
		if !c.policy.CanKick(room, requestedBy, target) {
			return ErrNotAuthorized
		}
		if strings.EqualFold(target, strings.TrimSpace(requestedBy)) {
			return ErrCannotKickSelf
		}
		p, ok := room.FindPlayer(target)
		if !ok {
			if room.IsKicked(target) {
				return ErrAlreadyKicked
			}
			return game.ErrPlayerNotFound
		}
		name := p.Username
		room.Kick(name)
		if err := c.dropPlayer(room, name, fx); err != nil {
			return err
		}
		fx.notice("%s was kicked from the room.", name)
		fx.record(eventPlayerKicked, EventPayload{Username: name, By: requestedBy})
		fx.afterSave = func() {
			if m, ok := c.registry.UnbindUser(roomID, name); ok {
				fx.kicked = &m
			}
		}
		log.Info().Str("room_id", roomID).Str("username", name).Str("by", requestedBy).Msg("player kicked")
		return nil
	})
	return err
}

// dropPlayer removes username and lets the engine resolve the turn. The last
// player out deletes the room.
func (c *Coordinator) dropPlayer(room *game.Room, username string, fx *effects) error {
	wasDrawer := room.IsDrawer(username)
	removed, ok := room.RemovePlayer(username)
	if !ok {
		fx.skipSave = true
		return nil
	}
	if len(room.Players) == 0 {
		fx.deleteRoom = true
		return nil
	}
	return c.apply(room, game.Event{Kind: game.EventPlayerLeft, Username: removed.Username, WasDrawer: wasDrawer}, fx)
}
