package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sketch-rooms/internal/game"
	"sketch-rooms/internal/syncx"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Coordinator serializes every mutating event for a room: lock, load, apply,
// save, schedule, unlock, then notify. Nothing slow happens under the lock
// except the store round-trip.
type Coordinator struct {
	engine   *game.Engine
	store    RoomStore
	chat     ChatLog
	events   EventLog
	registry *Registry
	locks    *syncx.KeyedMutex
	timers   timerScheduler
	canvas   *canvasRelay
	policy   Policy
	defaults game.Settings
	newID    func() string

	lockTimeout   time.Duration
	timerRetry    time.Duration
	unclaimedRoom time.Duration
}

type CoordinatorOption func(*Coordinator)

func WithChatLog(chat ChatLog) CoordinatorOption {
	return func(c *Coordinator) { c.chat = chat }
}

func WithEventLog(events EventLog) CoordinatorOption {
	return func(c *Coordinator) { c.events = events }
}

func WithPolicy(policy Policy) CoordinatorOption {
	return func(c *Coordinator) { c.policy = policy }
}

func WithRoomDefaults(defaults game.Settings) CoordinatorOption {
	return func(c *Coordinator) { c.defaults = defaults }
}

func WithCanvasLimit(fps float64, burst int) CoordinatorOption {
	return func(c *Coordinator) { c.canvas = newCanvasRelay(fps, burst) }
}

func WithTimerRetry(delay time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.timerRetry = delay }
}

// WithUnclaimedRoomTTL sets how long seats may go unclaimed after a room is
// created or restored before the sweep removes them. Zero disables the sweep.
func WithUnclaimedRoomTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.unclaimedRoom = ttl }
}

func WithIDGenerator(newID func() string) CoordinatorOption {
	return func(c *Coordinator) { c.newID = newID }
}

func withTimers(timers timerScheduler) CoordinatorOption {
	return func(c *Coordinator) { c.timers = timers }
}

func NewCoordinator(engine *game.Engine, store RoomStore, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		engine:   engine,
		store:    store,
		registry: NewRegistry(),
		locks:    syncx.NewKeyedMutex(),
		timers:   newRoomTimers(),
		canvas:   newCanvasRelay(30, 10),
		policy:   OwnerPolicy{},
		defaults: game.Settings{
			MaxRounds:         3,
			RoundTimeSeconds:  80,
			WordChoiceCount:   3,
			Category:          game.DefaultCategory,
			HintRevealPercent: 40,
			PlayerLimit:       8,
		},
		newID:         uuid.NewString,
		lockTimeout:   5 * time.Second,
		timerRetry:    2 * time.Second,
		unclaimedRoom: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) Engine() *game.Engine {
	return c.engine
}

type privateNotice struct {
	username string
	message  string
}

// effects collects what a command wants done besides saving the room.
type effects struct {
	outcome    *game.Outcome
	notices    []string
	private    []privateNotice
	chat       *game.ChatMessage
	kicked     *Member
	events     []eventRecord
	deleteRoom bool
	skipSave   bool
	sendState  bool
	canvasTo   *Member
	afterSave  func()
}

func (fx *effects) notice(format string, args ...any) {
	fx.notices = append(fx.notices, fmt.Sprintf(format, args...))
}

func (fx *effects) tell(username, message string) {
	fx.private = append(fx.private, privateNotice{username: username, message: message})
}

func (fx *effects) record(eventType string, payload EventPayload) {
	fx.events = append(fx.events, eventRecord{Type: eventType, Payload: payload})
}

// apply runs ev through the engine and records a phase change event. When a
// command applies several events their outcomes are merged.
func (c *Coordinator) apply(room *game.Room, ev game.Event, fx *effects) error {
	out, err := c.engine.Apply(room, ev)
	if err != nil {
		return err
	}
	if fx.outcome == nil {
		fx.outcome = &out
	} else {
		mergeOutcome(fx.outcome, out)
	}
	if out.PhaseChanged() {
		fx.record(eventPhaseChanged, EventPayload{
			From:   string(out.From),
			Phase:  string(out.To),
			Round:  room.CurrentRound,
			Drawer: room.CurrentDrawer,
			Reason: string(ev.Kind),
		})
	}
	return nil
}

// mergeOutcome folds next into prev. The latest timer decision wins.
func mergeOutcome(prev *game.Outcome, next game.Outcome) {
	prev.To = next.To
	prev.Changed = prev.Changed || next.Changed
	prev.ClearCanvas = prev.ClearCanvas || next.ClearCanvas
	prev.Notices = append(prev.Notices, next.Notices...)
	if next.Timer != nil || next.CancelTimer {
		prev.Timer = next.Timer
		prev.CancelTimer = next.CancelTimer
	}
	if next.Guess != nil {
		prev.Guess = next.Guess
	}
}

// withRoom runs fn on a private copy of the room while holding its lock. The
// copy is committed, timers are rescheduled, and only then is the lock
// released and everyone notified. If fn or the save fails nothing is
// committed and nothing is sent.
func (c *Coordinator) withRoom(ctx context.Context, roomID string, fn func(room *game.Room, fx *effects) error) (*game.Room, error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()
	unlock, err := c.locks.Lock(lockCtx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoomBusy, err)
	}
	return c.withLockedRoom(ctx, roomID, unlock, fn)
}

// withLockedRoom is withRoom for a caller that already holds the room lock.
// unlock is called before anyone is notified.
func (c *Coordinator) withLockedRoom(ctx context.Context, roomID string, unlock func(), fn func(room *game.Room, fx *effects) error) (*game.Room, error) {
	room, fx, err := c.commit(ctx, roomID, fn)
	unlock()
	if err != nil {
		return nil, err
	}
	c.deliver(ctx, room, fx)
	return room, nil
}

func (c *Coordinator) commit(ctx context.Context, roomID string, fn func(room *game.Room, fx *effects) error) (*game.Room, *effects, error) {
	room, err := c.store.LoadRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, game.ErrRoomNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: load %s: %v", ErrPersistence, roomID, err)
	}
	fx := &effects{}
	if err := fn(room, fx); err != nil {
		return nil, nil, err
	}

	switch {
	case fx.deleteRoom:
		if err := c.store.DeleteRoom(ctx, roomID); err != nil {
			return nil, nil, fmt.Errorf("%w: delete %s: %v", ErrPersistence, roomID, err)
		}
		c.timers.Cancel(roomID)
		c.timers.Cancel(sweepKey(roomID))
		c.canvas.Drop(roomID)
		fx.record(eventRoomDeleted, EventPayload{RoomID: roomID})
	case !fx.skipSave:
		if err := c.store.SaveRoom(ctx, room); err != nil {
			return nil, nil, fmt.Errorf("%w: save %s: %v", ErrPersistence, roomID, err)
		}
	}

	if fx.afterSave != nil {
		fx.afterSave()
	}
	if fx.outcome != nil && !fx.deleteRoom {
		c.applyTimer(room, fx.outcome)
	}
	if !fx.deleteRoom {
		c.canvas.Track(room.ID, room.CurrentDrawer, room.Phase == game.PhaseDrawing)
		if fx.outcome != nil && fx.outcome.ClearCanvas {
			c.canvas.Clear(room.ID)
		}
	}
	return room, fx, nil
}

// applyTimer must run under the room lock so a slow caller cannot replace a
// newer timer.
func (c *Coordinator) applyTimer(room *game.Room, out *game.Outcome) {
	switch {
	case out.Timer != nil:
		timer := *out.Timer
		roomID := room.ID
		c.timers.Schedule(roomID, timer.Delay, func() {
			c.fireTimer(roomID, timer)
		})
	case out.CancelTimer:
		c.timers.Cancel(room.ID)
	}
}

func (c *Coordinator) fireTimer(roomID string, timer game.Timer) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*c.lockTimeout)
	defer cancel()

	_, err := c.withRoom(ctx, roomID, func(room *game.Room, fx *effects) error {
		return c.apply(room, timer.Event(), fx)
	})
	switch {
	case err == nil:
		log.Debug().Str("room_id", roomID).Str("event", string(timer.Kind)).Msg("timer fired")
	case errors.Is(err, game.ErrStaleTimer), errors.Is(err, game.ErrRoomNotFound):
		log.Debug().Err(err).Str("room_id", roomID).Str("event", string(timer.Kind)).Msg("timer ignored")
	case retryable(err):
		log.Warn().Err(err).Str("room_id", roomID).Str("event", string(timer.Kind)).Dur("retry_in", c.timerRetry).Msg("timer commit failed")
		c.timers.ScheduleIfIdle(roomID, c.timerRetry, func() {
			c.fireTimer(roomID, timer)
		})
	default:
		log.Error().Err(err).Str("room_id", roomID).Str("event", string(timer.Kind)).Msg("timer transition failed")
	}
}

func (c *Coordinator) scheduleSweep(roomID string) {
	if c.unclaimedRoom <= 0 {
		return
	}
	c.timers.ScheduleIfIdle(sweepKey(roomID), c.unclaimedRoom, func() {
		c.sweepUnclaimed(roomID)
	})
}

// sweepUnclaimed clears out seats nobody ever connected to. A room with no
// connection at all is deleted. Otherwise the unconnected players are removed,
// which hands ownership to someone who is actually there. A busy room is
// swept again later rather than waited on.
func (c *Coordinator) sweepUnclaimed(roomID string) {
	unlock, ok := c.locks.TryLock(roomID)
	if !ok {
		c.retrySweep(roomID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*c.lockTimeout)
	defer cancel()
	_, err := c.withLockedRoom(ctx, roomID, unlock, func(room *game.Room, fx *effects) error {
		if c.registry.Bound(roomID) == 0 {
			fx.deleteRoom = true
			log.Info().Str("room_id", roomID).Str("phase", string(room.Phase)).Msg("deleting unclaimed room")
			return nil
		}
		var absent []string
		for _, p := range room.Players {
			if _, live := c.registry.ConnFor(roomID, p.Username); !live {
				absent = append(absent, p.Username)
			}
		}
		if len(absent) == 0 {
			fx.skipSave = true
			return nil
		}
		for _, username := range absent {
			if err := c.dropPlayer(room, username, fx); err != nil {
				return err
			}
			fx.notice("%s never connected.", username)
			fx.record(eventPlayerLeft, EventPayload{Username: username, Reason: "unclaimed"})
		}
		log.Info().Str("room_id", roomID).Strs("removed", absent).Str("owner", room.Owner).Msg("removed unclaimed seats")
		return nil
	})
	switch {
	case err == nil, errors.Is(err, game.ErrRoomNotFound):
	case retryable(err):
		log.Warn().Err(err).Str("room_id", roomID).Dur("retry_in", c.timerRetry).Msg("unclaimed room sweep failed")
		c.retrySweep(roomID)
	default:
		log.Warn().Err(err).Str("room_id", roomID).Msg("unclaimed room sweep failed")
	}
}

func (c *Coordinator) retrySweep(roomID string) {
	c.timers.ScheduleIfIdle(sweepKey(roomID), c.timerRetry, func() {
		c.sweepUnclaimed(roomID)
	})
}

// deliver runs after the lock is released.
func (c *Coordinator) deliver(ctx context.Context, room *game.Room, fx *effects) {
	now := c.engine.Now()

	if fx.kicked != nil {
		c.send(*fx.kicked, outboundMessage{Type: msgKicked, RoomID: room.ID})
		_ = fx.kicked.Conn.Close()
		c.canvas.ForgetConn(fx.kicked.ConnID)
	}

	if fx.chat != nil {
		c.appendChat(ctx, *fx.chat)
		c.broadcast(room.ID, chatMessage(*fx.chat))
	}

	lines := fx.notices
	if fx.outcome != nil {
		lines = append(lines, fx.outcome.Notices...)
	}
	for _, line := range lines {
		msg := game.ChatMessage{RoomID: room.ID, Username: "system", Message: line, System: true, CreatedAt: now}
		c.appendChat(ctx, msg)
		c.broadcast(room.ID, chatMessage(msg))
	}
	for _, p := range fx.private {
		if m, ok := c.registry.ConnFor(room.ID, p.username); ok {
			c.send(m, chatMessage(game.ChatMessage{RoomID: room.ID, Username: "system", Message: p.message, System: true, CreatedAt: now}))
		}
	}

	if fx.outcome != nil && fx.outcome.ClearCanvas {
		c.broadcast(room.ID, outboundMessage{Type: msgCanvasClear})
	}

	if !fx.deleteRoom && (fx.sendState || (fx.outcome != nil && fx.outcome.Changed)) {
		c.broadcastState(room)
	}

	if fx.canvasTo != nil {
		if frame, ok := c.canvas.Last(room.ID); ok {
			c.send(*fx.canvasTo, canvasMessage(frame))
		}
	}

	for _, ev := range fx.events {
		ev.Payload.RoomID = room.ID
		c.recordEvent(ctx, room.ID, ev.Type, ev.Payload)
	}
}

func (c *Coordinator) broadcastState(room *game.Room) {
	for _, m := range c.registry.Members(room.ID) {
		c.send(m, stateMessage(c.engine.View(room, m.Username)))
	}
}

func (c *Coordinator) broadcast(roomID string, msg outboundMessage) {
	for _, m := range c.registry.Members(roomID) {
		c.send(m, msg)
	}
}

func (c *Coordinator) broadcastExcept(roomID, connID string, msg outboundMessage) {
	for _, m := range c.registry.Members(roomID) {
		if m.ConnID == connID {
			continue
		}
		c.send(m, msg)
	}
}

func (c *Coordinator) send(m Member, msg outboundMessage) {
	if m.Conn == nil {
		return
	}
	if err := m.Conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("room_id", m.RoomID).Str("username", m.Username).Str("type", msg.Type).Msg("send failed")
	}
}
