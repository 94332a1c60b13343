package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sketch-rooms/internal/game"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pendingTimer struct {
	delay time.Duration
	fn    func()
}

// manualTimers only fires when a test says so.
type manualTimers struct {
	mu      sync.Mutex
	pending map[string]pendingTimer
}

func newManualTimers() *manualTimers {
	return &manualTimers{pending: make(map[string]pendingTimer)}
}

func (m *manualTimers) Schedule(key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key] = pendingTimer{delay: delay, fn: fn}
}

func (m *manualTimers) ScheduleIfIdle(key string, delay time.Duration, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[key]; ok {
		return false
	}
	m.pending[key] = pendingTimer{delay: delay, fn: fn}
	return true
}

func (m *manualTimers) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
}

func (m *manualTimers) Delay(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[key]
	return p.delay, ok
}

// Take removes the pending callback for key without running it.
func (m *manualTimers) Take(t *testing.T, key string) func() {
	t.Helper()
	m.mu.Lock()
	p, ok := m.pending[key]
	delete(m.pending, key)
	m.mu.Unlock()
	require.True(t, ok, "no timer pending for %s", key)
	return p.fn
}

func (m *manualTimers) Fire(t *testing.T, key string) {
	t.Helper()
	m.Take(t, key)()
}

type fakeConn struct {
	mu      sync.Mutex
	msgs    []outboundMessage
	closed  bool
	sendErr error
}

func (c *fakeConn) Send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.msgs = append(c.msgs, payload.(outboundMessage))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Messages() []outboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]outboundMessage(nil), c.msgs...)
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

func (c *fakeConn) OfType(msgType string) []outboundMessage {
	var out []outboundMessage
	for _, msg := range c.Messages() {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (c *fakeConn) LastState(t *testing.T) game.RoomView {
	t.Helper()
	states := c.OfType(msgGameState)
	require.NotEmpty(t, states, "no state update received")
	return *states[len(states)-1].Room
}

// ChatLines renders chat messages as "user: text".
func (c *fakeConn) ChatLines() []string {
	var lines []string
	for _, msg := range c.OfType(msgChat) {
		lines = append(lines, msg.Username+": "+msg.Message)
	}
	return lines
}

var testDefaults = game.Settings{
	MaxRounds:         2,
	RoundTimeSeconds:  60,
	WordChoiceCount:   3,
	Category:          game.DefaultCategory,
	HintRevealPercent: 50,
	PlayerLimit:       8,
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	clock  *testClock
	store  *Store
	timers *manualTimers
	coord  *Coordinator
	conns  map[string]*fakeConn
}

func newHarness(t *testing.T, opts ...CoordinatorOption) *harness {
	t.Helper()
	return newHarnessWithStore(t, NewStore(), nil, opts...)
}

// newHarnessWithStore lets a test wrap the memory store; rooms is what the
// coordinator sees and defaults to store.
func newHarnessWithStore(t *testing.T, store *Store, rooms RoomStore, opts ...CoordinatorOption) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	engine := game.NewEngine(game.DefaultTiming(), game.DefaultWordBank(), game.WithClock(clock.Now), game.WithSeed(7))
	timers := newManualTimers()
	if rooms == nil {
		rooms = store
	}
	var ids int
	var idMu sync.Mutex
	base := []CoordinatorOption{
		WithChatLog(store),
		WithEventLog(store),
		WithRoomDefaults(testDefaults),
		WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			ids++
			return fmt.Sprintf("room-%d", ids)
		}),
		withTimers(timers),
	}
	return &harness{
		t:      t,
		ctx:    context.Background(),
		clock:  clock,
		store:  store,
		timers: timers,
		coord:  NewCoordinator(engine, rooms, append(base, opts...)...),
		conns:  make(map[string]*fakeConn),
	}
}

func connID(roomID, username string) string {
	return roomID + "/" + strings.ToLower(username)
}

// create makes a room owned by owner and connects the owner to it.
func (h *harness) create(owner string, settings game.Settings) string {
	h.t.Helper()
	room, err := h.coord.CreateRoom(h.ctx, owner, settings)
	require.NoError(h.t, err)
	h.join(room.ID, owner)
	return room.ID
}

func (h *harness) join(roomID, username string) *fakeConn {
	h.t.Helper()
	conn := &fakeConn{}
	_, err := h.coord.Join(h.ctx, connID(roomID, username), conn, roomID, username)
	require.NoError(h.t, err)
	h.conns[connID(roomID, username)] = conn
	return conn
}

func (h *harness) conn(roomID, username string) *fakeConn {
	h.t.Helper()
	conn, ok := h.conns[connID(roomID, username)]
	require.True(h.t, ok, "no connection for %s", username)
	return conn
}

func (h *harness) leave(roomID, username string) {
	h.t.Helper()
	require.NoError(h.t, h.coord.Leave(h.ctx, connID(roomID, username)))
}

func (h *harness) room(roomID string) *game.Room {
	h.t.Helper()
	room, err := h.store.LoadRoom(h.ctx, roomID)
	require.NoError(h.t, err)
	return room
}

func (h *harness) fire(roomID string) {
	h.t.Helper()
	h.timers.Fire(h.t, roomID)
}

// startDrawing starts a game in roomID and has the drawer pick the first
// choice. It returns the drawer and the word.
func (h *harness) startDrawing(roomID, owner string) (string, string) {
	h.t.Helper()
	require.NoError(h.t, h.coord.StartGame(h.ctx, roomID, owner))
	room := h.room(roomID)
	require.Equal(h.t, game.PhasePickingWord, room.Phase)
	require.NotEmpty(h.t, room.PendingWordChoices)
	word := room.PendingWordChoices[0]
	require.NoError(h.t, h.coord.SelectWord(h.ctx, roomID, room.CurrentDrawer, word))
	require.Equal(h.t, game.PhaseDrawing, h.room(roomID).Phase)
	return room.CurrentDrawer, word
}

func guessersOf(room *game.Room) []string {
	var names []string
	for _, p := range room.Players {
		if !room.IsDrawer(p.Username) {
			names = append(names, p.Username)
		}
	}
	return names
}

func eventTypes(s *Store, roomID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []string
	for _, ev := range s.events {
		if ev.RoomID == roomID {
			types = append(types, ev.Type)
		}
	}
	return types
}
