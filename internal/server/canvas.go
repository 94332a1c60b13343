package server

import (
	"encoding/json"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

type canvasRoom struct {
	drawer  string
	drawing bool
	last    json.RawMessage
}

// canvasRelay forwards drawer frames without touching room state. It tracks
// who may draw from the state broadcasts and throttles each connection with
// a token bucket; frames over the limit are dropped.
type canvasRelay struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	rooms    map[string]*canvasRoom
}

func newCanvasRelay(fps float64, burst int) *canvasRelay {
	if fps <= 0 {
		fps = 30
	}
	if burst <= 0 {
		burst = 1
	}
	return &canvasRelay{
		limit:    rate.Limit(fps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		rooms:    make(map[string]*canvasRoom),
	}
}

func (r *canvasRelay) Allow(connID string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[connID]
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.limiters[connID] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

func (r *canvasRelay) ForgetConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, connID)
}

// Track records the current drawer. A new drawer starts from a blank canvas.
func (r *canvasRelay) Track(roomID, drawer string, drawing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.rooms[roomID]
	if state == nil {
		state = &canvasRoom{}
		r.rooms[roomID] = state
	}
	if !strings.EqualFold(state.drawer, drawer) {
		state.last = nil
	}
	state.drawer = drawer
	state.drawing = drawing
}

// Accept stores frame as the latest one if username is drawing in roomID.
func (r *canvasRelay) Accept(roomID, username string, frame json.RawMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.rooms[roomID]
	if state == nil || !state.drawing || state.drawer == "" || !strings.EqualFold(state.drawer, username) {
		return false
	}
	state.last = append(json.RawMessage(nil), frame...)
	return true
}

func (r *canvasRelay) Clear(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state := r.rooms[roomID]; state != nil {
		state.last = nil
	}
}

func (r *canvasRelay) Last(roomID string) (json.RawMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.rooms[roomID]
	if state == nil || len(state.last) == 0 {
		return nil, false
	}
	return state.last, true
}

func (r *canvasRelay) Drop(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}
