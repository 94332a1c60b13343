package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

type EventKind string

const (
	EventStartGame       EventKind = "startGame"
	EventSelectWord      EventKind = "selectWord"
	EventGuess           EventKind = "guess"
	EventPlayerLeft      EventKind = "playerLeft"
	EventWordTimeout     EventKind = "wordTimeout"
	EventRoundTimeout    EventKind = "roundTimeout"
	EventFullClear       EventKind = "fullClear"
	EventDrawEndElapsed  EventKind = "drawEndElapsed"
	EventRoundEndElapsed EventKind = "roundEndElapsed"
)

func (k EventKind) scheduled() bool {
	switch k {
	case EventWordTimeout, EventRoundTimeout, EventFullClear, EventDrawEndElapsed, EventRoundEndElapsed:
		return true
	default:
		return false
	}
}

// Event is one input to the state machine. Scheduled events carry the phase
// and turn token they were armed for; anything else is a stale timer.
type Event struct {
	Kind          EventKind
	Username      string
	Text          string
	WasDrawer     bool
	ExpectedPhase Phase
	Token         int64
}

// Timer describes a scheduled transition.
type Timer struct {
	Kind  EventKind
	Phase Phase
	Token int64
	Delay time.Duration
}

func (t Timer) Event() Event {
	return Event{Kind: t.Kind, ExpectedPhase: t.Phase, Token: t.Token}
}

type GuessResult struct {
	Correct      bool
	Points       int
	DrawerPoints int
	FullClear    bool
}

// Outcome lists what a transition did so the caller can persist, schedule,
// and notify without re-deriving it.
type Outcome struct {
	From        Phase
	To          Phase
	Changed     bool
	Timer       *Timer
	CancelTimer bool
	ClearCanvas bool
	Notices     []string
	Guess       *GuessResult
}

func (o Outcome) PhaseChanged() bool {
	return o.From != o.To
}

func (o *Outcome) notice(format string, args ...any) {
	o.Notices = append(o.Notices, fmt.Sprintf(format, args...))
}

type Timing struct {
	WordSelect     time.Duration
	FullClearGrace time.Duration
	DrawEnd        time.Duration
	RoundEnd       time.Duration
	BaselineScore  int
	MinPlayers     int
}

func DefaultTiming() Timing {
	return Timing{
		WordSelect:     15 * time.Second,
		FullClearGrace: 3 * time.Second,
		DrawEnd:        10 * time.Second,
		RoundEnd:       5 * time.Second,
		BaselineScore:  1000,
		MinPlayers:     2,
	}
}

// Engine is the turn scheduler. It is safe for concurrent use across rooms;
// each room must still be serialized by the caller.
type Engine struct {
	timing Timing
	words  *WordBank
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func NewEngine(timing Timing, words *WordBank, opts ...Option) *Engine {
	if words == nil {
		words = DefaultWordBank()
	}
	e := &Engine{
		timing: timing,
		words:  words,
		now:    func() time.Time { return time.Now().UTC() },
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Timing() Timing {
	return e.timing
}

func (e *Engine) Words() *WordBank {
	return e.words
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) intn(n int) int {
	if n <= 1 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}

// Apply runs ev against room. On error the room may be partially modified and
// must be discarded by the caller.
func (e *Engine) Apply(room *Room, ev Event) (Outcome, error) {
	if room == nil {
		return Outcome{}, ErrRoomNotFound
	}
	if ev.Kind.scheduled() && (room.Phase != ev.ExpectedPhase || room.TurnToken != ev.Token) {
		return Outcome{}, fmt.Errorf("%w: %s armed for %s/%d, room is %s/%d",
			ErrStaleTimer, ev.Kind, ev.ExpectedPhase, ev.Token, room.Phase, room.TurnToken)
	}
	handler, ok := transitions[room.Phase][ev.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s during %s", ErrIllegalTransition, ev.Kind, room.Phase)
	}
	out := Outcome{From: room.Phase}
	if err := handler(e, room, ev, &out); err != nil {
		return Outcome{}, err
	}
	out.To = room.Phase
	return out, nil
}

// Deadline is the wall-clock instant the room's current phase times out.
func (e *Engine) Deadline(room *Room) (time.Time, bool) {
	switch room.Phase {
	case PhasePickingWord:
		return room.TurnStartedAt.Add(e.timing.WordSelect), true
	case PhaseDrawing:
		end := room.TurnStartedAt.Add(room.Settings.RoundTime())
		if !room.FullClearAt.IsZero() {
			if grace := room.FullClearAt.Add(e.timing.FullClearGrace); grace.Before(end) {
				end = grace
			}
		}
		return end, true
	case PhaseDrawEnd:
		return room.TurnStartedAt.Add(e.timing.DrawEnd), true
	case PhaseRoundEnd:
		return room.TurnStartedAt.Add(e.timing.RoundEnd), true
	default:
		return time.Time{}, false
	}
}

// PendingTimer returns the transition the room is waiting on, with the delay
// measured from now so it survives restarts.
func (e *Engine) PendingTimer(room *Room) (Timer, bool) {
	deadline, ok := e.Deadline(room)
	if !ok {
		return Timer{}, false
	}
	var kind EventKind
	switch room.Phase {
	case PhasePickingWord:
		kind = EventWordTimeout
	case PhaseDrawing:
		kind = EventRoundTimeout
		if !room.FullClearAt.IsZero() {
			kind = EventFullClear
		}
	case PhaseDrawEnd:
		kind = EventDrawEndElapsed
	case PhaseRoundEnd:
		kind = EventRoundEndElapsed
	}
	delay := deadline.Sub(e.now())
	if delay < 0 {
		delay = 0
	}
	return Timer{Kind: kind, Phase: room.Phase, Token: room.TurnToken, Delay: delay}, true
}

func (e *Engine) arm(room *Room, out *Outcome) {
	if timer, ok := e.PendingTimer(room); ok {
		out.Timer = &timer
		out.CancelTimer = false
		return
	}
	out.Timer = nil
	out.CancelTimer = true
}

func (e *Engine) setPhase(room *Room, phase Phase) {
	room.Phase = phase
	room.TurnStartedAt = e.now()
	room.TurnToken++
}
