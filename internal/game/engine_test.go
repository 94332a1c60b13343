package game

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

var testDefaults = Settings{
	MaxRounds:         2,
	RoundTimeSeconds:  60,
	WordChoiceCount:   3,
	Category:          DefaultCategory,
	HintRevealPercent: 50,
	PlayerLimit:       8,
}

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(DefaultTiming(), DefaultWordBank(), WithClock(clock.Now), WithSeed(7))
	return engine, clock
}

func newTestRoom(e *Engine, settings Settings, names ...string) *Room {
	settings = settings.WithDefaults(testDefaults)
	room := NewRoom("room-1", names[0], settings, e.Now())
	for _, name := range names {
		room.AddPlayer(name, e.Timing().BaselineScore, e.Now())
	}
	return room
}

func apply(t *testing.T, e *Engine, room *Room, ev Event) Outcome {
	t.Helper()
	out, err := e.Apply(room, ev)
	require.NoError(t, err)
	checkInvariants(t, room)
	return out
}

func fire(t *testing.T, e *Engine, room *Room, out Outcome) Outcome {
	t.Helper()
	require.NotNil(t, out.Timer, "expected a pending timer")
	return apply(t, e, room, out.Timer.Event())
}

// checkInvariants asserts the single drawer property after every step.
func checkInvariants(t *testing.T, room *Room) {
	t.Helper()
	drawers := 0
	for _, p := range room.Players {
		if room.IsDrawer(p.Username) {
			drawers++
			assert.False(t, p.HasGuessedCorrectThisTurn, "drawer %s flagged as guessed", p.Username)
		}
	}
	assert.LessOrEqual(t, drawers, 1)
	assert.LessOrEqual(t, room.CurrentRound, room.Settings.MaxRounds)
}

func guessers(room *Room) []string {
	var names []string
	for _, p := range room.Players {
		if !room.IsDrawer(p.Username) {
			names = append(names, p.Username)
		}
	}
	return names
}

func TestStartGameRequiresMinPlayers(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada")

	_, err := engine.Apply(room, Event{Kind: EventStartGame, Username: "ada"})
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, PhaseWaiting, room.Phase)
}

func TestStartGameOffersWordChoices(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{WordChoiceCount: 3}, "ada", "bob", "cy")

	out := apply(t, engine, room, Event{Kind: EventStartGame, Username: "ada"})

	assert.Equal(t, PhasePickingWord, room.Phase)
	assert.Len(t, room.PendingWordChoices, 3)
	assert.NotEmpty(t, room.CurrentDrawer)
	assert.True(t, room.HasPlayer(room.CurrentDrawer))
	assert.True(t, out.ClearCanvas)
	require.NotNil(t, out.Timer)
	assert.Equal(t, EventWordTimeout, out.Timer.Kind)
	assert.Equal(t, 15*time.Second, out.Timer.Delay)

	// Nobody picks, so the engine does.
	clock.Advance(15 * time.Second)
	choices := append([]string(nil), room.PendingWordChoices...)
	out = fire(t, engine, room, out)

	assert.Equal(t, PhaseDrawing, room.Phase)
	assert.Contains(t, choices, room.CurrentWord)
	assert.Empty(t, room.PendingWordChoices)
	assert.Equal(t, clock.Now(), room.TurnStartedAt)
	assert.Equal(t, []string{room.CurrentWord}, room.UsedWords)
	require.NotNil(t, out.Timer)
	assert.Equal(t, EventRoundTimeout, out.Timer.Kind)
	assert.Equal(t, 60*time.Second, out.Timer.Delay)
}

func TestSingleChoiceSkipsPicking(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{WordChoiceCount: 1}, "ada", "bob")

	out := apply(t, engine, room, Event{Kind: EventStartGame})

	assert.Equal(t, PhaseDrawing, room.Phase)
	assert.NotEmpty(t, room.CurrentWord)
	assert.True(t, out.ClearCanvas)
}

func TestSelectWord(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob", "cy")
	apply(t, engine, room, Event{Kind: EventStartGame})
	guesser := guessers(room)[0]
	choice := room.PendingWordChoices[1]

	_, err := engine.Apply(room, Event{Kind: EventSelectWord, Username: guesser, Text: choice})
	require.ErrorIs(t, err, ErrNotDrawer)

	_, err = engine.Apply(room, Event{Kind: EventSelectWord, Username: room.CurrentDrawer, Text: "not-offered"})
	require.ErrorIs(t, err, ErrInvalidWord)

	apply(t, engine, room, Event{Kind: EventSelectWord, Username: room.CurrentDrawer, Text: " " + choice + " "})
	assert.Equal(t, PhaseDrawing, room.Phase)
	assert.Equal(t, choice, room.CurrentWord)
}

func TestIllegalTransitionsAreRejected(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob")

	_, err := engine.Apply(room, Event{Kind: EventGuess, Username: "bob", Text: "apple"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	_, err = engine.Apply(room, Event{Kind: EventSelectWord, Username: "ada", Text: "apple"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	apply(t, engine, room, Event{Kind: EventStartGame})
	_, err = engine.Apply(room, Event{Kind: EventStartGame})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

// startDrawing moves a fresh game into DRAWING with word as the secret.
func startDrawing(t *testing.T, e *Engine, room *Room, word string) Outcome {
	t.Helper()
	apply(t, e, room, Event{Kind: EventStartGame})
	room.PendingWordChoices[0] = word
	return apply(t, e, room, Event{Kind: EventSelectWord, Username: room.CurrentDrawer, Text: word})
}

func TestGuessScoringSequence(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{RoundTimeSeconds: 60}, "ada", "bob", "cy", "dee")
	startDrawing(t, engine, room, "Apple")
	drawer := room.CurrentDrawer
	order := guessers(room)
	require.Len(t, order, 3)

	want := []int{30, 20, 10}
	var out Outcome
	for i, name := range order {
		clock.Advance(500 * time.Millisecond)
		out = apply(t, engine, room, Event{Kind: EventGuess, Username: name, Text: "apple"})
		require.NotNil(t, out.Guess)
		assert.True(t, out.Guess.Correct)
		assert.Equal(t, want[i], out.Guess.Points, "guess %d", i)
		p, _ := room.FindPlayer(name)
		assert.Equal(t, 1000+want[i], p.Score)
		assert.Equal(t, clock.Now(), p.GuessTimestamp)
	}

	d, _ := room.FindPlayer(drawer)
	assert.Equal(t, 1000+3*DrawerPointsPerGuess+FullClearBonus, d.Score)
	assert.Equal(t, 50, d.TurnPointsEarned)
	assert.True(t, out.Guess.FullClear)
	assert.Equal(t, DrawerPointsPerGuess+FullClearBonus, out.Guess.DrawerPoints)

	// Still drawing during the grace period, then DRAW_END well before 60s.
	assert.Equal(t, PhaseDrawing, room.Phase)
	require.NotNil(t, out.Timer)
	assert.Equal(t, EventFullClear, out.Timer.Kind)
	assert.Equal(t, 3*time.Second, out.Timer.Delay)

	clock.Advance(3 * time.Second)
	fire(t, engine, room, out)
	assert.Equal(t, PhaseDrawEnd, room.Phase)
	d, _ = room.FindPlayer(drawer)
	assert.True(t, d.HasDrawnThisGame)
}

func TestGuessRules(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob", "cy")
	startDrawing(t, engine, room, "hot dog")
	guesser := guessers(room)[0]

	_, err := engine.Apply(room, Event{Kind: EventGuess, Username: room.CurrentDrawer, Text: "hot dog"})
	require.ErrorIs(t, err, ErrDrawerCannotGuess)

	_, err = engine.Apply(room, Event{Kind: EventGuess, Username: "nobody", Text: "hot dog"})
	require.ErrorIs(t, err, ErrPlayerNotFound)

	out := apply(t, engine, room, Event{Kind: EventGuess, Username: guesser, Text: "hotdog"})
	require.NotNil(t, out.Guess)
	assert.False(t, out.Guess.Correct)
	assert.False(t, out.Changed)

	apply(t, engine, room, Event{Kind: EventGuess, Username: guesser, Text: "  HOT   Dog "})
	_, err = engine.Apply(room, Event{Kind: EventGuess, Username: guesser, Text: "hot dog"})
	require.ErrorIs(t, err, ErrAlreadyGuessed)
}

func TestFullClearGraceCappedByRoundTime(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{RoundTimeSeconds: 30}, "ada", "bob")
	startDrawing(t, engine, room, "kite")

	clock.Advance(29 * time.Second)
	out := apply(t, engine, room, Event{Kind: EventGuess, Username: guessers(room)[0], Text: "kite"})
	require.NotNil(t, out.Timer)
	assert.Equal(t, time.Second, out.Timer.Delay)
}

func TestRoundTimerIsIdempotent(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob", "cy")
	out := startDrawing(t, engine, room, "kite")
	timer := *out.Timer

	clock.Advance(60 * time.Second)
	apply(t, engine, room, timer.Event())
	require.Equal(t, PhaseDrawEnd, room.Phase)

	before := room.Clone()
	_, err := engine.Apply(room, timer.Event())
	require.ErrorIs(t, err, ErrStaleTimer)
	if diff := cmp.Diff(before, room); diff != "" {
		t.Fatalf("second fire changed the room (-before +after):\n%s", diff)
	}
}

func TestStaleTimerAfterCorrectGuessRace(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob")
	out := startDrawing(t, engine, room, "kite")
	roundTimer := *out.Timer

	out = apply(t, engine, room, Event{Kind: EventGuess, Username: guessers(room)[0], Text: "kite"})
	clock.Advance(3 * time.Second)
	fire(t, engine, room, out)
	require.Equal(t, PhaseDrawEnd, room.Phase)

	_, err := engine.Apply(room, roundTimer.Event())
	require.True(t, errors.Is(err, ErrStaleTimer))
}

func TestDrawerLeavingEndsTurn(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob", "cy")
	startDrawing(t, engine, room, "kite")
	drawer := room.CurrentDrawer

	_, ok := room.RemovePlayer(drawer)
	require.True(t, ok)
	out := apply(t, engine, room, Event{Kind: EventPlayerLeft, Username: drawer, WasDrawer: true})

	assert.Equal(t, PhaseDrawEnd, room.Phase)
	assert.False(t, room.HasPlayer(drawer))
	assert.Empty(t, room.CurrentDrawer)
	require.NotNil(t, out.Timer)
	assert.Equal(t, EventDrawEndElapsed, out.Timer.Kind)
}

func TestGuesserLeavingCanCompleteTurn(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob", "cy")
	startDrawing(t, engine, room, "kite")
	names := guessers(room)
	drawer := room.CurrentDrawer

	apply(t, engine, room, Event{Kind: EventGuess, Username: names[0], Text: "kite"})
	room.RemovePlayer(names[1])
	out := apply(t, engine, room, Event{Kind: EventPlayerLeft, Username: names[1]})

	assert.False(t, room.FullClearAt.IsZero())
	require.NotNil(t, out.Timer)
	assert.Equal(t, EventFullClear, out.Timer.Kind)
	d, _ := room.FindPlayer(drawer)
	assert.Equal(t, 1000+DrawerPointsPerGuess+FullClearBonus, d.Score)
}

func TestTooFewPlayersFinishesGame(t *testing.T) {
	engine, _ := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob")
	startDrawing(t, engine, room, "kite")
	leaver := guessers(room)[0]

	room.RemovePlayer(leaver)
	out := apply(t, engine, room, Event{Kind: EventPlayerLeft, Username: leaver})

	assert.Equal(t, PhaseFinished, room.Phase)
	assert.True(t, out.CancelTimer)
	assert.Nil(t, out.Timer)
}

// playTurn drives one full turn from PICKING_WORD to DRAW_END by timeout.
func playTurn(t *testing.T, e *Engine, clock *testClock, room *Room, out Outcome) Outcome {
	t.Helper()
	require.Equal(t, PhasePickingWord, room.Phase)
	out = apply(t, e, room, Event{Kind: EventSelectWord, Username: room.CurrentDrawer, Text: room.PendingWordChoices[0]})
	for _, name := range guessers(room) {
		out = apply(t, e, room, Event{Kind: EventGuess, Username: name, Text: room.CurrentWord})
	}
	clock.Advance(out.Timer.Delay)
	out = fire(t, e, room, out)
	require.Equal(t, PhaseDrawEnd, room.Phase)
	return out
}

func TestFullGameRotationAndReset(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{MaxRounds: 2}, "ada", "bob", "cy")
	out := apply(t, engine, room, Event{Kind: EventStartGame})

	scores := map[string]int{}
	for round := 1; round <= 2; round++ {
		drawers := map[string]bool{}
		for turn := 0; turn < 3; turn++ {
			require.Equal(t, round, room.CurrentRound)
			drawers[room.CurrentDrawer] = true
			out = playTurn(t, engine, clock, room, out)

			for _, p := range room.Players {
				assert.GreaterOrEqual(t, p.Score, scores[p.Username], "score of %s decreased", p.Username)
				scores[p.Username] = p.Score
			}

			clock.Advance(out.Timer.Delay)
			out = fire(t, engine, room, out)
			if turn < 2 {
				require.Equal(t, PhasePickingWord, room.Phase)
				assert.Equal(t, round, room.CurrentRound, "round advanced before everyone drew")
			}
		}
		assert.Len(t, drawers, 3, "each player draws once per round")
		if round == 1 {
			require.Equal(t, PhaseRoundEnd, room.Phase)
			clock.Advance(out.Timer.Delay)
			out = fire(t, engine, room, out)
			require.Equal(t, PhasePickingWord, room.Phase)
		}
	}

	require.Equal(t, PhaseRoundEnd, room.Phase)
	clock.Advance(out.Timer.Delay)
	fire(t, engine, room, out)
	require.Equal(t, PhaseFinished, room.Phase)
	assert.Equal(t, 2, room.CurrentRound)

	// Play again.
	apply(t, engine, room, Event{Kind: EventStartGame})
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, PhasePickingWord, room.Phase)
	assert.Empty(t, room.UsedWords)
	for _, p := range room.Players {
		assert.Equal(t, 1000, p.Score)
		assert.False(t, p.HasDrawnThisGame)
		assert.Zero(t, p.RoundPointsEarned)
	}
}

func TestRoundEndSkippedWhenCooldownIsZero(t *testing.T) {
	timing := DefaultTiming()
	timing.RoundEnd = 0
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(timing, nil, WithClock(clock.Now), WithSeed(1))
	room := newTestRoom(engine, Settings{MaxRounds: 3}, "ada", "bob")

	out := apply(t, engine, room, Event{Kind: EventStartGame})
	for turn := 0; turn < 2; turn++ {
		out = playTurn(t, engine, clock, room, out)
		clock.Advance(out.Timer.Delay)
		out = fire(t, engine, room, out)
	}
	assert.Equal(t, PhasePickingWord, room.Phase)
	assert.Equal(t, 2, room.CurrentRound)
}

func TestLateJoinerDrawsThisRound(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{}, "ada", "bob")
	out := apply(t, engine, room, Event{Kind: EventStartGame})
	out = playTurn(t, engine, clock, room, out)
	firstDrawer := room.CurrentDrawer

	room.AddPlayer("cy", engine.Timing().BaselineScore, clock.Now())
	clock.Advance(out.Timer.Delay)
	fire(t, engine, room, out)

	require.Equal(t, PhasePickingWord, room.Phase)
	assert.Equal(t, 1, room.CurrentRound)
	assert.NotEqual(t, firstDrawer, room.CurrentDrawer)
	assert.True(t, room.HasPlayer(room.CurrentDrawer))
}

func TestPendingTimerAfterRestart(t *testing.T) {
	engine, clock := newTestEngine(t)
	room := newTestRoom(engine, Settings{RoundTimeSeconds: 80}, "ada", "bob")
	startDrawing(t, engine, room, "kite")

	clock.Advance(50 * time.Second)
	timer, ok := engine.PendingTimer(room)
	require.True(t, ok)
	assert.Equal(t, EventRoundTimeout, timer.Kind)
	assert.Equal(t, 30*time.Second, timer.Delay)
	assert.Equal(t, room.TurnToken, timer.Token)

	clock.Advance(time.Hour)
	timer, ok = engine.PendingTimer(room)
	require.True(t, ok)
	assert.Zero(t, timer.Delay)

	_, ok = engine.PendingTimer(NewRoom("idle", "ada", testDefaults, clock.Now()))
	assert.False(t, ok)
}
