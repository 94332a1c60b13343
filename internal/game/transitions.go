package game

import (
	"strings"
	"time"
)

type transitionFunc func(e *Engine, room *Room, ev Event, out *Outcome) error

// transitions enumerates every legal (phase, event) pair. Anything missing is
// rejected by Apply.
var transitions = map[Phase]map[EventKind]transitionFunc{
	PhaseWaiting: {
		EventStartGame:  (*Engine).startGame,
		EventPlayerLeft: (*Engine).playerLeft,
	},
	PhasePickingWord: {
		EventSelectWord:  (*Engine).selectWord,
		EventWordTimeout: (*Engine).wordTimeout,
		EventPlayerLeft:  (*Engine).playerLeft,
	},
	PhaseDrawing: {
		EventGuess:        (*Engine).guess,
		EventRoundTimeout: (*Engine).roundTimeout,
		EventFullClear:    (*Engine).fullClear,
		EventPlayerLeft:   (*Engine).playerLeft,
	},
	PhaseDrawEnd: {
		EventDrawEndElapsed: (*Engine).drawEndElapsed,
		EventPlayerLeft:     (*Engine).playerLeft,
	},
	PhaseRoundEnd: {
		EventRoundEndElapsed: (*Engine).roundEndElapsed,
		EventPlayerLeft:      (*Engine).playerLeft,
	},
	PhaseFinished: {
		EventStartGame:  (*Engine).playAgain,
		EventPlayerLeft: (*Engine).playerLeft,
	},
}

func (e *Engine) startGame(room *Room, ev Event, out *Outcome) error {
	if len(room.Players) < e.minPlayers() {
		return ErrNotEnoughPlayers
	}
	room.CurrentRound = 1
	room.CurrentDrawer = ""
	for i := range room.Players {
		room.Players[i].HasDrawnThisGame = false
		room.Players[i].RoundPointsEarned = 0
	}
	out.notice("The game has started! Round 1 of %d.", room.Settings.MaxRounds)
	return e.beginTurn(room, out)
}

func (e *Engine) playAgain(room *Room, ev Event, out *Outcome) error {
	if len(room.Players) < e.minPlayers() {
		return ErrNotEnoughPlayers
	}
	e.resetGame(room)
	return e.startGame(room, ev, out)
}

// resetGame puts scores and per-game flags back to their starting values.
func (e *Engine) resetGame(room *Room) {
	room.CurrentRound = 1
	room.CurrentDrawer = ""
	room.CurrentWord = ""
	room.PendingWordChoices = nil
	room.UsedWords = nil
	room.FullClearAt = time.Time{}
	for i := range room.Players {
		p := &room.Players[i]
		p.Score = e.timing.BaselineScore
		p.HasDrawnThisGame = false
		p.RoundPointsEarned = 0
		p.resetTurn()
	}
}

// beginTurn picks the next drawer among players who have not drawn this round
// and moves to PICKING_WORD, or straight to DRAWING for single-word rooms.
func (e *Engine) beginTurn(room *Room, out *Outcome) error {
	candidates := room.undrawn()
	if len(candidates) == 0 {
		return ErrNoEligibleDrawer
	}
	drawer := candidates[e.intn(len(candidates))]

	for i := range room.Players {
		room.Players[i].resetTurn()
	}
	room.CurrentDrawer = drawer
	room.CurrentWord = ""
	room.PendingWordChoices = nil
	room.FullClearAt = time.Time{}
	out.Changed = true
	out.ClearCanvas = true

	choices := e.words.Pick(room.Settings.Category, max(room.Settings.WordChoiceCount, 1), room.UsedWords, e.intn)
	if len(choices) == 0 {
		return ErrInvalidWord
	}
	if room.Settings.WordChoiceCount <= 1 {
		e.startDrawing(room, choices[0], out)
		return nil
	}
	room.PendingWordChoices = choices
	e.setPhase(room, PhasePickingWord)
	e.arm(room, out)
	out.notice("%s is choosing a word.", drawer)
	return nil
}

func (e *Engine) startDrawing(room *Room, word string, out *Outcome) {
	room.CurrentWord = word
	room.PendingWordChoices = nil
	room.UsedWords = append(room.UsedWords, word)
	e.setPhase(room, PhaseDrawing)
	e.arm(room, out)
	out.Changed = true
	out.ClearCanvas = true
	out.notice("%s is drawing now!", room.CurrentDrawer)
}

func (e *Engine) selectWord(room *Room, ev Event, out *Outcome) error {
	if !room.IsDrawer(ev.Username) {
		return ErrNotDrawer
	}
	for _, choice := range room.PendingWordChoices {
		if strings.EqualFold(strings.TrimSpace(ev.Text), choice) {
			e.startDrawing(room, choice, out)
			return nil
		}
	}
	return ErrInvalidWord
}

func (e *Engine) wordTimeout(room *Room, ev Event, out *Outcome) error {
	choices := room.PendingWordChoices
	if len(choices) == 0 {
		choices = e.words.Pick(room.Settings.Category, 1, room.UsedWords, e.intn)
	}
	if len(choices) == 0 {
		return ErrInvalidWord
	}
	out.notice("%s didn't pick in time, so a word was chosen for them.", room.CurrentDrawer)
	e.startDrawing(room, choices[e.intn(len(choices))], out)
	return nil
}

func (e *Engine) guess(room *Room, ev Event, out *Outcome) error {
	guesser, ok := room.FindPlayer(ev.Username)
	if !ok {
		return ErrPlayerNotFound
	}
	if room.IsDrawer(guesser.Username) {
		return ErrDrawerCannotGuess
	}
	if !MatchesWord(ev.Text, room.CurrentWord) {
		out.Guess = &GuessResult{}
		return nil
	}
	if guesser.HasGuessedCorrectThisTurn {
		return ErrAlreadyGuessed
	}

	points := ScoreForGuess(room, guesser.Username)
	guesser.award(points)
	guesser.HasGuessedCorrectThisTurn = true
	guesser.GuessTimestamp = e.now()
	result := &GuessResult{Correct: true, Points: points}
	if drawer, ok := room.Drawer(); ok {
		drawer.award(DrawerPointsForGuess())
		result.DrawerPoints = DrawerPointsForGuess()
	}
	out.Guess = result
	out.Changed = true
	out.notice("%s guessed the word!", guesser.Username)

	e.checkFullClear(room, out)
	return nil
}

// checkFullClear pays the drawer bonus once and swaps the round timer for the
// short grace timer when nobody is left to guess.
func (e *Engine) checkFullClear(room *Room, out *Outcome) {
	if room.Phase != PhaseDrawing || !room.FullClearAt.IsZero() || !room.everyoneGuessed() {
		return
	}
	room.FullClearAt = e.now()
	if drawer, ok := room.Drawer(); ok {
		drawer.award(DrawerBonusForFullClear())
		if out.Guess != nil {
			out.Guess.DrawerPoints += DrawerBonusForFullClear()
		}
	}
	if out.Guess != nil {
		out.Guess.FullClear = true
	}
	out.Changed = true
	e.arm(room, out)
	out.notice("Everyone guessed the word!")
}

func (e *Engine) roundTimeout(room *Room, ev Event, out *Outcome) error {
	out.notice("Time's up! The word was %q.", room.CurrentWord)
	e.endTurn(room, out)
	return nil
}

func (e *Engine) fullClear(room *Room, ev Event, out *Outcome) error {
	out.notice("The word was %q.", room.CurrentWord)
	e.endTurn(room, out)
	return nil
}

func (e *Engine) endTurn(room *Room, out *Outcome) {
	if drawer, ok := room.Drawer(); ok {
		drawer.HasDrawnThisGame = true
	}
	room.PendingWordChoices = nil
	e.setPhase(room, PhaseDrawEnd)
	e.arm(room, out)
	out.Changed = true
}

// playerLeft runs after the caller removed the player from room.Players.
func (e *Engine) playerLeft(room *Room, ev Event, out *Outcome) error {
	out.Changed = true
	if room.Phase.InGame() && len(room.Players) < e.minPlayers() {
		e.finish(room, out, "Not enough players to continue.")
		return nil
	}
	switch room.Phase {
	case PhasePickingWord, PhaseDrawing:
		if ev.WasDrawer {
			room.CurrentDrawer = ""
			if room.CurrentWord != "" {
				out.notice("The drawer left. The word was %q.", room.CurrentWord)
			} else {
				out.notice("The drawer left, so this turn is over.")
			}
			room.PendingWordChoices = nil
			e.setPhase(room, PhaseDrawEnd)
			e.arm(room, out)
			return nil
		}
		e.checkFullClear(room, out)
	case PhaseDrawEnd, PhaseRoundEnd:
		if ev.WasDrawer {
			room.CurrentDrawer = ""
		}
	}
	return nil
}

func (e *Engine) drawEndElapsed(room *Room, ev Event, out *Outcome) error {
	if len(room.undrawn()) > 0 {
		return e.beginTurn(room, out)
	}
	if e.timing.RoundEnd <= 0 {
		return e.advanceRound(room, out)
	}
	e.setPhase(room, PhaseRoundEnd)
	e.arm(room, out)
	out.Changed = true
	out.notice("Round %d is over.", room.CurrentRound)
	return nil
}

func (e *Engine) roundEndElapsed(room *Room, ev Event, out *Outcome) error {
	if len(room.undrawn()) > 0 {
		return e.beginTurn(room, out)
	}
	return e.advanceRound(room, out)
}

// advanceRound runs only once every player has drawn this round.
func (e *Engine) advanceRound(room *Room, out *Outcome) error {
	if room.CurrentRound >= room.Settings.MaxRounds {
		e.finish(room, out, "")
		return nil
	}
	room.CurrentRound++
	room.CurrentDrawer = ""
	for i := range room.Players {
		room.Players[i].HasDrawnThisGame = false
		room.Players[i].RoundPointsEarned = 0
	}
	out.notice("Round %d of %d.", room.CurrentRound, room.Settings.MaxRounds)
	return e.beginTurn(room, out)
}

func (e *Engine) finish(room *Room, out *Outcome, reason string) {
	room.CurrentDrawer = ""
	room.PendingWordChoices = nil
	e.setPhase(room, PhaseFinished)
	out.Timer = nil
	out.CancelTimer = true
	out.Changed = true
	if reason != "" {
		out.notice("%s", reason)
	}
	if winner, ok := room.leader(); ok {
		out.notice("Game over! %s wins with %d points.", winner.Username, winner.Score)
	}
}

func (e *Engine) minPlayers() int {
	if e.timing.MinPlayers < 1 {
		return 1
	}
	return e.timing.MinPlayers
}
