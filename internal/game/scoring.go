package game

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	GuessPointStep       = 10
	DrawerPointsPerGuess = 10
	FullClearBonus       = 20
)

// ScoreForGuess returns the points for guesser's correct answer:
// (players - correct guessers so far - 1) * 10, never negative. The guesser
// is excluded from the "so far" count and the drawer is always counted in
// the player total.
func ScoreForGuess(room *Room, guesser string) int {
	if room == nil {
		return 0
	}
	total := len(room.Players)
	if room.CurrentDrawer != "" && !room.HasPlayer(room.CurrentDrawer) {
		total++
	}
	points := (total - room.correctGuessers(guesser) - 1) * GuessPointStep
	if points < 0 {
		return 0
	}
	return points
}

func DrawerPointsForGuess() int {
	return DrawerPointsPerGuess
}

func DrawerBonusForFullClear() int {
	return FullClearBonus
}

// NormalizeGuess makes guesses comparable: Unicode NFC, case folded, outer
// whitespace trimmed and inner runs collapsed to one space.
func NormalizeGuess(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	text = cases.Fold().String(text)
	return strings.Join(strings.Fields(text), " ")
}

// MatchesWord is the case-insensitive exact match used for scoring.
func MatchesWord(guess, word string) bool {
	if strings.TrimSpace(word) == "" {
		return false
	}
	return NormalizeGuess(guess) == NormalizeGuess(word)
}

// RevealsWord reports whether a chat line contains the word, used to stop
// the drawer from typing the answer.
func RevealsWord(message, word string) bool {
	target := NormalizeGuess(word)
	if target == "" {
		return false
	}
	return strings.Contains(NormalizeGuess(message), target)
}
