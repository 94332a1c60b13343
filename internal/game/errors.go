package game

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRevisionConflict  = errors.New("room revision conflict")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrNotDrawer         = errors.New("only the drawer can do that")
	ErrDrawerCannotGuess = errors.New("drawer cannot guess")
	ErrAlreadyGuessed    = errors.New("word already guessed")
	ErrInvalidWord       = errors.New("word is not one of the choices")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrNoEligibleDrawer  = errors.New("no player left to draw this round")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrStaleTimer        = errors.New("stale timer")
)
