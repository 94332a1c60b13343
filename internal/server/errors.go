package server

import (
	"context"
	"errors"

	"sketch-rooms/internal/game"
)

var (
	ErrPersistence    = errors.New("room could not be saved")
	ErrRoomBusy       = errors.New("room is busy")
	ErrNotInRoom      = errors.New("not in a room")
	ErrAlreadyKicked  = errors.New("kicked from room")
	ErrAlreadyInRoom  = errors.New("username already in room")
	ErrRoomFull       = errors.New("room is full")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrCannotKickSelf = errors.New("cannot kick yourself")

	errUnknownMessage = errors.New("unknown message type")
)

// inputError carries a validation message that is already fit for players.
type inputError struct {
	err error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return &inputError{err: err}
}

// userMessage maps an error to text that is safe to show a player.
func userMessage(err error) string {
	var input *inputError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &input):
		return input.Error()
	case errors.Is(err, errUnknownMessage):
		return "Unknown message type."
	case errors.Is(err, game.ErrRoomNotFound):
		return "That room does not exist."
	case errors.Is(err, ErrAlreadyKicked):
		return "You were kicked from this room."
	case errors.Is(err, ErrAlreadyInRoom):
		return "That username is already taken in this room."
	case errors.Is(err, ErrRoomFull):
		return "This room is full."
	case errors.Is(err, ErrNotInRoom), errors.Is(err, game.ErrPlayerNotFound):
		return "Join a room first."
	case errors.Is(err, ErrNotAuthorized):
		return "Only the room owner can do that."
	case errors.Is(err, ErrCannotKickSelf):
		return "You can't kick yourself."
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "Not enough players to start."
	case errors.Is(err, game.ErrNotDrawer):
		return "Only the drawer can pick the word."
	case errors.Is(err, game.ErrInvalidWord):
		return "That word isn't one of the choices."
	case errors.Is(err, game.ErrDrawerCannotGuess):
		return "The drawer can't guess."
	case errors.Is(err, game.ErrAlreadyGuessed):
		return "You already guessed the word."
	case errors.Is(err, game.ErrIllegalTransition):
		return "You can't do that right now."
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrRoomBusy),
		errors.Is(err, game.ErrRevisionConflict), errors.Is(err, context.DeadlineExceeded):
		return "Something went wrong, please try again."
	default:
		return "Something went wrong."
	}
}

// retryable reports whether a failed commit may succeed if simply tried again.
func retryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrRoomBusy)
}
