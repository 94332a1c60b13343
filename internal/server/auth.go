package server

import (
	"strings"

	"sketch-rooms/internal/game"
)

// Policy decides who may run owner-only commands.
type Policy interface {
	CanStart(room *game.Room, username string) bool
	CanKick(room *game.Room, requestedBy, target string) bool
}

// OwnerPolicy lets only the current room owner start games and kick.
type OwnerPolicy struct{}

func (OwnerPolicy) CanStart(room *game.Room, username string) bool {
	return isOwner(room, username)
}

func (OwnerPolicy) CanKick(room *game.Room, requestedBy, target string) bool {
	return isOwner(room, requestedBy)
}

func isOwner(room *game.Room, username string) bool {
	if room == nil || room.Owner == "" {
		return false
	}
	return strings.EqualFold(room.Owner, strings.TrimSpace(username))
}
