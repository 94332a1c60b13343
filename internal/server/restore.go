package server

import (
	"context"

	"sketch-rooms/internal/game"

	"github.com/rs/zerolog/log"
)

// Restore re-arms timers for every stored room after a restart. Deadlines are
// wall clock based, so a phase that expired while the process was down fires
// right away. Seats nobody reconnects to are swept.
func (c *Coordinator) Restore(ctx context.Context) (int, error) {
	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return 0, err
	}
	for _, room := range rooms {
		if err := c.restoreRoom(ctx, room); err != nil {
			return 0, err
		}
	}
	log.Info().Int("rooms", len(rooms)).Msg("rooms restored")
	return len(rooms), nil
}

func (c *Coordinator) restoreRoom(ctx context.Context, room *game.Room) error {
	unlock, err := c.locks.Lock(ctx, room.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if timer, ok := c.engine.PendingTimer(room); ok {
		c.applyTimer(room, &game.Outcome{Timer: &timer})
		log.Debug().Str("room_id", room.ID).Str("phase", string(room.Phase)).Dur("delay", timer.Delay).Msg("timer restored")
	}
	c.canvas.Track(room.ID, room.CurrentDrawer, room.Phase == game.PhaseDrawing)
	if c.registry.Bound(room.ID) == 0 {
		c.scheduleSweep(room.ID)
	}
	return nil
}
