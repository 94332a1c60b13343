package server

import (
	"net/http"
	"strings"

	"sketch-rooms/internal/game"
	"sketch-rooms/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleAdminRooms(c *gin.Context) {
	rooms, err := s.coord.Rooms(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin list rooms failed")
		c.String(http.StatusInternalServerError, "failed to load rooms")
		return
	}
	phase := strings.ToUpper(strings.TrimSpace(c.Query("phase")))
	if phase != "" {
		rooms = filterRooms(rooms, game.Phase(phase))
	}

	q := adminRoomListing.query(c)
	basePath := "/admin/rooms"
	if phase != "" {
		basePath += "?phase=" + phase
	}
	pagination := paginate(basePath, q, len(rooms))
	start, end := pageBounds(pagination)

	summaries := make([]web.RoomSummary, 0, end-start)
	for _, room := range rooms[start:end] {
		summaries = append(summaries, web.RoomSummary{
			ID:           room.ID,
			Owner:        room.Owner,
			Phase:        string(room.Phase),
			CurrentRound: room.CurrentRound,
			MaxRounds:    room.Settings.MaxRounds,
			Players:      len(room.Players),
			Connected:    s.coord.Registry().Bound(room.ID),
			CreatedAt:    room.CreatedAt,
		})
	}
	templ.Handler(web.AdminRooms(web.AdminRoomsData{
		Rooms:      summaries,
		Categories: s.words.Categories(),
		Pagination: pagination,
	})).ServeHTTP(c.Writer, c.Request)
}

func filterRooms(rooms []*game.Room, phase game.Phase) []*game.Room {
	filtered := rooms[:0:0]
	for _, room := range rooms {
		if room.Phase == phase {
			filtered = append(filtered, room)
		}
	}
	return filtered
}
