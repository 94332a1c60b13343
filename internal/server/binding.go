package server

import (
	"errors"
	"net/http"

	"sketch-rooms/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps struct field -> validator tag -> message.
type bindMessages map[string]map[string]string

type roomURI struct {
	RoomID string `uri:"roomID" binding:"required,max=64"`
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": resolveBindError(err, messages, fallback)})
		return false
	}
	return true
}

// bindRoomID reads the :roomID path parameter. An ID no room could have is
// answered exactly like a room that does not exist.
func bindRoomID(c *gin.Context) (string, bool) {
	var uri roomURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeRoomError(c, c.Param("roomID"), game.ErrRoomNotFound)
		return "", false
	}
	return uri.RoomID, true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := messages[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
