package server

import (
	"errors"
	"net/http"
	"strings"

	"sketch-rooms/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type createRoomRequest struct {
	Username          string `json:"username" binding:"required,username"`
	Category          string `json:"category" binding:"omitempty,category"`
	MaxRounds         int    `json:"maxRounds" binding:"omitempty,min=1"`
	RoundTimeSeconds  int    `json:"roundTimeSeconds" binding:"omitempty,min=15,max=300"`
	WordChoiceCount   int    `json:"wordChoiceCount" binding:"omitempty,min=1,max=5"`
	HintRevealPercent *int   `json:"hintRevealPercent" binding:"omitempty,min=0,max=100"`
	PlayerLimit       int    `json:"playerLimit" binding:"omitempty,min=2"`
}

var createRoomMessages = bindMessages{
	"Username": {
		"required": "username is required",
		"username": "username must be 1-20 letters, numbers, or simple punctuation",
	},
	"Category":          {"category": "unknown category"},
	"MaxRounds":         {"min": "maxRounds must be at least 1"},
	"RoundTimeSeconds":  {"min": "roundTimeSeconds must be between 15 and 300", "max": "roundTimeSeconds must be between 15 and 300"},
	"WordChoiceCount":   {"min": "wordChoiceCount must be between 1 and 5", "max": "wordChoiceCount must be between 1 and 5"},
	"HintRevealPercent": {"min": "hintRevealPercent must be between 0 and 100", "max": "hintRevealPercent must be between 0 and 100"},
	"PlayerLimit":       {"min": "playerLimit must be at least 2"},
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.words.Categories()})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req, createRoomMessages, "invalid room settings") {
		return
	}
	username, err := validateName(req.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, _ := validateCategory(req.Category)
	if category != "" && !s.words.HasCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	if req.MaxRounds > maxRoundsPerGame {
		req.MaxRounds = maxRoundsPerGame
	}
	if req.PlayerLimit > maxRoomPlayers {
		req.PlayerLimit = maxRoomPlayers
	}
	hint := -1
	if req.HintRevealPercent != nil {
		hint = *req.HintRevealPercent
	}

	room, err := s.coord.CreateRoom(c.Request.Context(), username, game.Settings{
		MaxRounds:         req.MaxRounds,
		RoundTimeSeconds:  req.RoundTimeSeconds,
		WordChoiceCount:   req.WordChoiceCount,
		Category:          category,
		HintRevealPercent: hint,
		PlayerLimit:       req.PlayerLimit,
	})
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("create room failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": userMessage(err)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"roomId": room.ID,
		"room":   s.engine.View(room, username),
	})
}

// handleGetRoom returns the anonymous spectator view; the word stays hidden.
func (s *Server) handleGetRoom(c *gin.Context) {
	roomID, ok := bindRoomID(c)
	if !ok {
		return
	}
	view, err := s.coord.View(c.Request.Context(), roomID, "")
	if err != nil {
		writeRoomError(c, roomID, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRoomChat(c *gin.Context) {
	roomID, ok := bindRoomID(c)
	if !ok {
		return
	}
	if _, err := s.coord.Room(c.Request.Context(), roomID); err != nil {
		writeRoomError(c, roomID, err)
		return
	}
	q := chatListing.query(c)
	messages, total, err := s.coord.ChatHistory(c.Request.Context(), roomID, q.Page, q.PerPage)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("chat history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": paginate("/api/rooms/"+roomID+"/chat", q, int(total)),
	})
}

func writeRoomError(c *gin.Context, roomID string, err error) {
	if errors.Is(err, game.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	log.Error().Err(err).Str("room_id", strings.TrimSpace(roomID)).Msg("load room failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
}
