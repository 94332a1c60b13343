package server

import (
	"context"
	"net/http"
	"time"

	"sketch-rooms/internal/config"
	"sketch-rooms/internal/db"
	"sketch-rooms/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	cfg    config.Config
	db     *gorm.DB
	words  *game.WordBank
	engine *game.Engine
	coord  *Coordinator
	router *gin.Engine
}

// New wires the coordinator to Postgres when conn is set and to the in-memory
// store otherwise.
func New(conn *gorm.DB, cfg config.Config, opts ...CoordinatorOption) *Server {
	words := game.DefaultWordBank()
	engine := game.NewEngine(timingFromConfig(cfg), words)

	base := []CoordinatorOption{
		WithRoomDefaults(roomDefaults(cfg)),
		WithCanvasLimit(cfg.CanvasFPS, cfg.CanvasBurst),
		WithTimerRetry(cfg.Seconds(cfg.TimerRetrySeconds)),
		WithUnclaimedRoomTTL(cfg.Seconds(cfg.UnclaimedRoomSeconds)),
	}
	var store RoomStore
	if conn != nil {
		pg := db.NewStore(conn)
		store = pg
		base = append(base, WithChatLog(pg), WithEventLog(pg))
	} else {
		mem := NewStore()
		store = mem
		base = append(base, WithChatLog(mem), WithEventLog(mem))
	}

	s := &Server{
		cfg:    cfg,
		db:     conn,
		words:  words,
		engine: engine,
		coord:  NewCoordinator(engine, store, append(base, opts...)...),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Coordinator() *Coordinator {
	return s.coord
}

func (s *Server) routes() *gin.Engine {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/ws", s.handleWebsocket)

	api := router.Group("/api")
	api.GET("/categories", s.handleCategories)
	api.POST("/rooms", s.handleCreateRoom)
	api.GET("/rooms/:roomID", s.handleGetRoom)
	api.GET("/rooms/:roomID/chat", s.handleRoomChat)

	router.GET("/admin/rooms", s.handleAdminRooms)
	return router
}

// LoadWords merges the Postgres word library into the word bank.
func (s *Server) LoadWords(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, nil
	}
	byCategory, err := db.WordsByCategory(ctx, s.db)
	if err != nil {
		return 0, err
	}
	added := 0
	for category, words := range byCategory {
		added += s.words.Add(category, words...)
	}
	log.Info().Int("words", added).Int("categories", len(byCategory)).Msg("word library loaded")
	return added, nil
}

// LoadWordFile merges a category,word CSV into the word bank.
func (s *Server) LoadWordFile(path string) (int, error) {
	records, err := db.ReadWordCSV(path)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, record := range records {
		added += s.words.Add(record.Category, record.Text)
	}
	log.Info().Str("path", path).Int("words", added).Msg("word file loaded")
	return added, nil
}

func (s *Server) Restore(ctx context.Context) (int, error) {
	return s.coord.Restore(ctx)
}

func timingFromConfig(cfg config.Config) game.Timing {
	return game.Timing{
		WordSelect:     cfg.Seconds(cfg.WordSelectSeconds),
		FullClearGrace: cfg.Seconds(cfg.FullClearGraceSeconds),
		DrawEnd:        cfg.Seconds(cfg.DrawEndSeconds),
		RoundEnd:       cfg.Seconds(cfg.RoundEndSeconds),
		BaselineScore:  cfg.BaselineScore,
		MinPlayers:     cfg.MinPlayers,
	}
}

func roomDefaults(cfg config.Config) game.Settings {
	return game.Settings{
		MaxRounds:         cfg.DefaultMaxRounds,
		RoundTimeSeconds:  cfg.DefaultRoundTime,
		WordChoiceCount:   cfg.DefaultWordChoices,
		Category:          game.DefaultCategory,
		HintRevealPercent: cfg.DefaultHintPercent,
		PlayerLimit:       cfg.DefaultPlayerLimit,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/ws" {
			return
		}
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
