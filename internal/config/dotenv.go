package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int

	WordSelectSeconds     int
	FullClearGraceSeconds int
	DrawEndSeconds        int
	RoundEndSeconds       int
	UnclaimedRoomSeconds  int
	TimerRetrySeconds     int

	DefaultMaxRounds   int
	DefaultRoundTime   int
	DefaultWordChoices int
	DefaultHintPercent int
	DefaultPlayerLimit int
	BaselineScore      int
	MinPlayers         int

	CanvasFPS   float64
	CanvasBurst int

	WordsPath string
	LogLevel  string
	LogPretty bool
}

func Default() Config {
	return Config{
		Port:                     "8080",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		WordSelectSeconds:        15,
		FullClearGraceSeconds:    3,
		DrawEndSeconds:           10,
		RoundEndSeconds:          5,
		UnclaimedRoomSeconds:     120,
		TimerRetrySeconds:        2,
		DefaultMaxRounds:         3,
		DefaultRoundTime:         80,
		DefaultWordChoices:       3,
		DefaultHintPercent:       40,
		DefaultPlayerLimit:       8,
		BaselineScore:            1000,
		MinPlayers:               2,
		CanvasFPS:                30,
		CanvasBurst:              10,
		LogLevel:                 "info",
	}
}

func Load() Config {
	cfg := Default()
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		cfg.Port = raw
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)

	positiveInt("WORD_SELECT_SECONDS", &cfg.WordSelectSeconds)
	nonNegativeInt("FULL_CLEAR_GRACE_SECONDS", &cfg.FullClearGraceSeconds)
	nonNegativeInt("DRAW_END_SECONDS", &cfg.DrawEndSeconds)
	nonNegativeInt("ROUND_END_SECONDS", &cfg.RoundEndSeconds)
	nonNegativeInt("UNCLAIMED_ROOM_SECONDS", &cfg.UnclaimedRoomSeconds)
	positiveInt("TIMER_RETRY_SECONDS", &cfg.TimerRetrySeconds)

	positiveInt("DEFAULT_MAX_ROUNDS", &cfg.DefaultMaxRounds)
	positiveInt("DEFAULT_ROUND_SECONDS", &cfg.DefaultRoundTime)
	positiveInt("DEFAULT_WORD_CHOICES", &cfg.DefaultWordChoices)
	nonNegativeInt("DEFAULT_HINT_PERCENT", &cfg.DefaultHintPercent)
	positiveInt("DEFAULT_PLAYER_LIMIT", &cfg.DefaultPlayerLimit)
	nonNegativeInt("BASELINE_SCORE", &cfg.BaselineScore)
	positiveInt("MIN_PLAYERS", &cfg.MinPlayers)

	if raw := os.Getenv("CANVAS_FPS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.CanvasFPS = value
		}
	}
	positiveInt("CANVAS_BURST", &cfg.CanvasBurst)

	if raw := os.Getenv("WORDS_PATH"); raw != "" {
		cfg.WordsPath = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	return cfg
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) Seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func positiveInt(key string, dst *int) {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			*dst = value
		}
	}
}

func nonNegativeInt(key string, dst *int) {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			*dst = value
		}
	}
}
