package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterLevels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	var buf bytes.Buffer

	SetupWriter(&buf, "warn", false)
	log.Info().Msg("hidden")
	log.Warn().Str("room_id", "r1").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "r1", entry["room_id"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "chatty", true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Info().Msg("pretty")
	assert.Contains(t, buf.String(), "pretty")
}
