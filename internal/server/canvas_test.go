package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasRelayAcceptsOnlyDrawer(t *testing.T) {
	r := newCanvasRelay(30, 5)
	frame := json.RawMessage(`{"x":1}`)

	assert.False(t, r.Accept("r1", "ada", frame), "unknown room")

	r.Track("r1", "ada", false)
	assert.False(t, r.Accept("r1", "ada", frame), "not drawing yet")

	r.Track("r1", "ada", true)
	assert.False(t, r.Accept("r1", "bob", frame))
	assert.True(t, r.Accept("r1", "ADA", frame))

	last, ok := r.Last("r1")
	require.True(t, ok)
	assert.JSONEq(t, `{"x":1}`, string(last))

	r.Track("r1", "ada", false)
	_, ok = r.Last("r1")
	assert.True(t, ok, "same drawer keeps the canvas through the turn end")

	r.Track("r1", "bob", true)
	_, ok = r.Last("r1")
	assert.False(t, ok, "a new drawer starts blank")

	assert.True(t, r.Accept("r1", "bob", frame))
	r.Clear("r1")
	_, ok = r.Last("r1")
	assert.False(t, ok)

	r.Drop("r1")
	assert.False(t, r.Accept("r1", "bob", frame))
}

func TestCanvasRelayRateLimitsPerConnection(t *testing.T) {
	r := newCanvasRelay(1, 3)
	allowed := 0
	for i := 0; i < 10; i++ {
		if r.Allow("c1") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
	assert.True(t, r.Allow("c2"), "limits are per connection")

	r.ForgetConn("c1")
	assert.True(t, r.Allow("c1"), "a forgotten connection starts with a full bucket")
}
