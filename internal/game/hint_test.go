package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWordHintStartsMasked(t *testing.T) {
	assert.Equal(t, "___ ___", WordHint("hot dog", 50, 0, time.Minute))
	assert.Equal(t, "_____", WordHint("apple", 0, time.Minute, time.Minute))
}

func TestWordHintRevealsProgressively(t *testing.T) {
	word := "lighthouse"
	half := WordHint(word, 50, 30*time.Second, time.Minute)
	full := WordHint(word, 50, time.Minute, time.Minute)

	assert.Equal(t, 2, len(word)-strings.Count(half, "_"))
	assert.Equal(t, 5, len(word)-strings.Count(full, "_"))
	for i := range half {
		if half[i] != '_' {
			assert.Equal(t, half[i], full[i], "revealed letters stay revealed")
		}
	}
	assert.Equal(t, full, WordHint(word, 50, 2*time.Minute, time.Minute))
}

func TestWordHintKeepsOneLetterHidden(t *testing.T) {
	hint := WordHint("kite", 100, time.Minute, time.Minute)
	assert.Equal(t, 1, strings.Count(hint, "_"))
	assert.Equal(t, "_", WordHint("a", 100, time.Minute, time.Minute))
}
