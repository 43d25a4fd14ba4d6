package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalandor/engine/pkg/chat"
)

func TestHeuristicTokenCounter(t *testing.T) {
	c := HeuristicTokenCounter{}

	assert.Equal(t, 0, c.CountTokens(nil))
	assert.Equal(t, 1, c.CountTokens([]chat.Message{chat.User("hi")}))
	assert.Equal(t, 2, c.CountTokens([]chat.Message{chat.User("eightchr")}))

	// Counts accumulate across messages.
	msgs := []chat.Message{chat.System("eightchr"), chat.User("eightchr")}
	assert.Equal(t, 4, c.CountTokens(msgs))
}

func TestHeuristicTokenCounter_Monotonic(t *testing.T) {
	c := HeuristicTokenCounter{}
	short := []chat.Message{chat.User("go north")}
	long := []chat.Message{chat.User("go north, then search the ruined tower for supplies")}
	assert.Greater(t, c.CountTokens(long), c.CountTokens(short))
}
