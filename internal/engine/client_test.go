package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalandor/engine/internal/services"
	"github.com/kalandor/engine/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mapCache is an in-memory Cache for tests.
type mapCache struct {
	data map[string]string
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string]string)} }

func (m *mapCache) Ping(ctx context.Context) error { return nil }
func (m *mapCache) Set(ctx context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	m.sets++
	return nil
}
func (m *mapCache) Get(ctx context.Context, key string) (string, error) {
	return m.data[key], nil
}
func (m *mapCache) Close() error { return nil }

func newTestClient(text *services.MockTextService, image *services.MockImageService, counter services.TokenCounter, cache services.Cache) *GenerationClient {
	c := NewGenerationClient(text, image, counter, cache, DefaultTokenBudget, testLogger())
	c.retryDelay = time.Millisecond
	return c
}

func TestGenerateText_RetriesTransientFailures(t *testing.T) {
	text := services.NewMockTextService()
	attempts := 0
	text.GenerateTextFunc = func(ctx context.Context, messages []chat.Message, maxTokens int) (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("%w: connection refused", services.ErrTransient)
		}
		return "finally", nil
	}

	c := newTestClient(text, services.NewMockImageService(), services.HeuristicTokenCounter{}, nil)
	out, err := c.GenerateText(context.Background(), []chat.Message{chat.User("hi")}, 128, chat.Message{})
	require.NoError(t, err)
	assert.Equal(t, "finally", out)
	assert.Equal(t, 3, attempts)
}

func TestGenerateText_FatalErrorDoesNotRetry(t *testing.T) {
	text := services.NewMockTextService()
	text.SetError(errors.New("invalid model"))

	c := newTestClient(text, services.NewMockImageService(), services.HeuristicTokenCounter{}, nil)
	_, err := c.GenerateText(context.Background(), []chat.Message{chat.User("hi")}, 128, chat.Message{})
	require.Error(t, err)
	assert.Len(t, text.Calls(), 1)
}

func TestGenerateText_CancellationStopsRetrying(t *testing.T) {
	text := services.NewMockTextService()
	text.SetError(fmt.Errorf("%w: still down", services.ErrTransient))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := newTestClient(text, services.NewMockImageService(), services.HeuristicTokenCounter{}, nil)
	_, err := c.GenerateText(ctx, []chat.Message{chat.User("hi")}, 128, chat.Message{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateText_TruncatesOverBudgetRequests(t *testing.T) {
	text := services.NewMockTextService()
	// Every message costs 50k tokens, so four messages blow the budget.
	counter := services.FixedTokenCounter{PerMessage: 50000}

	c := newTestClient(text, services.NewMockImageService(), counter, nil)
	messages := []chat.Message{
		chat.System("system prompt"),
		chat.User("turn one"),
		chat.Assistant("scenario one"),
		chat.User("turn two"),
	}
	fallback := chat.User("what happened so far")

	_, err := c.GenerateText(context.Background(), messages, 128, fallback)
	require.NoError(t, err)

	calls := text.Calls()
	require.Len(t, calls, 1)
	sent := calls[0].Messages
	require.Len(t, sent, 3)
	assert.Equal(t, "system prompt", sent[0].Content)
	assert.Equal(t, fallback, sent[1])
	assert.Equal(t, "turn two", sent[2].Content)
}

func TestGenerateText_UnderBudgetSendsFullHistory(t *testing.T) {
	text := services.NewMockTextService()
	c := newTestClient(text, services.NewMockImageService(), services.HeuristicTokenCounter{}, nil)

	messages := []chat.Message{chat.System("s"), chat.User("a"), chat.Assistant("b"), chat.User("c")}
	_, err := c.GenerateText(context.Background(), messages, 128, chat.Message{})
	require.NoError(t, err)

	calls := text.Calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Messages, 4)
}

func TestGenerateImage_FailureYieldsEmptyRef(t *testing.T) {
	image := services.NewMockImageService()
	image.SetError(errors.New("render failed"))

	c := newTestClient(services.NewMockTextService(), image, services.HeuristicTokenCounter{}, nil)
	ref := c.GenerateImage(context.Background(), "a torch")
	assert.Empty(t, ref)
	assert.Len(t, image.Calls(), 1) // single attempt, no retry
}

func TestGenerateImage_CacheHitSkipsService(t *testing.T) {
	image := services.NewMockImageService()
	cache := newMapCache()

	c := newTestClient(services.NewMockTextService(), image, services.HeuristicTokenCounter{}, cache)

	first := c.GenerateImage(context.Background(), "a torch")
	second := c.GenerateImage(context.Background(), "a torch")

	assert.Equal(t, first, second)
	assert.Len(t, image.Calls(), 1)
	assert.Equal(t, 1, cache.sets)
}
