package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalandor/engine/internal/services"
	"github.com/kalandor/engine/pkg/chat"
)

const (
	// DefaultTokenBudget is the context budget everything in the
	// engine is measured against.
	DefaultTokenBudget = 126000

	defaultSummaryFallback = "Summary of previous events"
	defaultRetryDelay      = 2 * time.Second
	imageCacheTTL          = 24 * time.Hour
)

// GenerationClient is the engine's adapter over the text and image
// services. It owns the retry policy for text generation and the
// call-time budget truncation of outgoing requests.
type GenerationClient struct {
	text    services.TextService
	image   services.ImageService
	counter services.TokenCounter
	cache   services.Cache // optional, nil disables image memoization
	budget  int
	logger  *slog.Logger

	retryDelay time.Duration
}

// NewGenerationClient creates a generation client. cache may be nil.
func NewGenerationClient(text services.TextService, image services.ImageService, counter services.TokenCounter, cache services.Cache, budget int, logger *slog.Logger) *GenerationClient {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &GenerationClient{
		text:       text,
		image:      image,
		counter:    counter,
		cache:      cache,
		budget:     budget,
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
}

// GenerateText calls the text service, retrying indefinitely while it
// signals a transient failure. There is no retry cap and no backoff
// beyond a fixed delay: the loop exits only on success, on a fatal
// error, or when ctx is cancelled.
//
// When the outgoing request itself exceeds the token budget, the
// message sequence is truncated to [first, summaryFallback, last]
// before sending. This is independent of history compaction, which is
// the ContextManager's job; this guard protects the single outgoing
// request regardless of whether compaction already ran.
func (c *GenerationClient) GenerateText(ctx context.Context, messages []chat.Message, maxTokens int, summaryFallback chat.Message) (string, error) {
	if summaryFallback.Content == "" {
		summaryFallback = chat.User(defaultSummaryFallback)
	}

	if len(messages) > 2 && c.counter.CountTokens(messages) > c.budget {
		c.logger.Warn("Outgoing request over token budget, truncating",
			"message_count", len(messages),
			"budget", c.budget)
		messages = []chat.Message{messages[0], summaryFallback, messages[len(messages)-1]}
	}

	attempt := 0
	for {
		response, err := c.text.GenerateText(ctx, messages, maxTokens)
		if err == nil {
			return response, nil
		}
		if !errors.Is(err, services.ErrTransient) {
			return "", fmt.Errorf("text generation failed: %w", err)
		}

		attempt++
		c.logger.Warn("Failed to generate text, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("text generation cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
}

// GenerateImage renders an illustration for the prompt. A single
// attempt only: on failure it logs and returns an empty reference,
// which callers render as "no image" for the turn. Results are
// memoized by prompt when a cache is configured.
func (c *GenerationClient) GenerateImage(ctx context.Context, prompt string) string {
	key := fmt.Sprintf("image:%x", sha256.Sum256([]byte(prompt)))

	if c.cache != nil {
		if ref, err := c.cache.Get(ctx, key); err == nil && ref != "" {
			c.logger.Debug("Image cache hit", "prompt", prompt)
			return ref
		}
	}

	ref, err := c.image.GenerateImage(ctx, prompt)
	if err != nil {
		c.logger.Warn("Image generation failed", "prompt", prompt, "error", err)
		return ""
	}

	if c.cache != nil && ref != "" {
		if err := c.cache.Set(ctx, key, ref, imageCacheTTL); err != nil {
			c.logger.Debug("Failed to cache image reference", "error", err)
		}
	}
	return ref
}
