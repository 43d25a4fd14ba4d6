package services

import (
	"context"
	"errors"

	"github.com/kalandor/engine/pkg/chat"
)

// ErrTransient marks a generation failure that is expected to clear on
// retry (connection refused, 5xx, model busy). The generation client
// retries these indefinitely; any other error is fatal and propagates.
var ErrTransient = errors.New("transient generation failure")

// TextService generates free-form text from a conversation.
type TextService interface {
	GenerateText(ctx context.Context, messages []chat.Message, maxTokens int) (string, error)
}

// ImageService renders an illustration for a prompt. The returned
// reference is opaque to the engine; callers only pass it through.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// TokenCounter approximates the token cost of a message sequence.
// Used only for budget threshold comparisons, never billing.
type TokenCounter interface {
	CountTokens(messages []chat.Message) int
}

// DisabledImageService stands in when no image backend is configured.
// Every request fails, which the engine renders as "no image".
type DisabledImageService struct{}

func (DisabledImageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("image generation is not configured")
}
