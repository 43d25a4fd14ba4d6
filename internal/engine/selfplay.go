package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kalandor/engine/pkg/chat"
	"github.com/kalandor/engine/pkg/prompts"
)

// SelfPlayDriver generates a synthetic user action from the current
// scenario when the player is idle. It never mutates game state
// itself; the caller feeds the result through AddUserMessage and
// GenerateResponse exactly like human input.
type SelfPlayDriver struct {
	client *GenerationClient
	logger *slog.Logger
}

// NewSelfPlayDriver creates a self-play driver.
func NewSelfPlayDriver(client *GenerationClient, logger *slog.Logger) *SelfPlayDriver {
	return &SelfPlayDriver{client: client, logger: logger}
}

// SelfPlay issues a one-shot request for a plausible next user action
// given the last scenario text and returns the raw string.
func (d *SelfPlayDriver) SelfPlay(ctx context.Context, lastScenario string) (string, error) {
	system, user := prompts.SelfPlay(lastScenario)
	input, err := d.client.GenerateText(ctx, []chat.Message{chat.System(system), chat.User(user)}, turnMaxTokens, chat.Message{})
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	d.logger.Info("Self-play input generated", "input", input)
	return input, nil
}
