// Package engine drives one narrative game session: it maintains the
// bounded conversational context, extracts structured directives from
// model output, runs the inventory state machine, and orchestrates
// text and image generation for each turn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kalandor/engine/internal/inventory"
	"github.com/kalandor/engine/pkg/chat"
	"github.com/kalandor/engine/pkg/directive"
	"github.com/kalandor/engine/pkg/prompts"
)

const turnMaxTokens = 1024

// TurnResult is what one completed turn hands back to the
// presentation layer. A nil *TurnResult with a nil error means the
// turn was abandoned (unparseable model output) and nothing changed.
type TurnResult struct {
	Answer     string
	ImageRef   string
	ScoreDelta int
	Effects    []string // item-use effects, when the turn used items
}

// Engine is the narrative turn state machine for a single session.
// Session lifetime is process lifetime; nothing is persisted.
//
// Exactly one turn may run at a time. The internal mutex enforces
// this for callers that mix human input with idle self-play.
type Engine struct {
	id        uuid.UUID
	location  string
	score     int
	history   *ContextManager
	client    *GenerationClient
	inventory *inventory.Engine
	logger    *slog.Logger

	mu sync.Mutex // one turn at a time
}

// New creates a session engine with a freshly seeded system prompt.
func New(client *GenerationClient, history *ContextManager, inv *inventory.Engine, logger *slog.Logger) *Engine {
	id := uuid.New()
	return &Engine{
		id:        id,
		history:   history,
		client:    client,
		inventory: inv,
		logger:    logger.With("session_id", id.String()),
	}
}

// ID returns the session ID.
func (e *Engine) ID() uuid.UUID { return e.id }

// Location returns the current location.
func (e *Engine) Location() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location
}

// Score returns the running score total.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Inventory exposes the session's inventory for the presentation
// layer (slot rendering, hover details). The engine itself never
// mutates items outside a turn.
func (e *Engine) Inventory() *inventory.Engine { return e.inventory }

// LastScenario returns the most recent message content, used to seed
// self-play input.
func (e *Engine) LastScenario() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.LastContent()
}

// AddUserMessage appends a player (or self-play) input to history.
func (e *Engine) AddUserMessage(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Append(chat.User(text))
}

// GenerateResponse runs one full turn: state injection, text
// generation, directive parsing, inventory dispatch, image
// generation, and system prompt regeneration.
//
// A turn whose model output yields no directive, or whose inventory
// dispatch fails, is abandoned: the result is nil with a nil error, no
// game state changes, and the assistant message stays in history. A
// non-nil error means the turn could not run at all (fatal service
// error or cancellation).
func (e *Engine) GenerateResponse(ctx context.Context) (result *TurnResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A model-driven turn touches a lot of loosely-typed data; a
	// panic here must not take down the session.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Turn panicked", "panic", r)
			result = nil
			err = nil
		}
	}()

	// Inject current state into the outgoing message.
	e.history.AppendToLast(prompts.TurnSuffix(e.location, e.inventory.ItemNames()))

	// Protect against an already-oversized pre-turn history.
	if err := e.history.CompactIfNeeded(ctx); err != nil {
		return nil, err
	}

	raw, err := e.client.GenerateText(ctx, e.history.Messages(), turnMaxTokens, chat.User(e.history.Summary()))
	if err != nil {
		return nil, err
	}
	e.history.Append(chat.Assistant(raw))

	// Second checkpoint: the freshly appended response may have
	// pushed the history over budget.
	if err := e.history.CompactIfNeeded(ctx); err != nil {
		return nil, err
	}

	d, err := directive.Parse(raw)
	if err != nil {
		var pf *directive.ParseFailure
		if errors.As(err, &pf) {
			e.logger.Warn("Abandoning turn on unparseable response", "reason", pf.Reason, "response", pf.RawText)
			return nil, nil
		}
		return nil, err
	}

	effects, err := e.dispatchInventory(ctx, d)
	if err != nil {
		e.logger.Error("Abandoning turn on inventory dispatch failure", "error", err)
		return nil, nil
	}
	imageRef := e.client.GenerateImage(ctx, d.Image)

	if d.Location != "" {
		e.location = d.Location
	}
	e.score += d.Score
	e.history.RegenerateSystemPrompt(e.location, e.inventory.ItemNames(), e.history.Summary())

	e.logger.Info("Turn complete",
		"location", e.location,
		"score_delta", d.Score,
		"action", string(d.Action))

	return &TurnResult{
		Answer:     d.Answer,
		ImageRef:   imageRef,
		ScoreDelta: d.Score,
		Effects:    effects,
	}, nil
}

// dispatchInventory routes the directive's action to the inventory
// state machine. Failures inside the inventory are already swallowed
// there; an error here means the dispatch itself could not run, and
// the caller abandons the turn before any visible state change.
func (e *Engine) dispatchInventory(ctx context.Context, d *directive.ScenarioDirective) ([]string, error) {
	switch d.Action {
	case directive.ActionUseItem:
		// Item use reasons over a fresh digest of the session so far.
		summary, err := e.history.Summarize(ctx)
		if err != nil {
			return nil, fmt.Errorf("summarize for item use: %w", err)
		}
		return e.inventory.UseItemMany(ctx, d.Items, summary), nil
	case directive.ActionAddToInventory:
		for _, name := range d.Items {
			if item := e.inventory.GenerateSingleItem(ctx, name); item != nil {
				e.inventory.AddItem(*item)
			}
		}
	case directive.ActionRemoveFromInventory:
		for _, name := range d.Items {
			e.inventory.RemoveItem(name)
		}
	}
	return nil, nil
}

// StartSession generates the starting inventory and runs the opening
// turn on the seeded system prompt.
func (e *Engine) StartSession(ctx context.Context) (*TurnResult, error) {
	for _, item := range e.inventory.StartItems(ctx) {
		e.inventory.AddItem(item)
	}
	return e.GenerateResponse(ctx)
}
