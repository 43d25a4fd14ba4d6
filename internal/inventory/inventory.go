// Package inventory owns the player's item collection. Items are
// generated on demand by calling back into the text and image
// services; every generation or parse failure here is logged and
// swallowed so a bad model response never corrupts inventory state.
package inventory

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/text/cases"

	"github.com/kalandor/engine/pkg/chat"
	"github.com/kalandor/engine/pkg/directive"
	"github.com/kalandor/engine/pkg/prompts"
)

const itemGenMaxTokens = 1024

// Item is a single inventory entry. Identity is case-insensitive on
// Name. Items are owned exclusively by the Engine; callers never
// mutate them directly.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// Generator is the slice of the generation client the inventory needs.
type Generator interface {
	GenerateText(ctx context.Context, messages []chat.Message, maxTokens int, summaryFallback chat.Message) (string, error)
	GenerateImage(ctx context.Context, prompt string) string
}

// Engine is the inventory state machine: an ordered collection of
// items bounded by maxSlots, with no duplicate names. Reads and
// writes are guarded internally: the presentation layer reads slots
// while a turn mutates items on another goroutine.
type Engine struct {
	mu       sync.RWMutex
	items    []Item
	maxSlots int
	gen      Generator
	logger   *slog.Logger
}

// NewEngine creates an inventory engine with the given slot capacity.
func NewEngine(gen Generator, maxSlots int, logger *slog.Logger) *Engine {
	return &Engine{
		items:    make([]Item, 0, maxSlots),
		maxSlots: maxSlots,
		gen:      gen,
		logger:   logger,
	}
}

// foldName normalizes an item name for case-insensitive identity.
// A fresh Caser per call: cases.Caser carries internal state and must
// not be shared across goroutines.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// AddItem appends an item. Adding past capacity or re-adding an
// existing name is a no-op.
func (e *Engine) AddItem(item Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.items) >= e.maxSlots {
		e.logger.Debug("Inventory full, dropping item", "item", item.Name)
		return
	}
	if e.hasItem(item.Name) {
		e.logger.Debug("Item already in inventory", "item", item.Name)
		return
	}
	e.items = append(e.items, item)
}

// RemoveItem removes an item by name, case-insensitively. Removing an
// absent name is a no-op.
func (e *Engine) RemoveItem(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	folded := foldName(name)
	kept := e.items[:0]
	for _, item := range e.items {
		if foldName(item.Name) != folded {
			kept = append(kept, item)
		}
	}
	e.items = kept
}

func (e *Engine) hasItem(name string) bool {
	folded := foldName(name)
	for _, item := range e.items {
		if foldName(item.Name) == folded {
			return true
		}
	}
	return false
}

// HasItem reports whether an item with the given name is held.
func (e *Engine) HasItem(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasItem(name)
}

// ItemNames returns the held item names in slot order.
func (e *Engine) ItemNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.items))
	for i, item := range e.items {
		names[i] = item.Name
	}
	return names
}

// ItemAt returns the item in the given slot position.
func (e *Engine) ItemAt(pos int) (Item, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pos < 0 || pos >= len(e.items) {
		return Item{}, false
	}
	return e.items[pos], true
}

// Len returns the number of held items.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

// GenerateSingleItem asks the text model to flesh out an item from a
// name hint and renders its illustration. Returns nil on any
// generation or parse failure; callers treat nil as "no item
// created", never as fatal.
func (e *Engine) GenerateSingleItem(ctx context.Context, nameHint string) *Item {
	system, user := prompts.ItemGen(nameHint)
	response, err := e.gen.GenerateText(ctx, []chat.Message{chat.System(system), chat.User(user)}, itemGenMaxTokens, chat.Message{})
	if err != nil {
		e.logger.Error("Item generation failed", "item", nameHint, "error", err)
		return nil
	}

	var data struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := directive.ParseInto(response, &data); err != nil {
		e.logger.Error("Error parsing item response", "item", nameHint, "error", err, "response", response)
		return nil
	}
	if data.Name == "" {
		data.Name = nameHint
	}

	return &Item{
		Name:        data.Name,
		Description: data.Description,
		ImageRef:    e.gen.GenerateImage(ctx, "pixel art, "+data.Description),
	}
}

// UseItemOne plays out the use of a single held item against the
// given action context. The model decides the effect and whether the
// item survives; a parse failure leaves the item untouched. Returns
// the effect text, or "" when nothing happened.
func (e *Engine) UseItemOne(ctx context.Context, name, actionContext string) string {
	if !e.HasItem(name) {
		e.logger.Debug("Use requested for item not in inventory", "item", name)
		return ""
	}

	system, user := prompts.UseItem(name, actionContext)
	response, err := e.gen.GenerateText(ctx, []chat.Message{chat.System(system), chat.User(user)}, itemGenMaxTokens, chat.Message{})
	if err != nil {
		e.logger.Error("Item use generation failed", "item", name, "error", err)
		return ""
	}

	var data struct {
		Effect   string `json:"effect"`
		KeepItem any    `json:"keep_item"`
	}
	if err := directive.ParseInto(response, &data); err != nil {
		e.logger.Error("Error parsing item use response", "item", name, "error", err, "response", response)
		return ""
	}

	if !directive.CoerceBool(data.KeepItem, true) {
		e.RemoveItem(name)
		e.logger.Info("Item consumed", "item", name, "effect", data.Effect)
	} else {
		e.logger.Info("Item survives use", "item", name, "effect", data.Effect)
	}
	return data.Effect
}

// UseItemMany folds UseItemOne over a list of names and returns the
// non-empty effects in order.
func (e *Engine) UseItemMany(ctx context.Context, names []string, actionContext string) []string {
	var effects []string
	for _, name := range names {
		if effect := e.UseItemOne(ctx, name, actionContext); effect != "" {
			effects = append(effects, effect)
		}
	}
	return effects
}

// StartItems requests a full starting inventory and renders an image
// for each descriptor. Failures yield an empty list, not an error.
func (e *Engine) StartItems(ctx context.Context) []Item {
	system, user := prompts.StartItems(e.maxSlots)
	response, err := e.gen.GenerateText(ctx, []chat.Message{chat.System(system), chat.User(user)}, itemGenMaxTokens, chat.Message{})
	if err != nil {
		e.logger.Error("Starting inventory generation failed", "error", err)
		return nil
	}

	var descriptors []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := directive.ParseListInto(response, &descriptors); err != nil {
		e.logger.Error("Error parsing starting inventory", "error", err, "response", response)
		return nil
	}

	items := make([]Item, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			continue
		}
		prompt := d.Description
		if prompt == "" {
			prompt = "game inventory item"
		}
		items = append(items, Item{
			Name:        d.Name,
			Description: d.Description,
			ImageRef:    e.gen.GenerateImage(ctx, prompt),
		})
	}
	return items
}
