package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalandor/engine/internal/services"
	"github.com/kalandor/engine/pkg/chat"
	"github.com/kalandor/engine/pkg/prompts"
)

const summaryMaxTokens = 1024

// ContextManager owns the ordered message history, the rolling system
// prompt, and the token-budget compaction protocol. Message 0 is
// always the current system prompt and is replaced in place, never
// duplicated, whenever game state changes.
type ContextManager struct {
	messages []chat.Message
	summary  string
	client   *GenerationClient
	counter  services.TokenCounter
	budget   int
	logger   *slog.Logger
}

// NewContextManager seeds the history with an initial system prompt.
func NewContextManager(client *GenerationClient, counter services.TokenCounter, budget int, logger *slog.Logger) *ContextManager {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	cm := &ContextManager{
		messages: make([]chat.Message, 0, 16),
		client:   client,
		counter:  counter,
		budget:   budget,
		logger:   logger,
	}
	cm.RegenerateSystemPrompt("", nil, "")
	return cm
}

// Append adds a message to the history. There is no cap on message
// count; history is bounded only by the token budget.
func (cm *ContextManager) Append(msg chat.Message) {
	cm.messages = append(cm.messages, msg)
}

// AppendToLast appends a suffix to the most recent message's content
// in place. Used to inject per-turn state reminders.
func (cm *ContextManager) AppendToLast(suffix string) {
	if len(cm.messages) == 0 {
		return
	}
	cm.messages[len(cm.messages)-1].Content += suffix
}

// RegenerateSystemPrompt rebuilds message 0 from the fixed template,
// embedding the current location, inventory and summary. The slot is
// replaced, never appended, so repeated calls leave the history
// length unchanged.
func (cm *ContextManager) RegenerateSystemPrompt(location string, inventoryNames []string, summary string) {
	msg := chat.System(prompts.SystemPrompt(location, inventoryNames, summary))
	if len(cm.messages) == 0 {
		cm.messages = append(cm.messages, msg)
		return
	}
	cm.messages[0] = msg
}

// Messages returns a copy of the history for an outgoing request.
func (cm *ContextManager) Messages() []chat.Message {
	out := make([]chat.Message, len(cm.messages))
	copy(out, cm.messages)
	return out
}

// Len returns the number of messages in the history.
func (cm *ContextManager) Len() int {
	return len(cm.messages)
}

// LastContent returns the content of the most recent message.
func (cm *ContextManager) LastContent() string {
	if len(cm.messages) == 0 {
		return ""
	}
	return cm.messages[len(cm.messages)-1].Content
}

// Summary returns the last compacted-history digest.
func (cm *ContextManager) Summary() string {
	return cm.summary
}

// TokenCount sums the token counter over every message.
func (cm *ContextManager) TokenCount() int {
	return cm.counter.CountTokens(cm.messages)
}

// Summarize issues a one-shot request asking the model to conclude
// prior events, stores the raw result as the session summary, and
// returns it. The stored summary feeds the system prompt, budget
// truncation fallback, and item-use reasoning.
func (cm *ContextManager) Summarize(ctx context.Context) (string, error) {
	request := append(cm.Messages(), chat.User(prompts.SummarizeInstruction))
	summary, err := cm.client.GenerateText(ctx, request, summaryMaxTokens, chat.User(cm.summary))
	if err != nil {
		return "", fmt.Errorf("failed to summarize conversation: %w", err)
	}
	cm.summary = summary
	cm.logger.Debug("Conversation summarized", "summary", summary)
	return summary, nil
}

// CompactIfNeeded triggers summarization and a hard history reset
// when the token count exceeds the budget. After compaction the
// history is exactly three messages: the current system prompt, a
// user message quoting the summary, and a system acknowledgment. No
// individual past turn survives.
func (cm *ContextManager) CompactIfNeeded(ctx context.Context) error {
	if cm.TokenCount() <= cm.budget {
		return nil
	}

	cm.logger.Info("Token budget exceeded, compacting history",
		"token_count", cm.TokenCount(),
		"budget", cm.budget,
		"message_count", len(cm.messages))

	summary, err := cm.Summarize(ctx)
	if err != nil {
		return err
	}

	cm.messages = []chat.Message{
		cm.messages[0],
		chat.User(prompts.SummaryHandoff(summary)),
		chat.System(prompts.SummaryAck),
	}
	cm.logger.Info("History reset after compaction")
	return nil
}
