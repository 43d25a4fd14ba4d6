package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalandor/engine/internal/services"
	"github.com/kalandor/engine/pkg/chat"
	"github.com/kalandor/engine/pkg/prompts"
)

func newTestContext(text *services.MockTextService, counter services.TokenCounter, budget int) *ContextManager {
	client := newTestClient(text, services.NewMockImageService(), counter, nil)
	return NewContextManager(client, counter, budget, testLogger())
}

func TestContextManager_SeedsSystemPrompt(t *testing.T) {
	cm := newTestContext(services.NewMockTextService(), services.HeuristicTokenCounter{}, 0)

	require.Equal(t, 1, cm.Len())
	msgs := cm.Messages()
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Unknown") // no location yet
}

func TestContextManager_RegenerateReplacesInPlace(t *testing.T) {
	cm := newTestContext(services.NewMockTextService(), services.HeuristicTokenCounter{}, 0)
	cm.Append(chat.User("go north"))

	cm.RegenerateSystemPrompt("Cave", []string{"torch"}, "")
	cm.RegenerateSystemPrompt("Deeper Cave", []string{"torch"}, "")

	require.Equal(t, 2, cm.Len())
	msgs := cm.Messages()
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Deeper Cave")
	assert.NotContains(t, msgs[0].Content, "Unknown")
}

func TestContextManager_AppendToLast(t *testing.T) {
	cm := newTestContext(services.NewMockTextService(), services.HeuristicTokenCounter{}, 0)
	cm.Append(chat.User("open the chest"))

	cm.AppendToLast(" (carefully)")
	assert.Equal(t, "open the chest (carefully)", cm.LastContent())
	assert.Equal(t, 2, cm.Len())
}

func TestContextManager_SummarizeStoresSummary(t *testing.T) {
	text := services.NewMockTextService()
	text.SetResponses("The party entered the cave.")

	cm := newTestContext(text, services.HeuristicTokenCounter{}, 0)
	cm.Append(chat.User("enter the cave"))

	summary, err := cm.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The party entered the cave.", summary)
	assert.Equal(t, summary, cm.Summary())

	// The summarize instruction rides as an extra trailing message and
	// never lands in the stored history.
	calls := text.Calls()
	require.Len(t, calls, 1)
	sent := calls[0].Messages
	assert.Equal(t, prompts.SummarizeInstruction, sent[len(sent)-1].Content)
	assert.Equal(t, 2, cm.Len())
}

func TestContextManager_CompactIfNeeded_UnderBudgetIsNoop(t *testing.T) {
	text := services.NewMockTextService()
	cm := newTestContext(text, services.HeuristicTokenCounter{}, 0)
	cm.Append(chat.User("look around"))

	require.NoError(t, cm.CompactIfNeeded(context.Background()))
	assert.Equal(t, 2, cm.Len())
	assert.Empty(t, text.Calls())
}

func TestContextManager_CompactIfNeeded_ResetsHistory(t *testing.T) {
	text := services.NewMockTextService()
	text.SetResponses("Everything that happened, condensed.")

	// Every message costs 100 tokens against a 250 budget, so four
	// messages force a compaction.
	counter := services.FixedTokenCounter{PerMessage: 100}
	cm := newTestContext(text, counter, 250)
	cm.Append(chat.User("turn one"))
	cm.Append(chat.Assistant("scenario one"))
	cm.Append(chat.User("turn two"))

	require.NoError(t, cm.CompactIfNeeded(context.Background()))

	msgs := cm.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	assert.Equal(t, chat.RoleUser, msgs[1].Role)
	assert.True(t, strings.Contains(msgs[1].Content, "Everything that happened, condensed."))
	assert.Equal(t, chat.RoleSystem, msgs[2].Role)
	assert.Equal(t, prompts.SummaryAck, msgs[2].Content)
	assert.Equal(t, "Everything that happened, condensed.", cm.Summary())
}
