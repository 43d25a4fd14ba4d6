package services

import (
	"context"
	"sync"

	"github.com/kalandor/engine/pkg/chat"
)

// MockTextService is a mock implementation of TextService for testing.
type MockTextService struct {
	GenerateTextFunc func(ctx context.Context, messages []chat.Message, maxTokens int) (string, error)

	// Track calls for testing
	GenerateTextCalls []GenerateTextCall

	mu sync.Mutex // protects fields above
}

type GenerateTextCall struct {
	Messages  []chat.Message
	MaxTokens int
}

// NewMockTextService creates a new mock text service.
func NewMockTextService() *MockTextService {
	return &MockTextService{
		GenerateTextCalls: make([]GenerateTextCall, 0),
	}
}

func (m *MockTextService) GenerateText(ctx context.Context, messages []chat.Message, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]chat.Message, len(messages))
	copy(msgs, messages)
	m.GenerateTextCalls = append(m.GenerateTextCalls, GenerateTextCall{
		Messages:  msgs,
		MaxTokens: maxTokens,
	})

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, messages, maxTokens)
	}
	return "Mock response", nil
}

// SetResponses queues fixed responses, returned in order. The last
// response repeats once the queue is exhausted.
func (m *MockTextService) SetResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := 0
	m.GenerateTextFunc = func(ctx context.Context, messages []chat.Message, maxTokens int) (string, error) {
		resp := responses[min(i, len(responses)-1)]
		i++
		return resp, nil
	}
}

// SetError sets up the mock to always return an error.
func (m *MockTextService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextFunc = func(ctx context.Context, messages []chat.Message, maxTokens int) (string, error) {
		return "", err
	}
}

// Calls returns a copy of the call tracking data.
func (m *MockTextService) Calls() []GenerateTextCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]GenerateTextCall, len(m.GenerateTextCalls))
	copy(calls, m.GenerateTextCalls)
	return calls
}

// MockImageService is a mock implementation of ImageService for testing.
type MockImageService struct {
	GenerateImageFunc func(ctx context.Context, prompt string) (string, error)

	GenerateImageCalls []string

	mu sync.Mutex
}

// NewMockImageService creates a new mock image service.
func NewMockImageService() *MockImageService {
	return &MockImageService{
		GenerateImageCalls: make([]string, 0),
	}
}

func (m *MockImageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateImageCalls = append(m.GenerateImageCalls, prompt)

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return "mock-image", nil
}

// SetError sets up the mock to always return an error.
func (m *MockImageService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateImageFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", err
	}
}

// Calls returns a copy of the prompts seen so far.
func (m *MockImageService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.GenerateImageCalls))
	copy(calls, m.GenerateImageCalls)
	return calls
}

// FixedTokenCounter charges a fixed token cost per message. Useful for
// driving budget thresholds deterministically in tests.
type FixedTokenCounter struct {
	PerMessage int
}

func (f FixedTokenCounter) CountTokens(messages []chat.Message) int {
	return len(messages) * f.PerMessage
}
