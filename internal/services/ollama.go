package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kalandor/engine/pkg/chat"
)

// OllamaService implements TextService against the Ollama chat API.
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaService creates a new Ollama service instance.
func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:   baseURL,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// GenerateText generates a chat completion. Connection failures and
// 5xx responses are wrapped in ErrTransient so the generation client
// can retry them; malformed requests and 4xx responses are fatal.
func (s *OllamaService) GenerateText(ctx context.Context, messages []chat.Message, maxTokens int) (string, error) {
	reqBody := ollamaChatRequest{
		Model:    s.modelName,
		Messages: messages,
		Stream:   false,
	}
	if maxTokens > 0 {
		reqBody.Options = map[string]any{"num_predict": maxTokens}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	s.logger.Debug("Sending chat request to Ollama",
		"model", s.modelName,
		"message_count", len(messages))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response body: %v", ErrTransient, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		s.logger.Warn("Ollama returned server error",
			"status_code", resp.StatusCode,
			"response_body", string(body))
		return "", fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if ollamaResp.Error != "" {
		return "", fmt.Errorf("API error: %s", ollamaResp.Error)
	}

	return ollamaResp.Message.Content, nil
}
