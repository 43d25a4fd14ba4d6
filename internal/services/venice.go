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
)

const veniceBaseURL = "https://api.venice.ai/api/v1"

// VeniceImageService implements ImageService against the Venice AI
// image generation API.
type VeniceImageService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVeniceImageService creates a new Venice AI image service.
func NewVeniceImageService(apiKey string, modelName string, logger *slog.Logger) *VeniceImageService {
	return &VeniceImageService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type veniceImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type veniceImageResponse struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateImage renders one image and returns its reference. Unlike
// text generation there is no retry tier here: any failure is an
// error, and the caller degrades to "no image" for the turn.
func (v *VeniceImageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	veniceReq := veniceImageRequest{
		Model:  v.modelName,
		Prompt: prompt,
		Format: "png",
	}

	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", veniceBaseURL+"/image/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var veniceResp veniceImageResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}
	if veniceResp.ID == "" {
		return "", fmt.Errorf("empty image response")
	}

	v.logger.Debug("Image generated", "image_id", veniceResp.ID, "count", len(veniceResp.Images))
	return veniceResp.ID, nil
}
