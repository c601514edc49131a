package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"nekobot/internal/domain"
)

const invalidImageMarker = "invalid_image_format"

// Client talks to an OpenAI-compatible chat-completions endpoint and always
// requests a streamed response.
type Client struct {
	apiKey      string
	apiBase     string
	model       string
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

type ClientConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	Logger      *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		apiBase:     cfg.APIBase,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      newStreamingClient(0),
		logger:      cfg.Logger,
	}
}

type chatRequest struct {
	Messages    []domain.Query `json:"messages"`
	Model       string         `json:"model"`
	Temperature float64        `json:"temperature"`
	Stream      bool           `json:"stream"`
}

// Stream sends the queries and returns the response body for the caller to
// reassemble. Non-200 statuses are classified into the domain error kinds.
func (c *Client) Stream(ctx context.Context, queries []domain.Query) (io.ReadCloser, error) {
	body := chatRequest{
		Messages:    queries,
		Model:       c.model,
		Temperature: c.temperature,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrUsageLimit
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(respBody), invalidImageMarker):
		return nil, domain.ErrInvalidImage
	default:
		c.logger.Error("openai error response", "status", resp.StatusCode, "body", string(respBody))
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
}
