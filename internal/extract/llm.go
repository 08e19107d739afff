// Package extract calls an external language model to pull the parts of a
// cleaned page that answer a caller-supplied prompt.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const systemPrompt = "You extract information from web page content. " +
	"Answer the user's instruction using only the provided content. " +
	"Return the extracted text with no commentary."

// Config carries the credentials for an OpenAI-compatible completions API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is a thin chat-completions wrapper implementing the orchestrator's
// Extractor interface.
type Client struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewClient builds the extraction client. API key and base URL are required.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extraction api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("extraction base url is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{client: client, model: cfg.Model, logger: logger}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Extract sends the cleaned content and prompt to the model and returns the
// extracted text.
func (c *Client) Extract(ctx context.Context, content, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("extraction prompt is required")
	}
	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: fmt.Sprintf("Instruction: %s\n\nContent:\n%s", prompt, content)},
			},
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("extraction returned %s", resp.Status())
	}
	if out.Error != nil {
		return "", fmt.Errorf("extraction failed: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("extraction returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
