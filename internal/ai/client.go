package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aibomm/capsule/internal/logger"
)

// ErrEmptyResponse means the endpoint answered but produced no text.
var ErrEmptyResponse = errors.New("empty response")

// TransportError reports a failed round-trip to the chat endpoint.
// StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat completion failed (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat completion failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ClientConfig configures a chat-completions Client.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	temp := c.cfg.Temperature
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	c.log.Debug("chat completion response",
		"status", resp.StatusCode,
		"model", c.cfg.Model,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"bytes", len(raw),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return "", &TransportError{StatusCode: resp.StatusCode, Err: errors.New(snippet)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: ErrEmptyResponse}
	}
	content := out.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: ErrEmptyResponse}
	}
	if out.Usage != nil {
		c.log.Debug("chat completion usage", "total_tokens", out.Usage.TotalTokens)
	}
	return content, nil
}
