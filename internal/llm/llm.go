// Package llm is an optional Ollama-backed completion client used as a
// fallback when keyword interpretation is not confident enough.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/logger"
)

var ErrCompletionFailed = errors.New("LLM_COMPLETION_FAILED")

// Completer produces a free-text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Client talks to an Ollama-compatible /api/generate endpoint.
type Client struct {
	cfg  config.LLMConfig
	http *http.Client
	log  logger.Logger
}

func NewClient(cfg config.LLMConfig, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log.WithFields(map[string]interface{}{"component": "llm"}),
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete sends one non-streaming generation request. Low temperature keeps
// command interpretation deterministic.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.3,
			"top_p":       0.9,
			"num_predict": 500,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(c.cfg.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrCompletionFailed, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return out.Response, nil
}
