// Package ai is a thin client for the completion service that drafts
// clinical note text from transcripts and templates.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emr/emr/pkg/apperr"
)

const serviceName = "ai"

// CompletionRequest describes a single drafting request.
type CompletionRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// CompletionResponse is the generated text returned by the service.
type CompletionResponse struct {
	Text string `json:"text"`
}

// Completer generates text for a completion request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client talks to the completion service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a completion client. baseURL points at the service root.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends the request and returns the generated text. Transport and
// non-2xx failures surface as external errors so callers can degrade cleanly;
// the request is not retried.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return "", apperr.Validation("user prompt must not be empty")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apperr.External(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.External(serviceName, fmt.Errorf("completion service returned status %d", resp.StatusCode))
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.External(serviceName, fmt.Errorf("decode completion response: %w", err))
	}
	if out.Text == "" {
		return "", apperr.External(serviceName, fmt.Errorf("completion service returned empty text"))
	}

	return out.Text, nil
}
