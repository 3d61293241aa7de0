// Package speech is a thin client for the transcription service that turns
// recorded dictation into text for voice notes.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emr/emr/pkg/apperr"
)

const serviceName = "speech"

// Transcription is the result of transcribing one audio recording.
type Transcription struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
	Language        string  `json:"language"`
}

// Transcriber converts audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, contentType string) (*Transcription, error)
}

// Client talks to the transcription service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a transcription client. The timeout is generous because
// transcription time scales with recording length.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Transcribe uploads the audio stream and returns the transcription. Failures
// surface as external errors; the upload is not retried.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, contentType string) (*Transcription, error) {
	if audio == nil {
		return nil, apperr.Validation("audio stream must not be nil")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcriptions", audio)
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.External(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External(serviceName, fmt.Errorf("transcription service returned status %d", resp.StatusCode))
	}

	var out Transcription
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.External(serviceName, fmt.Errorf("decode transcription response: %w", err))
	}
	if out.Text == "" {
		return nil, apperr.External(serviceName, fmt.Errorf("transcription service returned empty text"))
	}

	return &out, nil
}
