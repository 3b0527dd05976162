// Package inference provides a REST client for a hosted generative-language
// API. Calls carry a system instruction plus text and inline binary parts,
// and transient upstream failures are retried with doubling backoff.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Part is a single prompt content part: text or inlined binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded bytes with their MIME type.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// TextPart creates a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart creates an inline-data part from raw bytes.
func BlobPart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// Request describes a single generation call.
type Request struct {
	System string
	Parts  []Part
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generator is the narrow generation contract consumers depend on.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client issues generateContent calls with bounded retries. It holds no
// mutable state beyond the underlying HTTP client and is safe for
// concurrent use.
type Client struct {
	http    *http.Client
	cfg     *Config
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Client from the given configuration. The API key is not
// checked here; a missing key surfaces as ErrMissingKey on first call.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{},
		cfg:     cfg,
		logger:  logger.With("system", "inference"),
		timeout: cfg.TimeoutDuration(),
	}
}

// retryable statuses per upstream guidance: rate limiting and transient
// server failures only.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// Generate sends the request and returns the generated text. Transient
// failures (429/500/503) are retried up to MaxAttempts with doubling
// backoff; any other failure propagates immediately. A deadline elapsing
// surfaces as ErrTimeout, distinct from ErrUnavailable.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	key := os.Getenv(c.cfg.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingKey, c.cfg.APIKeyEnv)
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: req.Parts}},
	}
	if req.System != "" {
		payload.SystemInstruction = &content{Parts: []Part{TextPart(req.System)}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(
		"%s/models/%s:generateContent",
		strings.TrimSuffix(c.cfg.BaseURL, "/"),
		c.cfg.Model,
	)

	var lastStatus int
	delay := c.cfg.BackoffBaseDuration()

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		text, status, err := c.attempt(ctx, url, key, body)
		if err != nil {
			return "", err
		}
		if status == 0 {
			return text, nil
		}

		lastStatus = status
		if !retryable(status) {
			return "", fmt.Errorf("%w: status %d", ErrUpstream, status)
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.Warn(
			"transient inference failure, retrying",
			"status", status,
			"attempt", attempt,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return "", c.classifyContextErr(ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", fmt.Errorf("%w: %d attempts, last status %d", ErrUnavailable, c.cfg.MaxAttempts, lastStatus)
}

// attempt performs one HTTP round trip. On success it returns (text, 0, nil);
// on a non-2xx response it returns (_, status, nil) so the caller decides
// retry; on a hard failure it returns a terminal error.
func (c *Client) attempt(ctx context.Context, url, key string, body []byte) (string, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return "", 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return "", 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, nil
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}

	text := extractText(parsed)
	if text == "" {
		return "", 0, ErrEmptyResponse
	}

	return text, 0, nil
}

func (c *Client) classifyContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
