// Package adk provides a client for a hosted Agent Development Kit
// runtime: session lifecycle plus the /run invocation the pipeline uses
// to dispatch stage prompts to specialized agents.
package adk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MessagePart is a single text segment of a run message.
type MessagePart struct {
	Text string `json:"text"`
}

// Message is the new_message payload of a run call.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

type runRequest struct {
	AppName    string  `json:"app_name"`
	UserID     string  `json:"user_id"`
	SessionID  string  `json:"session_id"`
	NewMessage Message `json:"new_message"`
}

// Event is one entry of the ordered event list a run returns.
type Event struct {
	Content struct {
		Parts []MessagePart `json:"parts"`
	} `json:"content"`
}

// Runner is the stage invocation contract the pipeline depends on.
type Runner interface {
	Run(ctx context.Context, sessionID, prompt string) (string, error)
}

// Client talks to the agent runtime over HTTP.
type Client struct {
	http    *http.Client
	cfg     *Config
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a runtime client from the given configuration.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{},
		cfg:     cfg,
		logger:  logger.With("system", "adk"),
		timeout: cfg.TimeoutDuration(),
	}
}

func (c *Client) sessionURL(sessionID string) string {
	return fmt.Sprintf(
		"%s/apps/%s/users/%s/sessions/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"),
		c.cfg.AppName,
		c.cfg.UserID,
		sessionID,
	)
}

// CreateSession registers a session with the runtime. Creation is
// idempotent: a 409 for an existing session is success.
func (c *Client) CreateSession(ctx context.Context, sessionID string) error {
	status, err := c.do(ctx, http.MethodPost, c.sessionURL(sessionID), bytes.NewReader([]byte("{}")), nil)
	if err != nil {
		return err
	}

	if status == http.StatusConflict {
		c.logger.Debug("session already exists", "session", sessionID)
		return nil
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: create session status %d", ErrRuntimeUnreachable, status)
	}

	return nil
}

// DeleteSession removes a session from the runtime. A missing session is
// not an error.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	status, err := c.do(ctx, http.MethodDelete, c.sessionURL(sessionID), nil, nil)
	if err != nil {
		return err
	}

	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: delete session status %d", ErrRuntimeUnreachable, status)
	}

	return nil
}

// Run sends a prompt into the session and returns the text of the last
// event that carries any. Agent selection happens runtime-side from the
// routing keyword embedded in the prompt.
func (c *Client) Run(ctx context.Context, sessionID, prompt string) (string, error) {
	payload := runRequest{
		AppName:   c.cfg.AppName,
		UserID:    c.cfg.UserID,
		SessionID: sessionID,
		NewMessage: Message{
			Role:  "user",
			Parts: []MessagePart{{Text: prompt}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal run request: %w", err)
	}

	var events []Event
	status, err := c.do(
		ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/run",
		bytes.NewReader(body),
		&events,
	)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: run status %d", ErrRuntimeUnreachable, status)
	}

	text := lastText(events)
	if text == "" {
		return "", ErrNoOutput
	}

	return text, nil
}

// do performs one request, optionally decoding a 2xx JSON body into out.
// Transport failures wrap ErrRuntimeUnreachable; HTTP statuses are
// returned for the caller to interpret.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out any) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntimeUnreachable, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp.StatusCode, nil
}

func lastText(events []Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		var sb strings.Builder
		for _, p := range events[i].Content.Parts {
			sb.WriteString(p.Text)
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			return s
		}
	}
	return ""
}
