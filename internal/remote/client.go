// Package remote talks to the HTTP backend that hosts the indexing,
// generation and quality-check stages when they do not run in process.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

const maxErrorBody = 4 << 10

// Client implements the external pipeline services over the backend's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ core.Indexer        = (*Client)(nil)
	_ core.Generator      = (*Client)(nil)
	_ core.QualityChecker = (*Client)(nil)
)

// NewClient creates a backend client. A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(cfg config.BackendConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type idRequest struct {
	ID string `json:"id"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	ID     string `json:"id"`
}

type backendResponse struct {
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
	SystematicReview string `json:"systematic_review,omitempty"`
}

// Upsert asks the backend to index the review's attachments.
func (c *Client) Upsert(ctx context.Context, id core.ReviewID) error {
	resp, err := c.post(ctx, "/api/upsert", idRequest{ID: string(id)})
	if err != nil {
		return err
	}
	c.logger.Debug("backend upsert finished", "review_id", id, "message", resp.Message)
	return nil
}

// Generate asks the backend for the review text.
func (c *Client) Generate(ctx context.Context, prompt string, id core.ReviewID) (string, error) {
	resp, err := c.post(ctx, "/api/generate", generateRequest{Prompt: prompt, ID: string(id)})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.SystematicReview)
	if text == "" {
		return "", fmt.Errorf("%w: backend returned an empty review", core.ErrTransientExternal)
	}
	return text, nil
}

// QualityCheck asks the backend to build the quality-check artifacts.
func (c *Client) QualityCheck(ctx context.Context, id core.ReviewID) error {
	resp, err := c.post(ctx, "/api/quality_check", idRequest{ID: string(id)})
	if err != nil {
		return err
	}
	c.logger.Debug("backend quality check finished", "review_id", id, "message", resp.Message)
	return nil
}

// post sends body as JSON. Any transport error, non-2xx status or error
// field in the response is reported as core.ErrTransientExternal.
func (c *Client) post(ctx context.Context, path string, body any) (*backendResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", core.ErrTransientExternal, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response of %s: %w", core.ErrTransientExternal, path, err)
	}
	c.logger.Debug("backend call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	var out backendResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = truncate(string(raw), maxErrorBody)
		}
		return nil, fmt.Errorf("%w: POST %s returned %d: %s", core.ErrTransientExternal, path, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: invalid response from %s: %w", core.ErrTransientExternal, path, decodeErr)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrTransientExternal, path, errors.New(out.Error))
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
