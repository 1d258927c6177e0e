// Package securevote is the JSON-over-HTTP client for the SecureVote face
// backend. It covers the three face operations: registration, vote-time
// verification, and login verification.
package securevote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/securevote/kiosk/internal/httpc"
)

// Backend API paths.
const (
	PathRegisterFace    = "/api/register-face"
	PathVoteFaceVerify  = "/api/vote-face-verify"
	PathLoginFaceVerify = "/api/login-face-verify"
)

// Result is the backend's verdict on a submitted frame. A rejection carries
// free-text Error; a success may carry a Message.
type Result struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// submitRequest is the request body shared by all three operations.
type submitRequest struct {
	Image string `json:"image"`
}

// DataURI encodes JPEG bytes as the data URI the backend expects.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// Client talks to the SecureVote face backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.Timeout > 0 {
			httpClient = httpc.NewClient(cfg.Timeout)
		} else {
			httpClient = httpc.Client
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  cfg.Logger.With("component", "securevote.client"),
	}, nil
}

// RegisterFace submits a frame for voter face registration.
func (c *Client) RegisterFace(ctx context.Context, image string) (*Result, error) {
	return c.submit(ctx, PathRegisterFace, image)
}

// VoteVerify submits a frame for vote-time verification.
func (c *Client) VoteVerify(ctx context.Context, image string) (*Result, error) {
	return c.submit(ctx, PathVoteFaceVerify, image)
}

// LoginVerify submits a frame for login verification.
func (c *Client) LoginVerify(ctx context.Context, image string) (*Result, error) {
	return c.submit(ctx, PathLoginFaceVerify, image)
}

// submit posts the image to one backend path and interprets the response.
func (c *Client) submit(ctx context.Context, path, image string) (*Result, error) {
	if image == "" {
		return nil, ErrNoImage
	}

	body, err := json.Marshal(submitRequest{Image: image})
	if err != nil {
		return nil, fmt.Errorf("securevote: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("securevote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("securevote: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServerError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Error("unparsable backend response",
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, &ServerError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	// A non-2xx status is a rejection regardless of what the body claims.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.OK = false
	}

	c.logger.Debug("backend result",
		"path", path,
		"ok", result.OK,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("securevote: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("securevote: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Err: fmt.Errorf("backend unhealthy")}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
