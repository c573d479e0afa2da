// Package client implements the HTTP transport for the chat backend: the
// streaming chat endpoint, the non-streaming fallback, the status probe,
// and the history clear call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"neuralchat/internal/logger"
	"neuralchat/pkg/chattypes"
)

// DefaultBaseURL is the backend address used when no endpoint is configured.
const DefaultBaseURL = "http://localhost:5000"

// Client talks to the chat backend. It is stateless; one instance serves
// the whole process.
type Client struct {
	baseURL string
	// streamClient carries no overall timeout: a streamed response lives
	// as long as the model keeps generating. Cancellation comes from the
	// request context.
	streamClient *http.Client
	httpClient   *http.Client
}

// NewClient creates a Client for the given base URL. The timeout applies
// to the non-streaming endpoints only.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		streamClient: &http.Client{},
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// simpleResponse is the JSON body of the non-streaming chat endpoint.
type simpleResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
	Error    string `json:"error"`
}

// statusResponse is the JSON body of the status endpoint. Connected is a
// pointer because absence of an explicit negative signal counts as
// connected.
type statusResponse struct {
	Status    string `json:"status"`
	Connected *bool  `json:"connected"`
}

// StreamMessage POSTs the message to the chat endpoint and returns the
// chunked response body for the stream decoder. The caller owns closing
// the body. A rejected connection or non-success status is reported as
// ErrEndpointUnreachable before any decoding starts.
func (c *Client) StreamMessage(ctx context.Context, message string) (io.ReadCloser, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		logger.Debug("Chat request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", chattypes.ErrEndpointUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", chattypes.ErrEndpointUnreachable, resp.StatusCode)
	}

	return resp.Body, nil
}

// SendSimple POSTs the message to the non-streaming fallback endpoint and
// returns the complete response text.
func (c *Client) SendSimple(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/simple", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chattypes.ErrEndpointUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", chattypes.ErrEndpointUnreachable, resp.StatusCode)
	}

	var parsed simpleResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !parsed.Success && parsed.Error != "" {
		return "", fmt.Errorf("chat backend error: %s", parsed.Error)
	}

	return parsed.Response, nil
}

// CheckStatus probes the status endpoint. Only an explicit negative signal
// (error status, connected=false, unreachable endpoint) reads as offline.
func (c *Client) CheckStatus(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Status probe failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		logger.Debug("Status probe returned unparseable body", "error", err)
		return false
	}

	if parsed.Status == "error" {
		return false
	}
	if parsed.Connected != nil && !*parsed.Connected {
		return false
	}
	return true
}

// ClearHistory asks the backend to drop its server-side conversation
// context.
func (c *Client) ClearHistory(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/clear", nil)
	if err != nil {
		return fmt.Errorf("failed to create clear request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", chattypes.ErrEndpointUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", chattypes.ErrEndpointUnreachable, resp.StatusCode)
	}
	return nil
}
