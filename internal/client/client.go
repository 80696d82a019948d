// ABOUTME: HTTP client for the mindease API, used by the CLI subcommands
// ABOUTME: Thin JSON wrapper over the chat, history, and provider endpoints

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

	"github.com/2389/mindease/internal/gateway"
	"github.com/2389/mindease/internal/store"
)

// Client talks to a running mindease server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// chatRequest mirrors the server's POST /api/chat body.
type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type historyResponse struct {
	Messages []*store.ConversationTurn `json:"messages"`
}

type providersResponse struct {
	Providers []gateway.ProviderStatus `json:"providers"`
}

// Chat sends a message and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "/api/chat", chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// History returns the full persisted conversation.
func (c *Client) History(ctx context.Context) ([]*store.ConversationTurn, error) {
	var resp historyResponse
	if err := c.get(ctx, "/api/chat/history", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Providers returns the gateway's provider status report.
func (c *Client) Providers(ctx context.Context) ([]gateway.ProviderStatus, error) {
	var resp providersResponse
	if err := c.get(ctx, "/api/providers", &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("%s: status %d", req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
