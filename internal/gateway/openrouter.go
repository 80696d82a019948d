// ABOUTME: OpenRouter provider client using the chat-completions API
// ABOUTME: Role-tagged message array in, first choice message content out

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// openRouterDefaults for the chat completions endpoint.
const (
	openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	openRouterModel    = "mistralai/mistral-7b-instruct"
	openRouterReferer  = "https://mindease.app"
	openRouterTitle    = "MindEase"
)

// openRouterClient talks to the OpenRouter chat completions API.
type openRouterClient struct {
	endpoint   string
	model      string
	referer    string
	httpClient *http.Client
}

type openRouterRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newOpenRouterClient(httpClient *http.Client) *openRouterClient {
	return &openRouterClient{
		endpoint:   openRouterEndpoint,
		model:      openRouterModel,
		referer:    openRouterReferer,
		httpClient: httpClient,
	}
}

func (c *openRouterClient) Name() string { return ProviderOpenRouter }

// Generate sends a chat-style request and returns the first choice content,
// trimmed.
func (c *openRouterClient) Generate(ctx context.Context, req *Request) (string, error) {
	payload := openRouterRequest{
		Model:       c.model,
		Messages:    buildChatMessages(req.History, req.UserMessage),
		MaxTokens:   300,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding openrouter request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building openrouter request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", c.referer)
	httpReq.Header.Set("X-Title", openRouterTitle)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling openrouter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &apiError{provider: "OpenRouter", status: resp.StatusCode}
	}

	var decoded openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding openrouter response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
