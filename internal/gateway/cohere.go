// ABOUTME: Cohere provider client using the completion-style generate API
// ABOUTME: Single prompt string in, first generation text out

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

// cohereDefaults for the generate endpoint.
const (
	cohereEndpoint = "https://api.cohere.ai/v1/generate"
	cohereModel    = "command-r-plus"
)

// cohereClient talks to the Cohere generate API.
type cohereClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type cohereRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens"`
	Temperature   float64  `json:"temperature"`
	StopSequences []string `json:"stop_sequences"`
}

type cohereResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

func newCohereClient(httpClient *http.Client) *cohereClient {
	return &cohereClient{
		endpoint:   cohereEndpoint,
		model:      cohereModel,
		httpClient: httpClient,
	}
}

func (c *cohereClient) Name() string { return ProviderCohere }

// Generate sends a completion-style request and returns the first
// generation, trimmed.
func (c *cohereClient) Generate(ctx context.Context, req *Request) (string, error) {
	payload := cohereRequest{
		Model:         c.model,
		Prompt:        buildPrompt(req.History, req.UserMessage),
		MaxTokens:     300,
		Temperature:   0.7,
		StopSequences: []string{"\n\nUser:", "\n\nHuman:"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding cohere request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building cohere request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling cohere: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &apiError{provider: "Cohere", status: resp.StatusCode}
	}

	var decoded cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding cohere response: %w", err)
	}
	if len(decoded.Generations) == 0 {
		return "", nil
	}
	return strings.TrimSpace(decoded.Generations[0].Text), nil
}
