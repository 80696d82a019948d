// ABOUTME: Hugging Face inference provider client for raw text-generation models
// ABOUTME: Sends the full prompt as inputs and strips the prompt echo from the output

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

// huggingFaceDefaults for the hosted inference endpoint.
const (
	huggingFaceEndpoint = "https://api-inference.huggingface.co/models/distilgpt2"
	huggingFaceModel    = "distilgpt2"
)

// huggingFaceClient talks to the Hugging Face hosted inference API.
type huggingFaceClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type huggingFaceParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
	DoSample    bool    `json:"do_sample"`
	TopP        float64 `json:"top_p"`
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func newHuggingFaceClient(httpClient *http.Client) *huggingFaceClient {
	return &huggingFaceClient{
		endpoint:   huggingFaceEndpoint,
		model:      huggingFaceModel,
		httpClient: httpClient,
	}
}

func (c *huggingFaceClient) Name() string { return ProviderHuggingFace }

// Generate sends the rendered prompt and returns the continuation. Raw
// text-generation models echo the prompt, so the prompt prefix is stripped
// before trimming.
func (c *huggingFaceClient) Generate(ctx context.Context, req *Request) (string, error) {
	prompt := buildPrompt(req.History, req.UserMessage)
	payload := huggingFaceRequest{
		Inputs: prompt,
		Parameters: huggingFaceParameters{
			MaxLength:   300,
			Temperature: 0.7,
			DoSample:    true,
			TopP:        0.9,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding huggingface request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building huggingface request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling huggingface: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &apiError{provider: "HuggingFace", status: resp.StatusCode}
	}

	var decoded []huggingFaceGeneration
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding huggingface response: %w", err)
	}
	if len(decoded) == 0 || decoded[0].GeneratedText == "" {
		return "", nil
	}

	reply := strings.TrimPrefix(decoded[0].GeneratedText, prompt)
	return strings.TrimSpace(reply), nil
}
