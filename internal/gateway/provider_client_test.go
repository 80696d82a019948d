// ABOUTME: Wire-contract tests for the three provider clients
// ABOUTME: Each test pins the request shape and response parsing against a local HTTP server

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mindease/internal/store"
)

func testRequest(apiKey string) *Request {
	return &Request{
		History: []*store.ConversationTurn{
			{ID: "1", Role: store.RoleUser, Content: "I feel anxious", Timestamp: 1},
			{ID: "2", Role: store.RoleAssistant, Content: "That sounds hard", Timestamp: 2},
		},
		UserMessage: "What should I do?",
		APIKey:      apiKey,
	}
}

func TestCohereWireContract(t *testing.T) {
	var captured cohereRequest
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(cohereResponse{
			Generations: []struct {
				Text string `json:"text"`
			}{{Text: "  Try a slow breathing exercise.  "}},
		})
	}))
	defer server.Close()

	client := newCohereClient(server.Client())
	client.endpoint = server.URL

	reply, err := client.Generate(context.Background(), testRequest("sk-test"))
	require.NoError(t, err)
	assert.Equal(t, "Try a slow breathing exercise.", reply)

	assert.Equal(t, "Bearer sk-test", authHeader)
	assert.Equal(t, cohereModel, captured.Model)
	assert.Equal(t, 300, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	assert.Equal(t, []string{"\n\nUser:", "\n\nHuman:"}, captured.StopSequences)
	assert.Contains(t, captured.Prompt, "User: I feel anxious")
	assert.Contains(t, captured.Prompt, "Assistant: That sounds hard")
	assert.Contains(t, captured.Prompt, "User: What should I do?\nAssistant:")
}

func TestCohereAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newCohereClient(server.Client())
	client.endpoint = server.URL

	_, err := client.Generate(context.Background(), testRequest("sk-test"))
	require.Error(t, err)
	assert.Equal(t, "Cohere API error: 429", err.Error())
	assert.True(t, isRateLimit(err))
}

func TestCohereEmptyGenerations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(cohereResponse{})
	}))
	defer server.Close()

	client := newCohereClient(server.Client())
	client.endpoint = server.URL

	reply, err := client.Generate(context.Background(), testRequest("sk-test"))
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestOpenRouterWireContract(t *testing.T) {
	var captured openRouterRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"content":" You could journal about it. "}}]}`))
	}))
	defer server.Close()

	client := newOpenRouterClient(server.Client())
	client.endpoint = server.URL

	reply, err := client.Generate(context.Background(), testRequest("or-test"))
	require.NoError(t, err)
	assert.Equal(t, "You could journal about it.", reply)

	assert.Equal(t, "Bearer or-test", headers.Get("Authorization"))
	assert.Equal(t, "MindEase", headers.Get("X-Title"))
	assert.NotEmpty(t, headers.Get("HTTP-Referer"))
	assert.Equal(t, openRouterModel, captured.Model)
	assert.Equal(t, 300, captured.MaxTokens)

	// system message first, history in order, user message last
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "What should I do?", captured.Messages[3].Content)
}

func TestHuggingFaceStripsPromptEcho(t *testing.T) {
	var captured huggingFaceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode([]huggingFaceGeneration{
			{GeneratedText: captured.Inputs + " It may help to talk to someone you trust."},
		})
	}))
	defer server.Close()

	client := newHuggingFaceClient(server.Client())
	client.endpoint = server.URL

	reply, err := client.Generate(context.Background(), testRequest("hf-test"))
	require.NoError(t, err)
	assert.Equal(t, "It may help to talk to someone you trust.", reply)

	assert.Equal(t, 300, captured.Parameters.MaxLength)
	assert.True(t, captured.Parameters.DoSample)
	assert.InDelta(t, 0.9, captured.Parameters.TopP, 0.001)
}

func TestHuggingFaceMissingGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newHuggingFaceClient(server.Client())
	client.endpoint = server.URL

	reply, err := client.Generate(context.Background(), testRequest("hf-test"))
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestRecentHistoryWindow(t *testing.T) {
	var history []*store.ConversationTurn
	for i := 0; i < 25; i++ {
		history = append(history, &store.ConversationTurn{
			ID: string(rune('a' + i)), Role: store.RoleUser, Content: "msg", Timestamp: int64(i),
		})
	}

	recent := recentHistory(history)
	require.Len(t, recent, historyWindow)
	assert.Equal(t, int64(15), recent[0].Timestamp)

	short := recentHistory(history[:3])
	assert.Len(t, short, 3)
}
