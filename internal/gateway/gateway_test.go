// ABOUTME: Tests for gateway failover, rate-limit handling, and transcript persistence
// ABOUTME: Uses fake providers and an in-memory chat store

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mindease/internal/store"
)

// memChatStore is an in-memory ChatStore for tests.
type memChatStore struct {
	mu       sync.Mutex
	turns    []*store.ConversationTurn
	settings map[string]string
}

func newMemChatStore() *memChatStore {
	return &memChatStore{settings: make(map[string]string)}
}

func (m *memChatStore) SaveChatTurn(_ context.Context, turn *store.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *memChatStore) ChatHistory(_ context.Context) ([]*store.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns, nil
}

func (m *memChatStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memChatStore) Setting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.settings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// fakeProvider scripts one provider's behavior and records calls.
type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(context.Context, *Request) (string, error) {
	f.calls++
	return f.reply, f.err
}

// newTestGateway builds a gateway whose three providers are replaced with
// fakes, all configured.
func newTestGateway(t *testing.T, cohere, openrouter, huggingface *fakeProvider) (*Gateway, *memChatStore) {
	t.Helper()
	chatStore := newMemChatStore()
	g := New(chatStore, nil)
	t.Cleanup(g.Close)

	for name, fake := range map[string]*fakeProvider{
		ProviderCohere:      cohere,
		ProviderOpenRouter:  openrouter,
		ProviderHuggingFace: huggingface,
	} {
		state := g.providers[name]
		state.provider = fake
		state.apiKey = "test-key"
		state.hasCredential = true
	}
	return g, chatStore
}

func TestRespond_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, reply: "You're doing great."}
	second := &fakeProvider{name: ProviderOpenRouter, reply: "unused"}
	third := &fakeProvider{name: ProviderHuggingFace, reply: "unused"}
	g, chatStore := newTestGateway(t, first, second, third)

	reply, provider, err := g.Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "You're doing great.", reply)
	assert.Equal(t, ProviderCohere, provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, 0, third.calls)

	// Both turns persisted
	require.Len(t, chatStore.turns, 2)
	assert.Equal(t, store.RoleUser, chatStore.turns[0].Role)
	assert.Equal(t, "hello", chatStore.turns[0].Content)
	assert.Equal(t, store.RoleAssistant, chatStore.turns[1].Role)
	assert.Equal(t, "You're doing great.", chatStore.turns[1].Content)
	assert.NotEmpty(t, chatStore.turns[0].ID)
}

func TestRespond_SkipsRateLimitedProvider(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, err: errors.New("connection refused")}
	second := &fakeProvider{name: ProviderOpenRouter, reply: "unused"}
	third := &fakeProvider{name: ProviderHuggingFace, reply: "Take a deep breath."}
	g, _ := newTestGateway(t, first, second, third)

	// openrouter is already cooling down; it must not be tried at all
	g.providers[ProviderOpenRouter].rateLimited = true

	reply, provider, err := g.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Take a deep breath.", reply)
	assert.Equal(t, ProviderHuggingFace, provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, 1, third.calls)
}

func TestRespond_RateLimitFlipsOnlyThatProvider(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, err: &apiError{provider: "Cohere", status: 429}}
	second := &fakeProvider{name: ProviderOpenRouter, reply: "Here for you."}
	third := &fakeProvider{name: ProviderHuggingFace, reply: "unused"}
	g, _ := newTestGateway(t, first, second, third)

	reply, _, err := g.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Here for you.", reply)

	statuses := g.Status()
	assert.True(t, statuses[0].RateLimited)
	assert.False(t, statuses[1].RateLimited)
	assert.False(t, statuses[2].RateLimited)
	assert.Contains(t, statuses[0].LastError, "429")
}

func TestRespond_EmptyReplyCountsAsFailure(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, reply: "   "}
	second := &fakeProvider{name: ProviderOpenRouter, reply: "A real reply."}
	third := &fakeProvider{name: ProviderHuggingFace, reply: "unused"}
	g, _ := newTestGateway(t, first, second, third)

	reply, _, err := g.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "A real reply.", reply)
	assert.Equal(t, 1, first.calls)
}

func TestRespond_NoProviderAvailable(t *testing.T) {
	chatStore := newMemChatStore()
	g := New(chatStore, nil)
	defer g.Close()

	_, _, err := g.Respond(context.Background(), "anyone there?")
	assert.ErrorIs(t, err, ErrNoProviderAvailable)

	// The user turn survives the outage
	require.Len(t, chatStore.turns, 1)
	assert.Equal(t, store.RoleUser, chatStore.turns[0].Role)
}

func TestRespond_AllProvidersFailed(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, err: errors.New("boom")}
	second := &fakeProvider{name: ProviderOpenRouter, err: errors.New("boom")}
	third := &fakeProvider{name: ProviderHuggingFace, err: errors.New("boom")}
	g, chatStore := newTestGateway(t, first, second, third)

	_, _, err := g.Respond(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)

	// No assistant turn for a failed exchange
	require.Len(t, chatStore.turns, 1)
}

func TestCooldownExpiryReenablesWithoutProbe(t *testing.T) {
	first := &fakeProvider{name: ProviderCohere, reply: "back"}
	second := &fakeProvider{name: ProviderOpenRouter, reply: "unused"}
	third := &fakeProvider{name: ProviderHuggingFace, reply: "unused"}
	g, _ := newTestGateway(t, first, second, third)

	g.providers[ProviderCohere].rateLimited = true
	g.reenable(ProviderCohere)

	assert.False(t, g.providers[ProviderCohere].rateLimited)
	// Re-enabling alone makes no provider call
	assert.Equal(t, 0, first.calls)
}

func TestLoadCredentials(t *testing.T) {
	chatStore := newMemChatStore()
	chatStore.settings["ai_cohere_key"] = "sk-cohere"
	chatStore.settings["ai_huggingface_key"] = "hf-token"

	g := New(chatStore, nil)
	defer g.Close()
	g.LoadCredentials(context.Background())

	statuses := g.Status()
	assert.True(t, statuses[0].Configured)
	assert.False(t, statuses[1].Configured)
	assert.True(t, statuses[2].Configured)
}

func TestUpdateCredential_ResetsFailureState(t *testing.T) {
	chatStore := newMemChatStore()
	g := New(chatStore, nil)
	defer g.Close()

	state := g.providers[ProviderOpenRouter]
	state.rateLimited = true
	state.lastError = "OpenRouter API error: 429"

	err := g.UpdateCredential(context.Background(), ProviderOpenRouter, "new-key")
	require.NoError(t, err)

	assert.True(t, state.hasCredential)
	assert.False(t, state.rateLimited)
	assert.Empty(t, state.lastError)
	assert.Equal(t, "new-key", chatStore.settings["ai_openrouter_key"])
}

func TestUpdateCredential_ConcurrentWithRespond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"generations":[{"text":"Take it one step at a time."}]}`))
	}))
	defer server.Close()

	g := New(newMemChatStore(), nil)
	defer g.Close()

	cohere := g.providers[ProviderCohere].provider.(*cohereClient)
	cohere.endpoint = server.URL
	cohere.httpClient = server.Client()
	g.providers[ProviderCohere].apiKey = "key-0"
	g.providers[ProviderCohere].hasCredential = true

	// Key rotation must not race with in-flight provider calls
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _, err := g.Respond(context.Background(), "hello")
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			err := g.UpdateCredential(context.Background(), ProviderCohere, fmt.Sprintf("key-%d", i+1))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}

func TestUpdateCredential_UnknownProvider(t *testing.T) {
	g := New(newMemChatStore(), nil)
	defer g.Close()

	err := g.UpdateCredential(context.Background(), "nope", "key")
	assert.Error(t, err)
}

func TestCooldownScheduler(t *testing.T) {
	expired := make(chan string, 1)
	s := newCooldownScheduler(func(name string) { expired <- name })
	defer s.Close()

	s.Schedule("cohere", 10*time.Millisecond)

	select {
	case name := <-expired:
		assert.Equal(t, "cohere", name)
	case <-time.After(time.Second):
		t.Fatal("cooldown never fired")
	}
}

func TestCooldownScheduler_CancelStopsTimer(t *testing.T) {
	expired := make(chan string, 1)
	s := newCooldownScheduler(func(name string) { expired <- name })
	defer s.Close()

	s.Schedule("cohere", 20*time.Millisecond)
	s.Cancel("cohere")

	select {
	case <-expired:
		t.Fatal("cancelled cooldown fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, isRateLimit(&apiError{provider: "Cohere", status: 429}))
	assert.True(t, isRateLimit(errors.New("Rate Limit exceeded")))
	assert.False(t, isRateLimit(&apiError{provider: "Cohere", status: 500}))
	assert.False(t, isRateLimit(errors.New("connection refused")))
}
