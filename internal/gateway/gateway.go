// ABOUTME: Multi-provider AI gateway with ordered failover and rate-limit cooldowns
// ABOUTME: Owns per-provider eligibility state and persists the conversation transcript

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/mindease/internal/store"
)

// Apologetic replies shown to the user when no exchange could complete.
const (
	ReplyNoProvider     = "I'm sorry, I'm having trouble connecting right now. Please try again in a moment."
	ReplyProviderFailed = "I'm experiencing some technical difficulties. Please try again later."
)

// Settings keys holding provider API keys.
const (
	settingKeyPrefix = "ai_"
	settingKeySuffix = "_key"
)

// ChatStore is the slice of the store the gateway needs: transcript
// persistence and credential settings.
type ChatStore interface {
	SaveChatTurn(ctx context.Context, turn *store.ConversationTurn) error
	ChatHistory(ctx context.Context) ([]*store.ConversationTurn, error)
	SetSetting(ctx context.Context, key, value string) error
	Setting(ctx context.Context, key string) (string, error)
}

// providerState is the gateway's process-memory view of one provider.
// Cooldowns and errors do not persist across restart. apiKey is read and
// written only under the gateway mutex; calls receive a snapshot of it.
type providerState struct {
	provider      Provider
	endpoint      string
	model         string
	apiKey        string
	hasCredential bool
	rateLimited   bool
	lastError     string
}

// ProviderStatus is the externally visible state of one provider.
type ProviderStatus struct {
	Name        string `json:"name"`
	Model       string `json:"model"`
	Configured  bool   `json:"configured"`
	RateLimited bool   `json:"rate_limited"`
	LastError   string `json:"last_error,omitempty"`
}

// Gateway routes chat requests across providers in declared order, skipping
// unconfigured and rate-limited ones.
type Gateway struct {
	mu        sync.Mutex
	providers map[string]*providerState
	chatStore ChatStore
	scheduler *cooldownScheduler
	logger    *slog.Logger
}

// New creates a gateway over the default provider set. Credentials are not
// loaded until LoadCredentials is called.
func New(chatStore ChatStore, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}

	g := &Gateway{
		providers: map[string]*providerState{
			ProviderCohere: {
				provider: newCohereClient(httpClient),
				endpoint: cohereEndpoint,
				model:    cohereModel,
			},
			ProviderOpenRouter: {
				provider: newOpenRouterClient(httpClient),
				endpoint: openRouterEndpoint,
				model:    openRouterModel,
			},
			ProviderHuggingFace: {
				provider: newHuggingFaceClient(httpClient),
				endpoint: huggingFaceEndpoint,
				model:    huggingFaceModel,
			},
		},
		chatStore: chatStore,
		logger:    logger.With("component", "gateway"),
	}
	g.scheduler = newCooldownScheduler(g.reenable)
	return g
}

// settingKey returns the settings key holding a provider's API key.
func settingKey(name string) string {
	return settingKeyPrefix + name + settingKeySuffix
}

// LoadCredentials reads each provider's API key from settings. Missing keys
// leave the provider unconfigured; store errors are treated as missing.
func (g *Gateway) LoadCredentials(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, name := range providerOrder {
		state := g.providers[name]
		key, err := g.chatStore.Setting(ctx, settingKey(name))
		if err != nil || key == "" {
			continue
		}
		state.apiKey = key
		state.hasCredential = true
		g.logger.Info("provider configured", "provider", name)
	}
}

// UpdateCredential persists a new API key for the named provider and resets
// its failure state so the next request tries it again.
func (g *Gateway) UpdateCredential(ctx context.Context, name, key string) error {
	g.mu.Lock()
	state, ok := g.providers[name]
	g.mu.Unlock()
	if !ok {
		return ErrNoProviderAvailable
	}

	if err := g.chatStore.SetSetting(ctx, settingKey(name), key); err != nil {
		return err
	}

	g.mu.Lock()
	state.apiKey = key
	state.hasCredential = key != ""
	state.rateLimited = false
	state.lastError = ""
	g.mu.Unlock()

	g.scheduler.Cancel(name)
	g.logger.Info("provider credential updated", "provider", name)
	return nil
}

// candidate is an immutable snapshot of one eligible provider, taken under
// the gateway mutex so in-flight calls never observe a credential update.
type candidate struct {
	name     string
	provider Provider
	apiKey   string
}

// candidates returns snapshots of the eligible providers in declared order.
// Must not be called with mu held.
func (g *Gateway) candidates() []candidate {
	g.mu.Lock()
	defer g.mu.Unlock()

	var eligible []candidate
	for _, name := range providerOrder {
		state := g.providers[name]
		if state.hasCredential && !state.rateLimited {
			eligible = append(eligible, candidate{
				name:     name,
				provider: state.provider,
				apiKey:   state.apiKey,
			})
		}
	}
	return eligible
}

// Respond persists the user turn, tries each eligible provider in order, and
// persists and returns the first usable reply along with the name of the
// provider that produced it. The user turn is persisted even when every
// provider fails, so the user's words survive the outage.
func (g *Gateway) Respond(ctx context.Context, userMessage string) (string, string, error) {
	history, err := g.chatStore.ChatHistory(ctx)
	if err != nil {
		g.logger.Warn("loading chat history failed", "error", err)
		history = nil
	}

	userTurn := &store.ConversationTurn{
		ID:        uuid.NewString(),
		Role:      store.RoleUser,
		Content:   userMessage,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := g.chatStore.SaveChatTurn(ctx, userTurn); err != nil {
		g.logger.Warn("persisting user turn failed", "error", err)
	}

	eligible := g.candidates()
	if len(eligible) == 0 {
		return "", "", ErrNoProviderAvailable
	}

	for _, cand := range eligible {
		name := cand.name
		req := &Request{History: history, UserMessage: userMessage, APIKey: cand.apiKey}
		reply, err := cand.provider.Generate(ctx, req)
		if err != nil {
			g.recordFailure(name, err)
			continue
		}
		if strings.TrimSpace(reply) == "" {
			g.logger.Warn("provider returned empty reply", "provider", name)
			continue
		}

		g.mu.Lock()
		g.providers[name].lastError = ""
		g.mu.Unlock()

		assistantTurn := &store.ConversationTurn{
			ID:        uuid.NewString(),
			Role:      store.RoleAssistant,
			Content:   reply,
			Timestamp: time.Now().UnixMilli(),
		}
		if err := g.chatStore.SaveChatTurn(ctx, assistantTurn); err != nil {
			g.logger.Warn("persisting assistant turn failed", "error", err)
		}
		g.logger.Info("chat exchange completed", "provider", name)
		return reply, name, nil
	}

	return "", "", ErrAllProvidersFailed
}

// recordFailure stores the error and, for rate-limit signals, removes the
// provider from rotation until the cooldown fires.
func (g *Gateway) recordFailure(name string, err error) {
	g.mu.Lock()
	state := g.providers[name]
	state.lastError = err.Error()
	limited := isRateLimit(err)
	if limited {
		state.rateLimited = true
	}
	g.mu.Unlock()

	if limited {
		g.scheduler.Schedule(name, rateLimitCooldown)
		g.logger.Warn("provider rate limited", "provider", name, "cooldown", rateLimitCooldown)
		return
	}
	g.logger.Warn("provider failed", "provider", name, "error", err)
}

// reenable flips a provider back to eligible when its cooldown expires.
// No probe request is made; the next chat simply tries it again.
func (g *Gateway) reenable(name string) {
	g.mu.Lock()
	state, ok := g.providers[name]
	if ok {
		state.rateLimited = false
	}
	g.mu.Unlock()

	if ok {
		g.logger.Info("provider cooldown expired", "provider", name)
	}
}

// Status reports every provider's state in declared order.
func (g *Gateway) Status() []ProviderStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	statuses := make([]ProviderStatus, 0, len(providerOrder))
	for _, name := range providerOrder {
		state := g.providers[name]
		statuses = append(statuses, ProviderStatus{
			Name:        name,
			Model:       state.model,
			Configured:  state.hasCredential,
			RateLimited: state.rateLimited,
			LastError:   state.lastError,
		})
	}
	return statuses
}

// Close stops all pending cooldown timers.
func (g *Gateway) Close() {
	g.scheduler.Close()
}
