// ABOUTME: Provider interface, failure taxonomy, and rate-limit detection
// ABOUTME: Each remote text-generation service implements Provider with its own wire shape

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/2389/mindease/internal/store"
)

// Gateway errors
var (
	// ErrNoProviderAvailable means no provider is configured and eligible.
	ErrNoProviderAvailable = errors.New("no AI providers available")

	// ErrAllProvidersFailed means every eligible provider was tried and failed.
	ErrAllProvidersFailed = errors.New("all AI providers failed")
)

// Provider names, in the fixed priority order they are tried.
const (
	ProviderCohere      = "cohere"
	ProviderOpenRouter  = "openrouter"
	ProviderHuggingFace = "huggingface"
)

// providerOrder is the fixed declared order for candidate selection.
var providerOrder = []string{ProviderCohere, ProviderOpenRouter, ProviderHuggingFace}

// Request carries everything a provider needs to generate a reply. APIKey is
// a per-call snapshot of the provider's credential, taken under the gateway
// lock so credential updates never race with in-flight calls.
type Request struct {
	History     []*store.ConversationTurn
	UserMessage string
	APIKey      string
}

// Provider is a remote text-generation endpoint. Generate returns a single
// trimmed reply. An empty reply with a nil error means the provider produced
// nothing usable; the gateway treats it as that provider's failure.
// Implementations hold no mutable state; the credential arrives with each
// request.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (string, error)
}

// apiError is a non-2xx response from a provider endpoint.
type apiError struct {
	provider string
	status   int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.provider, e.status)
}

// isRateLimit reports whether an error is a rate-limit signal: either the
// provider-reported 429 status or an error message carrying a rate-limit
// marker.
func isRateLimit(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.status == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
