// Package gateway routes chat requests across multiple AI text-generation
// providers with ordered failover.
//
// # Provider Order
//
// Providers are tried in a fixed declared order: cohere, openrouter,
// huggingface. A provider is eligible when it has a credential and is not
// serving a rate-limit cooldown. The first provider to return a non-empty
// reply wins; its reply is persisted as the assistant turn.
//
// # Rate Limits
//
// A provider that returns HTTP 429, or an error mentioning a rate limit, is
// removed from rotation for one hour. The cooldown is held in process memory
// only and expires without a probe request. Updating a provider's API key
// clears its cooldown immediately.
//
// # Persistence
//
// The gateway persists the user turn before trying any provider, so the
// user's words survive even a total provider outage. Assistant turns are
// persisted only for successful exchanges. Credentials live in the settings
// bucket under ai_<provider>_key.
package gateway
