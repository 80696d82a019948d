// Package client is the HTTP API client used by the mindease CLI
// subcommands. It wraps the chat, history, provider status, and health
// endpoints with typed methods.
package client
