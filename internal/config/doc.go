// Package config handles configuration loading for mindease.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults; running with no
// config file at all uses Default().
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${MINDEASE_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: ":8080"
//
// Storage tiers and response cache:
//
//	database:
//	  path: "data/mindease.db"          # primary SQLite store
//	  fallback_dir: "data/fallback"     # JSON bucket fallback tier
//	  cache_path: "data/cache.db"       # response cache
//
// Upstream app origin served through the cache controller:
//
//	origin:
//	  upstream: "http://localhost:3000"
//
// Cache manifest (optional, built-in defaults otherwise):
//
//	cache:
//	  manifest_path: "cache.toml"
//
// Provider key seeds (stored keys win over seeds):
//
//	providers:
//	  cohere_key: "${COHERE_API_KEY}"
//	  openrouter_key: "${OPENROUTER_API_KEY}"
//	  huggingface_key: "${HF_API_KEY}"
//
// Cloud sync:
//
//	cloud:
//	  enabled: false
//	  url: "https://sync.example.com/push"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
