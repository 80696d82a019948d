// ABOUTME: Pure request classifier mapping method and URL to a caching policy
// ABOUTME: Policy decides how the controller answers before any I/O happens

package lifecycle

import (
	"net/http"
	"strings"
)

// Policy is the caching strategy chosen for a request.
type Policy int

const (
	// PolicyPassthrough forwards the request untouched. Non-GET requests
	// are never cached or synthesized.
	PolicyPassthrough Policy = iota

	// PolicyNetworkOnly always fetches; offline yields a JSON 503.
	PolicyNetworkOnly

	// PolicyCacheFirst answers from cache when possible, fetching and
	// filling the static cache on miss.
	PolicyCacheFirst

	// PolicyNetworkFirst fetches, filling the dynamic cache on 200, and
	// falls back to cache when the network fails.
	PolicyNetworkFirst
)

func (p Policy) String() string {
	switch p {
	case PolicyPassthrough:
		return "passthrough"
	case PolicyNetworkOnly:
		return "network-only"
	case PolicyCacheFirst:
		return "cache-first"
	case PolicyNetworkFirst:
		return "network-first"
	default:
		return "unknown"
	}
}

// Classify picks the policy for a request. rawURL is the full request URL for
// prefix matching; path is its path component for manifest matching.
func (m *Manifest) Classify(method, rawURL, path string) Policy {
	if method != http.MethodGet {
		return PolicyPassthrough
	}

	for _, prefix := range m.NetworkOnly {
		if strings.Contains(rawURL, prefix) {
			return PolicyNetworkOnly
		}
	}

	if strings.HasPrefix(path, "/src/") || strings.HasPrefix(path, "/icons/") {
		return PolicyCacheFirst
	}
	for _, static := range m.StaticPaths {
		if path == static {
			return PolicyCacheFirst
		}
	}

	return PolicyNetworkFirst
}
