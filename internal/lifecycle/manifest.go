// ABOUTME: Cache manifest describing precache paths, network-only prefixes, and the version
// ABOUTME: Loaded from a TOML file, with built-in defaults matching the shipped app shell

package lifecycle

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// cacheTagPrefix namespaces every cache generation this controller owns.
const cacheTagPrefix = "mindease"

// Manifest describes one generation of the app shell: which paths are
// precached, which URL prefixes must never be served from cache, and the
// version string that names the generation.
type Manifest struct {
	Version     string   `toml:"version"`
	StaticPaths []string `toml:"static_paths"`
	NetworkOnly []string `toml:"network_only"`
}

// DefaultManifest is the built-in app-shell manifest, used when no manifest
// file is configured.
func DefaultManifest() *Manifest {
	return &Manifest{
		Version: "v1.0.0",
		StaticPaths: []string{
			"/",
			"/index.html",
			"/manifest.json",
			"/src/styles/main.css",
			"/src/js/app.js",
			"/src/js/storage.js",
			"/src/js/ai.js",
			"/src/js/mood.js",
			"/src/js/journal.js",
			"/src/js/meditation.js",
			"/src/js/auth.js",
			"/src/js/pwa.js",
			"/icons/icon-192x192.png",
			"/icons/icon-512x512.png",
		},
		NetworkOnly: []string{
			"/api/",
			"https://api.cohere.ai/",
			"https://openrouter.ai/",
			"https://api-inference.huggingface.co/",
		},
	}
}

// LoadManifest reads a manifest from a TOML file and validates it.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("parsing cache manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache manifest: %w", err)
	}
	return &m, nil
}

// Validate checks manifest invariants.
func (m *Manifest) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	for _, p := range m.StaticPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("static path %q must start with /", p)
		}
	}
	return nil
}

// Tag is the generation name replied to version queries.
func (m *Manifest) Tag() string {
	return cacheTagPrefix + "-" + m.Version
}

// StaticTag names the precache generation.
func (m *Manifest) StaticTag() string {
	return cacheTagPrefix + "-static-" + m.Version
}

// DynamicTag names the runtime cache generation.
func (m *Manifest) DynamicTag() string {
	return cacheTagPrefix + "-dynamic-" + m.Version
}
