// ABOUTME: Tests for TOML manifest loading
// ABOUTME: Round-trips a manifest file and checks validation failures

package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")
	content := `
version = "v2.0.0"
static_paths = ["/", "/index.html", "/src/js/app.js"]
network_only = ["/api/"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "mindease-static-v2.0.0", m.StaticTag())
	assert.Len(t, m.StaticPaths, 3)
	assert.Equal(t, []string{"/api/"}, m.NetworkOnly)
}

func TestLoadManifestRejectsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")
	require.NoError(t, os.WriteFile(path, []byte(`static_paths = ["/"]`), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}
