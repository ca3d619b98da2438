package integration

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/launcher-manifest/internal/config"
)

// mirror is an httptest repository serving a fixed set of paths.
type mirror struct {
	server *httptest.Server

	mu sync.Mutex
	// hits counts requests per URL path.
	hits map[string]int
}

// startMirror serves 200 for every path in available and 404 otherwise.
func startMirror(t *testing.T, available ...string) *mirror {
	t.Helper()

	m := &mirror{hits: make(map[string]int)}
	allowed := make(map[string]bool, len(available))

	for _, p := range available {
		allowed["/"+p] = true
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		m.mu.Unlock()

		if !allowed[r.URL.Path] {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte("jar-bytes"))
	}))
	t.Cleanup(m.server.Close)

	return m
}

// requests returns how many times path was probed.
func (m *mirror) requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hits["/"+path]
}

// writeConfig stores a config probing mirrors in order, with jars under dir/libs.
func writeConfig(t *testing.T, dir string, mirrors ...string) string {
	t.Helper()

	cfg := config.Default()
	cfg.Mirrors = mirrors
	cfg.OutputDir = filepath.Join(dir, "versions")
	cfg.Application.ArtifactPathTemplate = filepath.Join(dir, "libs", "{name}-{version}-{platform}.jar")

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	return path
}

func writeFile(t *testing.T, path string, contents []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, contents, 0o600))
}
