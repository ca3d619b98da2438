package integration

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // The manifest format mandates SHA-1.
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/launcher-manifest/internal/service/generator"
)

const examplePath = "com/example/lib/1.0/lib-1.0.jar"

// TestGenerator_SingleArtifactEntry checks the exact entry written for one reachable artifact.
func TestGenerator_SingleArtifactEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mirror := startMirror(t, examplePath)
	configPath := writeConfig(t, dir, mirror.server.URL)

	contents := bytes.Repeat([]byte{0xAB}, 100)
	libPath := filepath.Join(dir, "cache", "lib-1.0.jar")
	writeFile(t, libPath, contents)
	writeFile(t, filepath.Join(dir, "libs", "meldmc-0.0.1d-linux.jar"), []byte("application"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	paths, err := generator.Run(ctx, &generator.Options{
		ConfigPath: configPath,
		Platforms:  []string{"linux"},
		Artifacts:  []string{"com.example:lib:1.0=" + libPath},
	})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "versions", "meldmc-0.0.1d-linux", "meldmc-0.0.1d-linux.json")}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	var document struct {
		ID        string            `json:"id"`
		Type      string            `json:"type"`
		Time      string            `json:"time"`
		Release   string            `json:"releaseTime"`
		Libraries []json.RawMessage `json:"libraries"`
	}
	require.NoError(t, json.Unmarshal(raw, &document))
	require.Equal(t, "meldmc-0.0.1d-linux", document.ID)
	require.Equal(t, "release", document.Type)
	require.Equal(t, document.Time, document.Release)
	require.Len(t, document.Libraries, 2)

	sum := sha1.Sum(contents) //nolint:gosec // Reference value.
	want := fmt.Sprintf(
		`{"name":"com.example:lib:1.0","downloads":{"artifact":{"path":%q,"sha1":%q,"size":100,"url":%q}}}`,
		examplePath, hex.EncodeToString(sum[:]), mirror.server.URL+"/"+examplePath)
	require.JSONEq(t, want, string(document.Libraries[0]))
}

// TestGenerator_ThirdMirrorWins stops probing once a mirror answers.
func TestGenerator_ThirdMirrorWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	missing := startMirror(t)
	closed := httptest.NewServer(nil)
	closedURL := closed.URL
	closed.Close()

	third := startMirror(t, examplePath)
	fourth := startMirror(t, examplePath)

	configPath := writeConfig(t, dir, missing.server.URL, closedURL, third.server.URL, fourth.server.URL)

	libPath := filepath.Join(dir, "cache", "lib-1.0.jar")
	writeFile(t, libPath, []byte("lib"))
	writeFile(t, filepath.Join(dir, "libs", "meldmc-0.0.1d-win.jar"), []byte("application"))

	paths, err := generator.Run(context.Background(), &generator.Options{
		ConfigPath: configPath,
		Platforms:  []string{"win"},
		Artifacts:  []string{"com.example:lib:1.0=" + libPath},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.Contains(t, string(raw), third.server.URL+"/"+examplePath)

	require.Equal(t, 1, missing.requests(examplePath))
	require.Equal(t, 1, third.requests(examplePath))
	require.Zero(t, fourth.requests(examplePath))
}

// TestGenerator_AllPlatforms writes one manifest per supported platform.
func TestGenerator_AllPlatforms(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mirror := startMirror(t, examplePath)
	configPath := writeConfig(t, dir, mirror.server.URL)

	libPath := filepath.Join(dir, "cache", "lib-1.0.jar")
	writeFile(t, libPath, []byte("lib"))

	platforms := []string{"win", "mac", "mac-aarch64", "linux", "linux-aarch64"}
	for _, p := range platforms {
		writeFile(t, filepath.Join(dir, "libs", "meldmc-0.0.1d-"+p+".jar"), []byte("application-"+p))
	}

	paths, err := generator.Run(context.Background(), &generator.Options{
		ConfigPath: configPath,
		Platforms:  []string{"all"},
		Artifacts:  []string{"com.example:lib:1.0=" + libPath},
		Workers:    2,
	})
	require.NoError(t, err)
	require.Len(t, paths, len(platforms))

	for i, p := range platforms {
		require.Equal(t, filepath.Join(dir, "versions", "meldmc-0.0.1d-"+p, "meldmc-0.0.1d-"+p+".json"), paths[i])
	}
}
