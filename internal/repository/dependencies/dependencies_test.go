package dependencies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
)

// TestLoad_YAMLDocument resolves relative files against the list's directory.
func TestLoad_YAMLDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "deps.yaml")
	contents := `artifacts:
  - group: com.google.guava
    name: guava
    version: 33.4.0-jre
    file: cache/guava-33.4.0-jre.jar
  - group: org.lwjgl
    name: lwjgl
    version: 3.3.3
    classifier: natives-linux
    file: /abs/lwjgl-3.3.3-natives-linux.jar
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []artifact.ResolvedArtifact{
		{
			Coordinate: artifact.Coordinate{Group: "com.google.guava", Name: "guava", Version: "33.4.0-jre"},
			File:       filepath.Join(dir, "cache", "guava-33.4.0-jre.jar"),
		},
		{
			Coordinate: artifact.Coordinate{Group: "org.lwjgl", Name: "lwjgl", Version: "3.3.3", Classifier: "natives-linux"},
			File:       "/abs/lwjgl-3.3.3-natives-linux.jar",
		},
	}, got)
}

// TestParse_JSONArray accepts a bare JSON list.
func TestParse_JSONArray(t *testing.T) {
	t.Parallel()

	records, err := Parse([]byte(`[{"group":"com.example","name":"lib","version":"1.0","file":"lib.jar"}]`))
	require.NoError(t, err)
	require.Equal(t, []Record{{Group: "com.example", Name: "lib", Version: "1.0", File: "lib.jar"}}, records)

	records, err = Parse(nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

// TestLoad_InvalidRecord reports the offending entry.
func TestLoad_InvalidRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deps.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"artifacts":[{"group":"com.example","name":"lib","version":"1.0"}]}`), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidArtifact)
	require.ErrorContains(t, err, "entry 0")
}

// TestParseInline covers the command-line form.
func TestParseInline(t *testing.T) {
	t.Parallel()

	got, err := ParseInline("com.example:lib:1.0=build/lib.jar")
	require.NoError(t, err)
	require.Equal(t, artifact.Coordinate{Group: "com.example", Name: "lib", Version: "1.0"}, got.Coordinate)
	require.Equal(t, filepath.Clean("build/lib.jar"), got.File)

	_, err = ParseInline("com.example:lib:1.0")
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = ParseInline("com.example:lib=lib.jar")
	require.ErrorIs(t, err, artifact.ErrInvalidCoordinate)
}
