package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParsePlatforms verifies expansion of "all", deduplication and error reporting.
func TestParsePlatforms(t *testing.T) {
	t.Parallel()

	got, err := ParsePlatforms([]string{"linux", "LINUX", "win"})
	require.NoError(t, err)
	require.Equal(t, []Platform{PlatformLinux, PlatformWindows}, got)

	got, err = ParsePlatforms([]string{"mac", AllPlatforms})
	require.NoError(t, err)
	require.Equal(t, []Platform{PlatformMac, PlatformWindows, PlatformMacARM, PlatformLinux, PlatformLinuxARM}, got)

	_, err = ParsePlatforms([]string{"win-aarch64"})
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	require.ErrorContains(t, err, "win, mac, mac-aarch64, linux, linux-aarch64")
}

// TestHostPlatform maps GOOS/GOARCH pairs and rejects unsupported hosts.
func TestHostPlatform(t *testing.T) {
	t.Parallel()

	p, err := HostPlatform("linux", "arm64")
	require.NoError(t, err)
	require.Equal(t, PlatformLinuxARM, p)

	p, err = HostPlatform("windows", "amd64")
	require.NoError(t, err)
	require.Equal(t, PlatformWindows, p)

	_, err = HostPlatform("windows", "arm64")
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}

// TestIsNativeClassifier recognises platform and natives-* classifiers.
func TestIsNativeClassifier(t *testing.T) {
	t.Parallel()

	require.True(t, IsNativeClassifier("linux"))
	require.True(t, IsNativeClassifier("natives-windows-arm64"))
	require.False(t, IsNativeClassifier(""))
	require.False(t, IsNativeClassifier("sources"))
}

// TestFormatTimestamp pins the offset-qualified layout.
func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 5, 1, 12, 30, 45, 999, time.FixedZone("CEST", 2*60*60))
	require.Equal(t, "2025-05-01T10:30:45+00:00", FormatTimestamp(ts))
}
