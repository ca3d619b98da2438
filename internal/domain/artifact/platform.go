package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Platform is a packaging target; the value doubles as the artifact classifier.
type Platform string

// Supported platforms. There is no Windows on ARM build.
const (
	PlatformWindows  Platform = "win"
	PlatformMac      Platform = "mac"
	PlatformMacARM   Platform = "mac-aarch64"
	PlatformLinux    Platform = "linux"
	PlatformLinuxARM Platform = "linux-aarch64"
)

// AllPlatforms is the keyword that selects every supported platform.
const AllPlatforms = "all"

// ErrUnsupportedPlatform is returned for platform values outside SupportedPlatforms.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// SupportedPlatforms returns every packaging target in a stable order.
func SupportedPlatforms() []Platform {
	return []Platform{
		PlatformWindows,
		PlatformMac,
		PlatformMacARM,
		PlatformLinux,
		PlatformLinuxARM,
	}
}

// ParsePlatform validates a single platform value.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedPlatforms() {
		if p == supported {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w %q: supported platforms are %s", ErrUnsupportedPlatform, s, supportedList())
}

// ParsePlatforms validates a list of platform values.
// "all" expands to every supported platform; duplicates are dropped.
func ParsePlatforms(values []string) ([]Platform, error) {
	var (
		result = make([]Platform, 0, len(values))
		seen   = make(map[Platform]struct{}, len(values))
	)

	for _, value := range values {
		var candidates []Platform

		if strings.EqualFold(strings.TrimSpace(value), AllPlatforms) {
			candidates = SupportedPlatforms()
		} else {
			p, err := ParsePlatform(value)
			if err != nil {
				return nil, err
			}

			candidates = []Platform{p}
		}

		for _, p := range candidates {
			if _, ok := seen[p]; ok {
				continue
			}

			seen[p] = struct{}{}
			result = append(result, p)
		}
	}

	return result, nil
}

// HostPlatform maps a GOOS/GOARCH pair to a packaging target.
func HostPlatform(goos, goarch string) (Platform, error) {
	var p Platform

	switch {
	case goos == "windows" && goarch == "amd64":
		p = PlatformWindows
	case goos == "darwin" && goarch == "amd64":
		p = PlatformMac
	case goos == "darwin" && goarch == "arm64":
		p = PlatformMacARM
	case goos == "linux" && goarch == "amd64":
		p = PlatformLinux
	case goos == "linux" && goarch == "arm64":
		p = PlatformLinuxARM
	default:
		return "", fmt.Errorf("%w for host %s/%s: supported platforms are %s",
			ErrUnsupportedPlatform, goos, goarch, supportedList())
	}

	return p, nil
}

// IsNativeClassifier reports whether a classifier marks a platform-native jar.
func IsNativeClassifier(classifier string) bool {
	if classifier == "" {
		return false
	}

	if strings.HasPrefix(classifier, "natives-") {
		return true
	}

	for _, p := range SupportedPlatforms() {
		if classifier == string(p) {
			return true
		}
	}

	return false
}

func supportedList() string {
	names := make([]string, 0, len(SupportedPlatforms()))
	for _, p := range SupportedPlatforms() {
		names = append(names, string(p))
	}

	return strings.Join(names, ", ")
}
