package locator

import (
	"context"
	"strings"

	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
	"github.com/oshokin/launcher-manifest/internal/logger"
)

// Source tells how a URL was obtained.
type Source string

const (
	// SourceMirror means a probe against the mirror succeeded.
	SourceMirror Source = "mirror"
	// SourceOverride means a probe succeeded and the override table supplied the entry.
	SourceOverride Source = "override"
	// SourceFallback means no mirror answered and the URL is an unverified guess.
	SourceFallback Source = "fallback"
)

// FallbackRule maps coordinates whose group starts with Prefix to Repository.
type FallbackRule struct {
	Prefix     string
	Repository string
}

// Override replaces the generic entry for one coordinate.
type Override struct {
	// Path is the real repository path.
	Path string
	// SHA1 and Size are the published digest; empty/zero keep the local values.
	SHA1 string
	Size int64
	// URL pins the location; empty means the answering mirror joined with Path.
	URL string
}

// Location is the outcome of Locate.
type Location struct {
	// URL is absolute; unverified when Source is SourceFallback.
	URL string
	// Path is the repository-relative path recorded in the manifest.
	Path string
	// Repository is the base URL the location was built from.
	Repository string
	// Source tells how URL was obtained.
	Source Source
	// Override is set when Source is SourceOverride.
	Override *Override
}

// Locator resolves download URLs. It holds no per-run state and is safe for concurrent use.
type Locator struct {
	prober            Prober
	mirrors           []string
	fallback          []FallbackRule
	defaultRepository string
	overrides         map[string]Override
}

// Option configures a Locator.
type Option func(*Locator)

// WithFallback sets the ordered group-prefix table and the repository used when nothing matches.
func WithFallback(rules []FallbackRule, defaultRepository string) Option {
	return func(l *Locator) {
		l.fallback = append([]FallbackRule(nil), rules...)
		l.defaultRepository = defaultRepository
	}
}

// WithOverrides sets static entries keyed by coordinate string.
func WithOverrides(overrides map[string]Override) Option {
	return func(l *Locator) {
		for key, o := range overrides {
			l.overrides[key] = o
		}
	}
}

// New creates a Locator probing mirrors in the given order.
func New(prober Prober, mirrors []string, opts ...Option) *Locator {
	l := &Locator{
		prober:    prober,
		mirrors:   append([]string(nil), mirrors...),
		overrides: make(map[string]Override),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Locate returns a URL for coordinate. It never fails: when no mirror answers
// the fallback table provides a best-effort guess.
func (l *Locator) Locate(ctx context.Context, coordinate artifact.Coordinate, expectedPath string) Location {
	for _, mirror := range l.mirrors {
		candidate := JoinURL(mirror, expectedPath)

		if err := l.prober.Probe(ctx, candidate); err != nil {
			logger.DebugKV(ctx, "Mirror probe failed",
				"coordinate", coordinate.String(),
				"mirror", mirror,
				"error", err)

			continue
		}

		if override, ok := l.overrides[coordinate.String()]; ok {
			return overrideLocation(mirror, override)
		}

		return Location{
			URL:        candidate,
			Path:       expectedPath,
			Repository: mirror,
			Source:     SourceMirror,
		}
	}

	repository, matched := Fallback(coordinate, l.fallback, l.defaultRepository)
	location := Location{
		URL:        JoinURL(repository, expectedPath),
		Path:       expectedPath,
		Repository: repository,
		Source:     SourceFallback,
	}

	// The run is being aborted; a warning per remaining artifact is noise.
	if ctx.Err() != nil {
		return location
	}

	logger.WarnKV(ctx, "Using unverified fallback URL",
		"coordinate", coordinate.String(),
		"repository", repository,
		"matched_prefix", matched)

	return location
}

// Fallback picks the repository of the first rule whose prefix starts the
// coordinate's group, or defaultRepository. matched is false for the default.
func Fallback(coordinate artifact.Coordinate, rules []FallbackRule, defaultRepository string) (string, bool) {
	for _, rule := range rules {
		if strings.HasPrefix(coordinate.Group, rule.Prefix) {
			return rule.Repository, true
		}
	}

	return defaultRepository, false
}

// JoinURL joins a repository base and a relative path with exactly one slash.
func JoinURL(base, relative string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(relative, "/")
}

func overrideLocation(mirror string, override Override) Location {
	url := override.URL
	if url == "" {
		url = JoinURL(mirror, override.Path)
	}

	return Location{
		URL:        url,
		Path:       override.Path,
		Repository: mirror,
		Source:     SourceOverride,
		Override:   &override,
	}
}
