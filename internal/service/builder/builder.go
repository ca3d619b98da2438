package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/launcher-manifest/internal/checksum"
	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
	"github.com/oshokin/launcher-manifest/internal/logger"
	"github.com/oshokin/launcher-manifest/internal/service/locator"
)

// Locator resolves the download URL of one artifact.
type Locator interface {
	Locate(ctx context.Context, coordinate artifact.Coordinate, expectedPath string) locator.Location
}

// Application describes the platform-specific jar the manifests point at.
type Application struct {
	// Coordinate has no classifier; the platform is appended per manifest.
	Coordinate artifact.Coordinate
	// Prerelease selects SnapshotRepository and the "snapshot" release type.
	Prerelease         bool
	ReleaseRepository  string
	SnapshotRepository string
	// ArtifactPathTemplate locates the local jar; see ArtifactFile.
	ArtifactPathTemplate string
}

// Metadata holds the static manifest fields.
type Metadata struct {
	IDPrefix         string
	InheritsFrom     string
	MainClass        string
	JavaMajorVersion int
	JavaComponent    string
}

// Options configures a Builder.
type Options struct {
	// ExcludedGroups are bundled into the application jar. A group also excludes its sub-groups.
	ExcludedGroups []string
	// NativeMarkers are artifact name substrings of platform-native jars.
	NativeMarkers []string
	// Workers bounds concurrent digest + probe work.
	Workers int
	// Now stamps the manifest; defaults to time.Now.
	Now func() time.Time

	Application Application
	Metadata    Metadata
}

// errNoApplication is returned when the application jar itself is not configured.
var errNoApplication = errors.New("application coordinate is not configured")

// Builder turns resolved artifacts into manifests. It keeps no state between builds.
type Builder struct {
	locator Locator
	opts    Options
}

// New creates a Builder.
func New(loc Locator, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Builder{
		locator: loc,
		opts:    opts,
	}
}

// Build produces the manifest for platform. Artifacts keep first-seen order;
// the application's own jar is appended last. Any unreadable file aborts the build.
func (b *Builder) Build(
	ctx context.Context,
	artifacts []artifact.ResolvedArtifact,
	platform artifact.Platform,
) (*artifact.Manifest, error) {
	libraries, err := b.Resolve(ctx, artifacts)
	if err != nil {
		return nil, err
	}

	return b.Assemble(ctx, libraries, platform)
}

// Resolve digests and locates the selected artifacts once. Library entries do not
// depend on the platform, so one result serves every manifest of a run.
func (b *Builder) Resolve(ctx context.Context, artifacts []artifact.ResolvedArtifact) ([]artifact.Entry, error) {
	if err := b.opts.Application.Coordinate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errNoApplication, err)
	}

	selected := b.Select(artifacts)

	logger.InfoKV(ctx, "Resolving libraries",
		"artifacts", len(selected),
		"skipped", len(artifacts)-len(selected))

	return b.resolveEntries(ctx, selected)
}

// Assemble appends the application entry for platform to libraries and fills the
// manifest fields. libraries is not modified.
func (b *Builder) Assemble(
	ctx context.Context,
	libraries []artifact.Entry,
	platform artifact.Platform,
) (*artifact.Manifest, error) {
	if err := b.opts.Application.Coordinate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errNoApplication, err)
	}

	ctx = logger.WithKV(ctx, "platform", string(platform))

	self, err := b.applicationEntry(ctx, platform)
	if err != nil {
		return nil, err
	}

	entries := make([]artifact.Entry, 0, len(libraries)+1)
	entries = append(entries, libraries...)
	entries = append(entries, self)

	return b.assemble(platform, entries), nil
}

// Select drops excluded groups and native jars, then removes duplicate
// coordinates keeping the first occurrence.
func (b *Builder) Select(artifacts []artifact.ResolvedArtifact) []artifact.ResolvedArtifact {
	var (
		result = make([]artifact.ResolvedArtifact, 0, len(artifacts))
		seen   = make(map[artifact.Coordinate]struct{}, len(artifacts))
	)

	for _, a := range artifacts {
		if b.isExcluded(a.Group) || b.isNative(a.Coordinate) {
			continue
		}

		if _, ok := seen[a.Coordinate]; ok {
			continue
		}

		seen[a.Coordinate] = struct{}{}
		result = append(result, a)
	}

	return result
}

// ArtifactFile expands the path template for platform.
func (a Application) ArtifactFile(platform artifact.Platform) string {
	return strings.NewReplacer(
		"{group}", a.Coordinate.Group,
		"{name}", a.Coordinate.Name,
		"{version}", a.Coordinate.Version,
		"{platform}", string(platform),
	).Replace(a.ArtifactPathTemplate)
}

// resolveEntries digests and locates every artifact on a bounded pool.
// Each worker writes only its own slot, so output order is input order.
func (b *Builder) resolveEntries(ctx context.Context, selected []artifact.ResolvedArtifact) ([]artifact.Entry, error) {
	entries := make([]artifact.Entry, len(selected))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.opts.Workers)

	for i, a := range selected {
		group.Go(func() error {
			entry, err := b.resolveEntry(groupCtx, a)
			if err != nil {
				return err
			}

			entries[i] = entry

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

// resolveEntry digests the local file first so an unreadable artifact fails before any probing.
func (b *Builder) resolveEntry(ctx context.Context, a artifact.ResolvedArtifact) (artifact.Entry, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Entry{}, err
	}

	digest, err := checksum.File(a.File)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("artifact %s: %w", a.Coordinate, err)
	}

	location := b.locator.Locate(ctx, a.Coordinate, a.Path())

	// A cancelled run leaves an unverified location without a diagnostic.
	if err = ctx.Err(); err != nil {
		return artifact.Entry{}, err
	}

	if o := location.Override; o != nil {
		if o.SHA1 != "" {
			digest.SHA1 = o.SHA1
		}

		if o.Size > 0 {
			digest.Size = o.Size
		}
	}

	if location.Source != locator.SourceFallback {
		logger.InfoKV(ctx, "Artifact located",
			"coordinate", a.Coordinate.String(),
			"mirror", location.Repository,
			"source", string(location.Source),
			"size", humanize.Bytes(uint64(digest.Size))) //nolint:gosec // Sizes are never negative.
	}

	return newEntry(a.Coordinate, location.Path, digest, location.URL), nil
}

// applicationEntry points at the publishing repository rather than a mirror.
func (b *Builder) applicationEntry(ctx context.Context, platform artifact.Platform) (artifact.Entry, error) {
	app := b.opts.Application

	coordinate := app.Coordinate
	coordinate.Classifier = string(platform)

	file := app.ArtifactFile(platform)

	digest, err := checksum.File(file)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("application artifact for platform %s: %w", platform, err)
	}

	repository := app.ReleaseRepository
	if app.Prerelease {
		repository = app.SnapshotRepository
	}

	path := coordinate.Path()
	url := locator.JoinURL(repository, path)

	logger.InfoKV(ctx, "Application artifact",
		"coordinate", coordinate.String(),
		"file", file,
		"url", url,
		"size", humanize.Bytes(uint64(digest.Size))) //nolint:gosec // Sizes are never negative.

	return newEntry(coordinate, path, digest, url), nil
}

func (b *Builder) assemble(platform artifact.Platform, entries []artifact.Entry) *artifact.Manifest {
	var (
		app       = b.opts.Application
		meta      = b.opts.Metadata
		timestamp = artifact.FormatTimestamp(b.opts.Now())
		release   = artifact.ReleaseTypeRelease
	)

	if app.Prerelease {
		release = artifact.ReleaseTypeSnapshot
	}

	return &artifact.Manifest{
		ID:           ManifestID(meta.IDPrefix, app.Coordinate.Version, platform),
		InheritsFrom: meta.InheritsFrom,
		Time:         timestamp,
		ReleaseTime:  timestamp,
		Type:         release,
		MainClass:    meta.MainClass,
		JavaVersion: artifact.JavaVersion{
			Component:    meta.JavaComponent,
			MajorVersion: meta.JavaMajorVersion,
		},
		Libraries: entries,
	}
}

// ManifestID is "<prefix>-<version>-<platform>".
func ManifestID(prefix, version string, platform artifact.Platform) string {
	return prefix + "-" + version + "-" + string(platform)
}

func (b *Builder) isExcluded(group string) bool {
	for _, excluded := range b.opts.ExcludedGroups {
		if group == excluded || strings.HasPrefix(group, excluded+".") {
			return true
		}
	}

	return false
}

func (b *Builder) isNative(c artifact.Coordinate) bool {
	if artifact.IsNativeClassifier(c.Classifier) {
		return true
	}

	for _, marker := range b.opts.NativeMarkers {
		if marker != "" && strings.Contains(c.Name, marker) {
			return true
		}
	}

	return false
}

func newEntry(c artifact.Coordinate, path string, digest checksum.Digest, url string) artifact.Entry {
	return artifact.Entry{
		Name: c.String(),
		Downloads: artifact.Downloads{
			Artifact: artifact.Download{
				Path: path,
				SHA1: digest.SHA1,
				Size: digest.Size,
				URL:  url,
			},
		},
	}
}
