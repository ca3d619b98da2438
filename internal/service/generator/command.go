package generator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/launcher-manifest/internal/config"
	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
	"github.com/oshokin/launcher-manifest/internal/logger"
	"github.com/oshokin/launcher-manifest/internal/repository/dependencies"
	"github.com/oshokin/launcher-manifest/internal/repository/lock"
	"github.com/oshokin/launcher-manifest/internal/repository/manifest"
	"github.com/oshokin/launcher-manifest/internal/service/builder"
	"github.com/oshokin/launcher-manifest/internal/service/locator"
)

// Options contains inputs for the generator entry point. Non-zero values override the config file.
type Options struct {
	// ConfigPath is the YAML settings file; empty uses launcher-manifest.yaml if present.
	ConfigPath string
	// Platforms selects targets; "all" selects every one, empty uses the config or the host.
	Platforms []string
	// DependenciesFile lists resolved artifacts.
	DependenciesFile string
	// Artifacts are extra "group:name:version=path" entries appended after the file's.
	Artifacts []string
	// OutputDir overrides the versions directory.
	OutputDir string
	// Prerelease forces the snapshot destination.
	Prerelease bool
	// Workers overrides artifact concurrency.
	Workers int

	// prober replaces the HTTP prober in tests.
	prober locator.Prober
	// now replaces the clock in tests.
	now func() time.Time
}

// errNoDependencies is returned when neither a dependency file nor inline artifacts were given.
var errNoDependencies = errors.New("no resolved dependencies: pass --dependencies or --artifact")

// generator carries the state of a single invocation.
type generator struct {
	cfg       *config.Config
	platforms []artifact.Platform
	artifacts []artifact.ResolvedArtifact
	builder   *builder.Builder
	repo      manifest.Repository
}

// Run executes the generation workflow and returns the written manifest paths.
func Run(ctx context.Context, opts *Options) ([]string, error) {
	ctx = logger.WithName(ctx, "launcher-manifest")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	// Platform validation happens before any file or network access.
	platforms, err := selectPlatforms(opts.Platforms, cfg.Platforms)
	if err != nil {
		return nil, err
	}

	held, err := lock.Acquire(ctx, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := held.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release lock", "error", releaseErr)
		}
	}()

	gen, err := newGenerator(cfg, platforms, opts)
	if err != nil {
		return nil, err
	}

	paths, err := gen.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator failed: %w", err)
	}

	logger.InfoKV(ctx, "Generation completed", "manifests", len(paths))

	return paths, nil
}

// loadConfig merges command-line options into the file configuration.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.DependenciesFile != "" {
		cfg.DependenciesFile = opts.DependenciesFile
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}

	if opts.Prerelease {
		cfg.Application.Prerelease = true
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// selectPlatforms prefers explicit values, then configured ones, then the host.
func selectPlatforms(requested, configured []string) ([]artifact.Platform, error) {
	switch {
	case len(requested) > 0:
		return artifact.ParsePlatforms(requested)
	case len(configured) > 0:
		return artifact.ParsePlatforms(configured)
	}

	host, err := artifact.HostPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, err
	}

	return []artifact.Platform{host}, nil
}

func newGenerator(cfg *config.Config, platforms []artifact.Platform, opts *Options) (*generator, error) {
	resolved, err := loadArtifacts(cfg.DependenciesFile, opts.Artifacts)
	if err != nil {
		return nil, err
	}

	prober := opts.prober
	if prober == nil {
		prober = locator.NewHTTPProber(cfg.ProbeTimeout)
	}

	loc := locator.New(prober, cfg.Mirrors,
		locator.WithFallback(fallbackRules(cfg.Fallback), cfg.DefaultRepository),
		locator.WithOverrides(overrides(cfg.Overrides)),
	)

	b := builder.New(loc, builder.Options{
		ExcludedGroups: cfg.ExcludedGroups,
		NativeMarkers:  cfg.NativeMarkers,
		Workers:        cfg.Workers,
		Now:            opts.now,
		Application: builder.Application{
			Coordinate: artifact.Coordinate{
				Group:   cfg.Application.Group,
				Name:    cfg.Application.Name,
				Version: cfg.Application.Version,
			},
			Prerelease:           cfg.Application.Prerelease,
			ReleaseRepository:    cfg.Application.ReleaseRepository,
			SnapshotRepository:   cfg.Application.SnapshotRepository,
			ArtifactPathTemplate: cfg.Application.ArtifactPathTemplate,
		},
		Metadata: builder.Metadata{
			IDPrefix:         cfg.Metadata.IDPrefix,
			InheritsFrom:     cfg.Metadata.InheritsFrom,
			MainClass:        cfg.Metadata.MainClass,
			JavaMajorVersion: cfg.Metadata.JavaMajorVersion,
			JavaComponent:    cfg.Metadata.JavaComponent,
		},
	})

	return &generator{
		cfg:       cfg,
		platforms: platforms,
		artifacts: resolved,
		builder:   b,
		repo:      manifest.NewFileRepository(cfg.OutputDir),
	}, nil
}

// Run resolves the libraries once, assembles every platform and writes only
// when all of them succeeded.
func (g *generator) Run(ctx context.Context) ([]string, error) {
	libraries, err := g.builder.Resolve(ctx, g.artifacts)
	if err != nil {
		return nil, err
	}

	manifests := make([]*artifact.Manifest, 0, len(g.platforms))

	for _, platform := range g.platforms {
		m, assembleErr := g.builder.Assemble(ctx, libraries, platform)
		if assembleErr != nil {
			return nil, fmt.Errorf("platform %s: %w", platform, assembleErr)
		}

		manifests = append(manifests, m)
	}

	// An interrupted run must not leave manifests behind.
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(manifests))

	for _, m := range manifests {
		path, saveErr := g.repo.Save(ctx, m)
		if saveErr != nil {
			return paths, fmt.Errorf("save manifest %s: %w", m.ID, saveErr)
		}

		logger.InfoKV(ctx, "Manifest written", "id", m.ID, "path", path, "libraries", len(m.Libraries))
		paths = append(paths, path)
	}

	g.printNextSteps(ctx, manifests)

	return paths, nil
}

// printNextSteps tells the operator where each application jar must be published.
func (g *generator) printNextSteps(ctx context.Context, manifests []*artifact.Manifest) {
	var message strings.Builder

	message.WriteString("Publish the following application artifacts before distributing the manifests:")

	for _, m := range manifests {
		if len(m.Libraries) == 0 {
			continue
		}

		self := m.Libraries[len(m.Libraries)-1].Downloads.Artifact

		message.WriteString("\n")
		message.WriteString(m.ID)
		message.WriteString(": ")
		message.WriteString(self.URL)
	}

	logger.Info(ctx, message.String())
}

// loadArtifacts concatenates the dependency file and inline artifacts, preserving order.
func loadArtifacts(file string, inline []string) ([]artifact.ResolvedArtifact, error) {
	var result []artifact.ResolvedArtifact

	if file != "" {
		loaded, err := dependencies.Load(file)
		if err != nil {
			return nil, err
		}

		result = append(result, loaded...)
	}

	for _, value := range inline {
		resolved, err := dependencies.ParseInline(value)
		if err != nil {
			return nil, err
		}

		result = append(result, resolved)
	}

	if file == "" && len(inline) == 0 {
		return nil, errNoDependencies
	}

	return result, nil
}

func fallbackRules(rules []config.FallbackRule) []locator.FallbackRule {
	result := make([]locator.FallbackRule, 0, len(rules))
	for _, rule := range rules {
		result = append(result, locator.FallbackRule{
			Prefix:     rule.Prefix,
			Repository: rule.Repository,
		})
	}

	return result
}

// overrides keys the table by normalised coordinate string.
func overrides(list []config.Override) map[string]locator.Override {
	result := make(map[string]locator.Override, len(list))

	for _, o := range list {
		// Validate already parsed every coordinate.
		c, _ := artifact.ParseCoordinate(o.Coordinate) //nolint:errcheck // See above.
		result[c.String()] = locator.Override{
			Path: o.Path,
			SHA1: o.SHA1,
			Size: o.Size,
			URL:  o.URL,
		}
	}

	return result
}
