package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/launcher-manifest/internal/checksum"
	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
)

// Config drives one generator invocation.
type Config struct {
	// Mirrors are repository base URLs probed in priority order.
	Mirrors []string `yaml:"mirrors"`
	// Fallback maps group prefixes to repositories when every probe fails. First match wins.
	Fallback []FallbackRule `yaml:"fallback"`
	// DefaultRepository is the fallback for groups no rule matches.
	DefaultRepository string `yaml:"default_repository"`
	// ExcludedGroups are bundled into the application jar and never listed.
	ExcludedGroups []string `yaml:"excluded_groups"`
	// NativeMarkers are substrings of artifact names that mark platform-native jars.
	NativeMarkers []string `yaml:"native_markers"`
	// Overrides replace generic entries for artifacts published under irregular file names.
	Overrides []Override `yaml:"overrides"`
	// Platforms are generated when the CLI does not name any.
	Platforms []string `yaml:"platforms"`
	// OutputDir receives <id>/<id>.json per platform.
	OutputDir string `yaml:"output_dir"`
	// DependenciesFile lists resolved artifacts (YAML or JSON).
	DependenciesFile string `yaml:"dependencies_file"`
	// ProbeTimeout bounds connect and response time of a single mirror probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// Workers is the number of artifacts processed concurrently.
	Workers int `yaml:"workers"`
	// Application describes the platform-specific jar being published.
	Application Application `yaml:"application"`
	// Metadata is copied into every manifest.
	Metadata Metadata `yaml:"metadata"`
}

// FallbackRule maps a group prefix to a repository base URL.
type FallbackRule struct {
	Prefix     string `yaml:"prefix"`
	Repository string `yaml:"repository"`
}

// Override is a static entry for one coordinate.
type Override struct {
	// Coordinate is "group:name:version[:classifier]".
	Coordinate string `yaml:"coordinate"`
	// Path is the real repository path, e.g. a timestamped snapshot file.
	Path string `yaml:"path"`
	// SHA1 and Size describe the remote file; zero values keep the local digest.
	SHA1 string `yaml:"sha1,omitempty"`
	Size int64  `yaml:"size,omitempty"`
	// URL pins the download location; empty means answering mirror + Path.
	URL string `yaml:"url,omitempty"`
}

// Application is the jar produced by the build for each platform.
type Application struct {
	Group   string `yaml:"group"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Prerelease routes the self-entry to SnapshotRepository and tags the manifest "snapshot".
	Prerelease         bool   `yaml:"prerelease"`
	ReleaseRepository  string `yaml:"release_repository"`
	SnapshotRepository string `yaml:"snapshot_repository"`
	// ArtifactPathTemplate locates the built jar; {name}, {version} and {platform} are substituted.
	ArtifactPathTemplate string `yaml:"artifact_path_template"`
}

// Metadata holds the static manifest fields.
type Metadata struct {
	IDPrefix         string `yaml:"id_prefix"`
	InheritsFrom     string `yaml:"inherits_from"`
	MainClass        string `yaml:"main_class"`
	JavaMajorVersion int    `yaml:"java_major_version"`
	JavaComponent    string `yaml:"java_component,omitempty"`
}

const (
	// DefaultConfigFilename is looked up in the working directory when no path is given.
	DefaultConfigFilename = "launcher-manifest.yaml"

	// DefaultProbeTimeout keeps a pass over many artifacts from stalling the build.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultWorkers is the artifact concurrency.
	DefaultWorkers = 8

	// DefaultOutputDir mirrors the launcher's versions directory.
	DefaultOutputDir = "build/versions"

	// DefaultRepository is Maven Central.
	DefaultRepository = "https://repo.maven.apache.org/maven2"

	// DefaultArtifactPathTemplate points at the shadow jar output.
	DefaultArtifactPathTemplate = "build/libs/{name}-{version}-{platform}.jar"

	// DefaultFilePermissions is used when saving the config file.
	DefaultFilePermissions = 0o600

	maxProbeTimeout = time.Minute
)

var (
	errConfigIsNotSet       = errors.New("configuration is not set")
	errNoMirrors            = errors.New("at least one mirror must be configured")
	errInvalidRepositoryURL = errors.New("invalid repository URL")
	errInvalidOverride      = errors.New("invalid override")
	errInvalidApplication   = errors.New("invalid application settings")
	errInvalidMetadata      = errors.New("invalid metadata")
	errInvalidTimeout       = errors.New("probe timeout out of range")
)

// Default returns the configuration of the meldmc launcher build.
func Default() *Config {
	return &Config{
		Mirrors: []string{
			"https://repo.maven.apache.org/maven2",
			"https://libraries.minecraft.net",
			"https://jitpack.io",
			"https://maven.fabricmc.net",
			"https://repo.opencollab.dev/maven-releases",
		},
		Fallback: []FallbackRule{
			{Prefix: "com.mojang", Repository: "https://libraries.minecraft.net"},
			{Prefix: "net.fabricmc", Repository: "https://maven.fabricmc.net"},
			{Prefix: "org.geysermc", Repository: "https://repo.opencollab.dev/maven-releases"},
			{Prefix: "com.github.", Repository: "https://jitpack.io"},
		},
		DefaultRepository: DefaultRepository,
		ExcludedGroups:    []string{"org.openjfx"},
		NativeMarkers:     []string{"natives-"},
		Overrides:         []Override{},
		Platforms:         []string{},
		OutputDir:         DefaultOutputDir,
		ProbeTimeout:      DefaultProbeTimeout,
		Workers:           DefaultWorkers,
		Application: Application{
			Group:                "net.coosanta",
			Name:                 "meldmc",
			Version:              "0.0.1d",
			ReleaseRepository:    "https://repo.coosanta.net/releases",
			SnapshotRepository:   "https://repo.coosanta.net/snapshots",
			ArtifactPathTemplate: DefaultArtifactPathTemplate,
		},
		Metadata: Metadata{
			IDPrefix:         "meldmc",
			InheritsFrom:     "1.21.4",
			MainClass:        "net.coosanta.meldmc.Main",
			JavaMajorVersion: 21,
		},
	}
}

// Load reads configuration from path. An empty path uses DefaultConfigFilename
// when it exists and the built-in defaults otherwise; an explicit path must exist.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		return cfg, Validate(cfg)
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks URLs, overrides, platforms and metadata.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if len(cfg.Mirrors) == 0 {
		return errNoMirrors
	}

	if cfg.ProbeTimeout > maxProbeTimeout {
		return fmt.Errorf("%s exceeds %s: %w", cfg.ProbeTimeout, maxProbeTimeout, errInvalidTimeout)
	}

	for _, mirror := range cfg.Mirrors {
		if err := validateRepositoryURL(mirror); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
	}

	for _, rule := range cfg.Fallback {
		if err := validateRepositoryURL(rule.Repository); err != nil {
			return fmt.Errorf("fallback %q: %w", rule.Prefix, err)
		}
	}

	if err := validateRepositoryURL(cfg.DefaultRepository); err != nil {
		return fmt.Errorf("default repository: %w", err)
	}

	for _, override := range cfg.Overrides {
		if err := validateOverride(override); err != nil {
			return err
		}
	}

	if _, err := artifact.ParsePlatforms(cfg.Platforms); err != nil {
		return err
	}

	if err := validateApplication(&cfg.Application); err != nil {
		return err
	}

	if cfg.Metadata.MainClass == "" || cfg.Metadata.JavaMajorVersion <= 0 {
		return fmt.Errorf("main class and java major version are required: %w", errInvalidMetadata)
	}

	return nil
}

// applyDefaults sets zero-valued tunables.
func applyDefaults(cfg *Config) {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.DefaultRepository == "" {
		cfg.DefaultRepository = DefaultRepository
	}

	if cfg.Application.ArtifactPathTemplate == "" {
		cfg.Application.ArtifactPathTemplate = DefaultArtifactPathTemplate
	}

	if cfg.Metadata.IDPrefix == "" {
		cfg.Metadata.IDPrefix = cfg.Application.Name
	}
}

func validateRepositoryURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%q: %w: %w", raw, errInvalidRepositoryURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q: %w", raw, errInvalidRepositoryURL)
	}

	return nil
}

func validateOverride(o Override) error {
	if _, err := artifact.ParseCoordinate(o.Coordinate); err != nil {
		return fmt.Errorf("override: %w", err)
	}

	if o.Path == "" || strings.HasPrefix(o.Path, "/") {
		return fmt.Errorf("%s: relative path required: %w", o.Coordinate, errInvalidOverride)
	}

	if o.SHA1 != "" && !checksum.IsSHA1Hex(o.SHA1) {
		return fmt.Errorf("%s: sha1 must be 40 lowercase hex characters: %w", o.Coordinate, errInvalidOverride)
	}

	if o.Size < 0 {
		return fmt.Errorf("%s: negative size: %w", o.Coordinate, errInvalidOverride)
	}

	if o.URL != "" {
		if err := validateRepositoryURL(o.URL); err != nil {
			return fmt.Errorf("%s: %w", o.Coordinate, err)
		}
	}

	return nil
}

func validateApplication(app *Application) error {
	coordinate := artifact.Coordinate{Group: app.Group, Name: app.Name, Version: app.Version}
	if err := coordinate.Validate(); err != nil {
		return fmt.Errorf("application: %w", err)
	}

	for _, repo := range []string{app.ReleaseRepository, app.SnapshotRepository} {
		if err := validateRepositoryURL(repo); err != nil {
			return fmt.Errorf("application repository: %w: %w", errInvalidApplication, err)
		}
	}

	if !strings.Contains(app.ArtifactPathTemplate, "{platform}") {
		return fmt.Errorf("artifact path template must contain {platform}: %w", errInvalidApplication)
	}

	return nil
}
