package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/launcher-manifest/internal/config"
	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
	"github.com/oshokin/launcher-manifest/internal/logger"
	"github.com/oshokin/launcher-manifest/internal/service/generator"
	"github.com/oshokin/launcher-manifest/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum level of printed diagnostics.
	logLevel string
	// options collects generation flags.
	options generator.Options
	// force allows init to overwrite an existing config.
	force bool

	errUnknownLogLevel = errors.New("unknown log level")
	errConfigExists    = errors.New("configuration file already exists")

	// rootCmd generates launcher manifests.
	rootCmd = &cobra.Command{
		Use:   "launcher-manifest",
		Short: "Generate launcher manifests for the packaged application",
		Long: `Builds one launcher manifest per target platform from the resolved dependency list.

Every dependency is hashed and probed against the configured mirrors in order;
the first mirror answering 2xx provides its URL. When no mirror answers, a
group-prefix table supplies an unverified URL. Groups bundled into the
application jar and platform-native jars are left out, and the application's
own platform jar is appended last.

Supported platforms: win, mac, mac-aarch64, linux, linux-aarch64 (or "all").`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			_, err := generator.Run(ctx, &options)

			return err
		},
	}

	// initCmd writes the default configuration for editing.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigFilename
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s: %w (use --force to overwrite)", path, errConfigExists)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration written to", path)

			return nil
		},
	}
)

// Execute runs the launcher-manifest CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(initCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "launcher-manifest failed", "error", err)
		os.Exit(1)
	}
}

// applyLogLevel validates --log-level before any work starts.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("%q: %w", logLevel, errUnknownLogLevel)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+" if present)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "debug, info, warn or error")

	flags := rootCmd.Flags()
	flags.StringSliceVarP(&options.Platforms, "platform", "p", nil,
		"target platform, repeatable or comma-separated; \""+artifact.AllPlatforms+"\" for every platform (default: host)")
	flags.StringVarP(&options.DependenciesFile, "dependencies", "d", "", "YAML or JSON list of resolved artifacts")
	flags.StringArrayVarP(&options.Artifacts, "artifact", "a", nil, "extra resolved artifact as group:name:version=path")
	flags.StringVarP(&options.OutputDir, "output-dir", "o", "", "directory receiving <id>/<id>.json")
	flags.BoolVar(&options.Prerelease, "prerelease", false, "publish the application jar to the snapshot repository")
	flags.IntVarP(&options.Workers, "workers", "w", 0, "number of artifacts processed concurrently")

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
}
