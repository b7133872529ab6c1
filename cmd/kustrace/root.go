// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for kustrace.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kustrace/kustrace/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// cfg is the configuration loaded by initRootConfig.
	cfg = config.DefaultConfig()
	// logger is the process-wide logger, reconfigured by initRootConfig.
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "kustrace"})

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "kustrace",
		Short: "Scan kustomize trees with provenance-aware results",
		Long: TitleStyle.Render("kustrace") + SubtitleStyle.Render(" - kustomize tree scanner with provenance") + `

kustrace discovers kustomization.yaml units under a directory tree,
classifies them as bases or overlays, names each overlay from its position
relative to its base, templates every unit with the external kustomize
binary, and splits the output into individually addressable resource files.
Policy findings against those files are reported with overlay-aware
identifiers such as "overlay:prod:Deployment/app" instead of temp paths.

` + SubtitleStyle.Render("Examples:") + `
  kustrace scan .                    Scan the current tree
  kustrace scan --file path/kustomization.yaml
  kustrace watch .                   Re-scan on manifest changes
  kustrace doctor                    Check the kustomize binary`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/kustrace/config.yaml)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file and environment, then shapes the
// process logger accordingly.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	loaded, path, err := config.Load()
	if err != nil {
		// Config problems never block a run; defaults apply.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		renderIssueHelp(os.Stderr, issueForConfigError())
	} else {
		cfg = loaded
		if path != "" {
			logger.Debug("loaded config file", "path", path)
		}
	}

	level := log.InfoLevel
	if parsed, parseErr := log.ParseLevel(cfg.LogLevel); parseErr == nil {
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	log.SetDefault(logger)
}
