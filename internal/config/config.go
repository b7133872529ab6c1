// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/kustrace/kustrace/internal/issue"
)

const (
	// AppName is the application name, used for config and env lookups.
	AppName = "kustrace"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
	// EnvPrefix prefixes environment overrides (KUSTRACE_LOG_LEVEL etc.).
	EnvPrefix = "KUSTRACE"
)

type (
	// WatchConfig holds watch-mode tuning.
	WatchConfig struct {
		// DebounceMs is the quiet period after the last filesystem event
		// before a re-scan fires.
		DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	}

	// Config is the fully resolved kustrace configuration.
	Config struct {
		// KustomizeCommand is the binary used for templating invocations.
		KustomizeCommand string `mapstructure:"kustomize_command" yaml:"kustomize_command"`
		// SkipPaths are doublestar globs pruned from directory scans.
		SkipPaths []string `mapstructure:"skip_paths" yaml:"skip_paths"`
		// OutputFormat selects the summary rendering: "text" or "json".
		OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
		// LogLevel is one of debug, info, warn, error.
		LogLevel string `mapstructure:"log_level" yaml:"log_level"`
		// KeepOutput retains the private output tree after a run.
		KeepOutput bool `mapstructure:"keep_output" yaml:"keep_output"`
		// Watch tunes watch mode.
		Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
	}
)

// configFilePathOverride is set by the --config flag and wins over every
// search location. Tests use SetConfigDirOverride instead.
var (
	configFilePathOverride string
	configDirOverride      string
)

// SetConfigFilePathOverride makes Load use exactly this config file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// SetConfigDirOverride redirects the config directory lookup, primarily for
// tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		KustomizeCommand: "kustomize",
		SkipPaths:        []string{},
		OutputFormat:     "text",
		LogLevel:         "info",
		KeepOutput:       false,
		Watch:            WatchConfig{DebounceMs: 500},
	}
}

// ConfigDir returns the kustrace configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load resolves the configuration. A missing config file is not an error;
// defaults apply. A present-but-broken file is reported as an actionable
// error and the caller decides whether to continue with defaults.
// The second return value is the path of the file actually loaded ("" when
// running on defaults alone).
func Load() (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("kustomize_command", defaults.KustomizeCommand)
	v.SetDefault("skip_paths", defaults.SkipPaths)
	v.SetDefault("output_format", defaults.OutputFormat)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("keep_output", defaults.KeepOutput)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if configFilePathOverride != "" {
		if !fileExists(configFilePathOverride) {
			return nil, "", &issue.ActionableError{
				Operation: "load configuration",
				Resource:  configFilePathOverride,
				Suggestions: []string{
					"Verify the file path is correct",
					"Check that the file exists and is readable",
					"Use 'kustrace config show' to see the default configuration",
				},
				Cause: fmt.Errorf("config file not found: %s", configFilePathOverride),
			}
		}
		v.SetConfigFile(configFilePathOverride)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", configReadError(configFilePathOverride, err)
		}
		resolvedPath = configFilePathOverride
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, "", err
		}
		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			"." + AppName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return nil, "", configReadError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, resolvedPath, nil
}

func configReadError(path string, err error) error {
	return &issue.ActionableError{
		Operation: "load configuration",
		Resource:  path,
		Suggestions: []string{
			"Check that the file contains valid YAML syntax",
			"Verify the configuration keys match 'kustrace config show' output",
		},
		Cause: err,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
