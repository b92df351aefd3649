package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ProjectFileName is the optional per-directory overlay merged on top of
// the user config.
const ProjectFileName = "trainload.yaml"

// GlobalConfig holds the global configuration instance.
var GlobalConfig *Config        //nolint:gochecknoglobals // Singleton pattern for configuration
var globalConfigMu sync.RWMutex //nolint:gochecknoglobals // Protects GlobalConfig

// SetGlobalConfig replaces the global configuration.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	GlobalConfig = cfg
}

// ResetGlobalConfigForTest resets the global config for testing purposes.
func ResetGlobalConfigForTest() {
	SetGlobalConfig(nil)
}

// GetGlobalConfig returns the global configuration, falling back to defaults
// if none was set.
func GetGlobalConfig() *Config {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	if GlobalConfig == nil {
		GlobalConfig = New()
	}
	return GlobalConfig
}

// LoadLayered builds the effective configuration: defaults, then the user
// config file, then ./trainload.yaml, then .env and TRAINLOAD_* variables.
// path overrides the user config location when non-empty.
func LoadLayered(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(ProjectFileName); statErr == nil {
		if mergeErr := ShallowMergeYAML(cfg, ProjectFileName); mergeErr != nil {
			return nil, mergeErr
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", ProjectFileName, statErr)
	}

	if err = cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns TRAINLOAD_CONFIG, or config.yaml in the config
// directory.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetConfigDir returns the trainload configuration directory, TRAINLOAD_HOME
// or ~/.trainload.
func GetConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".trainload"), nil
}

// EnsureConfigDir ensures the configuration directory exists.
func EnsureConfigDir() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// EnsureLogDir creates the parent directory of the configured log file.
func EnsureLogDir() error {
	cfg := GetGlobalConfig()
	if cfg.Logging.File == "" {
		return nil
	}
	logDir := filepath.Dir(cfg.Logging.File)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}
	return nil
}
