// Package config provides configuration loading, validation, and management
// for the optimizer and the clarification workflow.
//
// A single global Config instance is maintained in memory, protected by a
// mutex. GetConfig returns the config BY VALUE (copy, not reference) to
// prevent external mutation; all changes go through Load or Set* functions,
// which validate before applying. Algorithm constants that users should not
// tune (field priority ranks, question catalogs) live with their packages,
// not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"oos/pkg/logx"
)

// Defaults for policy knobs. These are heuristics, kept configurable rather
// than hardcoded at call sites.
const (
	DefaultTokenBudget         = 2000
	DefaultCharsPerToken       = 4
	DefaultConfidenceThreshold = 0.8
	DefaultMaxRounds           = 3

	// ConfigFilename is the optional config file under the oos home directory.
	ConfigFilename = "config.yaml"

	// HomeDirName is the per-user directory holding config, history, and the
	// session database. Overridable via the OOS_HOME environment variable.
	HomeDirName = ".oos"
)

// OptimizerConfig holds Budget Optimizer settings.
type OptimizerConfig struct {
	DefaultBudget int `yaml:"default_budget" json:"default_budget"`
	CharsPerToken int `yaml:"chars_per_token" json:"chars_per_token"`
}

// ClarifyConfig holds clarification workflow policy.
type ClarifyConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	MaxRounds           int     `yaml:"max_rounds" json:"max_rounds"`
}

// Config is the root configuration object.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer" json:"optimizer"`
	Clarify   ClarifyConfig   `yaml:"clarify" json:"clarify"`

	// HomeDir is where history files and the session database live.
	// Not read from the config file; resolved at load time.
	HomeDir string `yaml:"-" json:"-"`
}

//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config *Config
	logger *logx.Logger
	mu     sync.RWMutex
)

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// defaultConfig returns a fully populated config with default policy values.
func defaultConfig(homeDir string) *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			DefaultBudget: DefaultTokenBudget,
			CharsPerToken: DefaultCharsPerToken,
		},
		Clarify: ClarifyConfig{
			ConfidenceThreshold: DefaultConfidenceThreshold,
			MaxRounds:           DefaultMaxRounds,
		},
		HomeDir: homeDir,
	}
}

// ResolveHomeDir returns the oos home directory: $OOS_HOME if set, otherwise
// ~/.oos. The directory is not created here; callers create it on first write.
func ResolveHomeDir() string {
	if dir := os.Getenv("OOS_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative directory rather than failing startup.
		return HomeDirName
	}
	return filepath.Join(home, HomeDirName)
}

// Load initializes the global config. A missing config file is not an error;
// defaults apply. A malformed file is an error so typos are not silently
// ignored.
func Load() error {
	return LoadFrom(ResolveHomeDir())
}

// LoadFrom initializes the global config from the given home directory.
func LoadFrom(homeDir string) error {
	cfg := defaultConfig(homeDir)

	path := filepath.Join(homeDir, ConfigFilename)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file; defaults apply.
	case err != nil:
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		getLogger().Debug("Loaded config from %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	config = cfg
	return nil
}

// GetConfig returns the current configuration by value. If Load was never
// called, defaults are returned so library use does not require config setup.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()

	if config == nil {
		return *defaultConfig(ResolveHomeDir())
	}
	return *config
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Optimizer.DefaultBudget <= 0 {
		return fmt.Errorf("optimizer.default_budget must be positive, got %d", c.Optimizer.DefaultBudget)
	}
	if c.Optimizer.CharsPerToken <= 0 {
		return fmt.Errorf("optimizer.chars_per_token must be positive, got %d", c.Optimizer.CharsPerToken)
	}
	if c.Clarify.ConfidenceThreshold <= 0 || c.Clarify.ConfidenceThreshold > 1 {
		return fmt.Errorf("clarify.confidence_threshold must be in (0,1], got %g", c.Clarify.ConfidenceThreshold)
	}
	if c.Clarify.MaxRounds < 1 {
		return fmt.Errorf("clarify.max_rounds must be at least 1, got %d", c.Clarify.MaxRounds)
	}
	return nil
}

// HistoryDir returns the directory holding the history JSON files.
func (c *Config) HistoryDir() string {
	return c.HomeDir
}

// DatabasePath returns the session database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.HomeDir, "sessions.db")
}

// Reset clears the global config. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
}
