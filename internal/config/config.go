package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/streed/notevault/internal/constants"
	interrors "github.com/streed/notevault/internal/errors"
)

type Config struct {
	DataDirectory string `json:"data_directory"`
	DatabasePath  string `json:"database_path,omitempty"`

	Debug  bool   `json:"debug"`
	Editor string `json:"editor,omitempty"`

	// Engine tuning. Zero values fall back to the package defaults so an
	// older config file keeps working after new knobs are added.
	SearchCacheSize        int `json:"search_cache_size,omitempty"`
	VersionLookupCacheSize int `json:"version_lookup_cache_size,omitempty"`
	KeepLatestVersions     int `json:"keep_latest_versions,omitempty"`
	DebounceDelayMs        int `json:"debounce_delay_ms,omitempty"`
	VersionCheckIntervalMs int `json:"version_check_interval_ms,omitempty"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		DataDirectory:          "", // Will be set to ~/.local/share/notevault
		DatabasePath:           "", // Will be set to DataDirectory/notes.db
		Debug:                  false,
		Editor:                 "", // Empty means auto-detect editor
		SearchCacheSize:        constants.SearchCacheSize,
		VersionLookupCacheSize: constants.VersionLookupCacheSize,
		KeepLatestVersions:     constants.DefaultKeepLatest,
		DebounceDelayMs:        int(constants.DefaultDebounceDelay / time.Millisecond),
		VersionCheckIntervalMs: int(constants.DefaultVersionCheckInterval / time.Millisecond),
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "notevault", "config.json"), nil
}

func GetDefaultDataDirectory() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".notevault")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "notevault")
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyFallbacks(&cfg)
		return &cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyFallbacks(&cfg)
	return &cfg, nil
}

func applyFallbacks(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.DataDirectory == "" {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDirectory, "notes.db")
	}
	if cfg.SearchCacheSize <= 0 {
		cfg.SearchCacheSize = defaults.SearchCacheSize
	}
	if cfg.VersionLookupCacheSize <= 0 {
		cfg.VersionLookupCacheSize = defaults.VersionLookupCacheSize
	}
	if cfg.KeepLatestVersions <= 0 {
		cfg.KeepLatestVersions = defaults.KeepLatestVersions
	}
	if cfg.DebounceDelayMs <= 0 {
		cfg.DebounceDelayMs = defaults.DebounceDelayMs
	}
	if cfg.VersionCheckIntervalMs <= 0 {
		cfg.VersionCheckIntervalMs = defaults.VersionCheckIntervalMs
	}
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, constants.ConfigDirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if cfg.DataDirectory != "" {
		if err := os.MkdirAll(cfg.DataDirectory, constants.DataDirMode); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write config file with secure permissions
	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// InitializeConfig creates and saves a fresh configuration, used by the
// init command.
func InitializeConfig(dataDir string) (*Config, error) {
	cfg := getDefaultConfig()

	if dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}
	cfg.DatabasePath = filepath.Join(cfg.DataDirectory, "notes.db")

	if err := Save(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDirectory, "notes.db")
}

func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceDelayMs) * time.Millisecond
}

func (c *Config) VersionCheckInterval() time.Duration {
	return time.Duration(c.VersionCheckIntervalMs) * time.Millisecond
}

// Get returns a configuration value by key for the config command.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "data-directory":
		return c.DataDirectory, nil
	case "database-path":
		return c.GetDatabasePath(), nil
	case "debug":
		return strconv.FormatBool(c.Debug), nil
	case "editor":
		return c.Editor, nil
	case "search-cache-size":
		return strconv.Itoa(c.SearchCacheSize), nil
	case "version-lookup-cache-size":
		return strconv.Itoa(c.VersionLookupCacheSize), nil
	case "keep-latest-versions":
		return strconv.Itoa(c.KeepLatestVersions), nil
	case "debounce-delay-ms":
		return strconv.Itoa(c.DebounceDelayMs), nil
	case "version-check-interval-ms":
		return strconv.Itoa(c.VersionCheckIntervalMs), nil
	default:
		return "", fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
}

// Set updates a configuration value by key for the config command.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "debug":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		c.Debug = b
	case "editor":
		c.Editor = value
	case "search-cache-size":
		return setPositiveInt(&c.SearchCacheSize, value)
	case "version-lookup-cache-size":
		return setPositiveInt(&c.VersionLookupCacheSize, value)
	case "keep-latest-versions":
		return setPositiveInt(&c.KeepLatestVersions, value)
	case "debounce-delay-ms":
		return setPositiveInt(&c.DebounceDelayMs, value)
	case "version-check-interval-ms":
		return setPositiveInt(&c.VersionCheckIntervalMs, value)
	default:
		return fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case constants.BoolTrue, constants.BoolYes, constants.BoolOne:
		return true, nil
	case constants.BoolFalse, constants.BoolNo, constants.BoolZero:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", interrors.ErrInvalidBoolean, value)
	}
}

func setPositiveInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid value %q: expected a positive integer", value)
	}
	*dst = n
	return nil
}
