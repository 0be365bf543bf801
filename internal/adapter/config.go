package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Remote       RemoteConfig       `mapstructure:"remote"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds the catalog server location
type ServerConfig struct {
	URL string `mapstructure:"url"`
}

// RemoteConfig holds HTTP client settings
type RemoteConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConnectivityConfig controls the reachability probe
type ConnectivityConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	ProbeAttempts int           `mapstructure:"probe_attempts"` // Failed pings before going offline
}

// SyncConfig controls pending mutation replay
type SyncConfig struct {
	DrainConcurrency int `mapstructure:"drain_concurrency"`
}

// StorageConfig holds the local data location. Empty means memory-only.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8080",
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		Connectivity: ConnectivityConfig{
			Interval:      5 * time.Second,
			ProbeAttempts: 3,
		},
		Sync: SyncConfig{
			DrainConcurrency: 4,
		},
		Storage: StorageConfig{
			Dir: defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultSharePath(), "shelf.log"),
			Level: "INFO",
		},
	}
}

// defaultSharePath returns the per-user data root for the current OS
func defaultSharePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelf")
	}
}

func defaultDataPath() string {
	return filepath.Join(defaultSharePath(), "data")
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelf")
	}
}

// LoadConfig loads configuration from file and environment. An empty
// configFile searches the default config directory and the working directory.
func LoadConfig(configFile string) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	dir, err := ExpandHome(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance carrying the defaults, with SHELF_
// environment overrides (SHELF_SERVER_URL, SHELF_SYNC_DRAIN_CONCURRENCY, ...)
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("server.url", def.Server.URL)
	v.SetDefault("remote.timeout", def.Remote.Timeout)
	v.SetDefault("connectivity.interval", def.Connectivity.Interval)
	v.SetDefault("connectivity.probe_attempts", def.Connectivity.ProbeAttempts)
	v.SetDefault("sync.drain_concurrency", def.Sync.DrainConcurrency)
	v.SetDefault("storage.dir", def.Storage.Dir)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("server.url must start with http:// or https://, got %q", c.Server.URL)
	}
	if c.Sync.DrainConcurrency < 1 {
		return fmt.Errorf("sync.drain_concurrency must be at least 1, got %d", c.Sync.DrainConcurrency)
	}
	if c.Connectivity.ProbeAttempts < 1 {
		return fmt.Errorf("connectivity.probe_attempts must be at least 1, got %d", c.Connectivity.ProbeAttempts)
	}
	return nil
}

// SaveConfig writes cfg to config.yaml in dir and returns the file path
func SaveConfig(cfg *Config, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("remote.timeout", cfg.Remote.Timeout.String())
	v.Set("connectivity.interval", cfg.Connectivity.Interval.String())
	v.Set("connectivity.probe_attempts", cfg.Connectivity.ProbeAttempts)
	v.Set("sync.drain_concurrency", cfg.Sync.DrainConcurrency)
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

// ClearData removes the local catalog cache and pending queue for every server
func ClearData(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
