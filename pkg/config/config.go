package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ptrack/pkg/covalent"
	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
)

const (
	ConfigFileName = ".ptrack.yaml"
	LogFileName    = ".ptrack.log"
	EnvPrefix      = "PTRACK"
)

// ServerConfig holds settings of the HTTP surface.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logger settings. An empty File logs to stderr.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config holds all configuration for the application.
type Config struct {
	APIKey                string        `mapstructure:"api_key"`
	BaseURL               string        `mapstructure:"base_url"`
	DefaultNetwork        string        `mapstructure:"default_network"`
	FetchMode             string        `mapstructure:"fetch_mode"`
	RequestTimeoutSeconds int           `mapstructure:"request_timeout_seconds"`
	RetryCount            int           `mapstructure:"retry_count"`
	RateLimitPerSecond    float64       `mapstructure:"rate_limit_per_second"`
	Server                ServerConfig  `mapstructure:"server"`
	Logging               LoggingConfig `mapstructure:"logging"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:               covalent.DefaultBaseURL,
		DefaultNetwork:        string(models.DefaultNetwork),
		FetchMode:             string(explorer.ModeSequential),
		RequestTimeoutSeconds: 30,
		RetryCount:            0,
		RateLimitPerSecond:    4,
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// DefaultLogPath returns the log file used by the terminal UI.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return LogFileName
	}
	return filepath.Join(home, LogFileName)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("default_network", d.DefaultNetwork)
	v.SetDefault("fetch_mode", d.FetchMode)
	v.SetDefault("request_timeout_seconds", d.RequestTimeoutSeconds)
	v.SetDefault("retry_count", d.RetryCount)
	v.SetDefault("rate_limit_per_second", d.RateLimitPerSecond)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// Load reads configuration from path, a .env file in the working
// directory and the environment. Environment variables take precedence
// over the file. A missing file is not an error; neither is a missing API
// key, which only surfaces on the first upstream call.
//
// Environment variables:
//   - COVALENT_API_KEY or PTRACK_API_KEY
//   - PTRACK_BASE_URL, PTRACK_DEFAULT_NETWORK, PTRACK_FETCH_MODE
//   - PTRACK_REQUEST_TIMEOUT_SECONDS, PTRACK_RETRY_COUNT, PTRACK_RATE_LIMIT_PER_SECOND
//   - PTRACK_SERVER_PORT, PTRACK_LOGGING_LEVEL, PTRACK_LOGGING_FILE
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "PTRACK_API_KEY", "COVALENT_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate returns a description of every invalid setting.
func (c *Config) Validate() []string {
	var errs []string
	if _, err := models.ParseNetwork(c.DefaultNetwork); err != nil {
		errs = append(errs, fmt.Sprintf("default_network: %v", err))
	}
	if _, err := explorer.ParseMode(c.FetchMode); err != nil {
		errs = append(errs, fmt.Sprintf("fetch_mode: %v", err))
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, "base_url: must not be empty")
	}
	if c.RequestTimeoutSeconds <= 0 {
		errs = append(errs, "request_timeout_seconds: must be positive")
	}
	if c.RetryCount < 0 {
		errs = append(errs, "retry_count: must not be negative")
	}
	if c.RateLimitPerSecond < 0 {
		errs = append(errs, "rate_limit_per_second: must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: %d out of range", c.Server.Port))
	}
	return errs
}

// Network returns the configured default network, falling back to the
// built-in default when the setting is invalid.
func (c *Config) Network() models.Network {
	n, err := models.ParseNetwork(c.DefaultNetwork)
	if err != nil {
		return models.DefaultNetwork
	}
	return n
}

func (c *Config) Mode() explorer.Mode {
	m, err := explorer.ParseMode(c.FetchMode)
	if err != nil {
		return explorer.ModeSequential
	}
	return m
}

func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return explorer.DefaultTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ClientOptions maps the config onto the upstream client options.
func (c *Config) ClientOptions() covalent.Options {
	return covalent.Options{
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		RetryCount: c.RetryCount,
		RateLimit:  c.RateLimitPerSecond,
	}
}

// ExplorerOptions maps the config onto the explorer options.
func (c *Config) ExplorerOptions() explorer.Options {
	return explorer.Options{
		Mode:           c.Mode(),
		Timeout:        c.RequestTimeout(),
		DefaultNetwork: c.Network(),
	}
}

// SaveConfig writes cfg to path as YAML. The API key is never written. An
// existing file is backed up first.
func SaveConfig(cfg Config, path string) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("base_url", cfg.BaseURL)
	v.Set("default_network", cfg.DefaultNetwork)
	v.Set("fetch_mode", cfg.FetchMode)
	v.Set("request_timeout_seconds", cfg.RequestTimeoutSeconds)
	v.Set("retry_count", cfg.RetryCount)
	v.Set("rate_limit_per_second", cfg.RateLimitPerSecond)
	v.Set("server.port", cfg.Server.Port)
	v.Set("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.Set("logging.level", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		v.Set("logging.file", cfg.Logging.File)
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := v.WriteConfigAs(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
