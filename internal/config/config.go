package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Backfill BackfillConfig `mapstructure:"backfill"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds configuration for all external metadata providers.
type MetadataConfig struct {
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	OMDB      OMDBConfig      `mapstructure:"omdb"`
	LDDB      LDDBConfig      `mapstructure:"lddb"`
	Barcode   BarcodeConfig   `mapstructure:"barcode"`
	WebSearch WebSearchConfig `mapstructure:"websearch"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"`
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// LDDBConfig holds catalog database (LDDb) configuration.
type LDDBConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Timeout   int    `mapstructure:"timeout"`
}

// BarcodeConfig holds barcode registry configuration.
// Registries are tried in the order they are listed.
type BarcodeConfig struct {
	Registries []RegistryConfig `mapstructure:"registries"`
}

// RegistryConfig holds a single barcode registry endpoint.
type RegistryConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

// WebSearchConfig holds the generic web-search provider configuration.
type WebSearchConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Timeout   int    `mapstructure:"timeout"`
}

// BackfillConfig holds batch backfill driver configuration.
type BackfillConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	BatchSize       int  `mapstructure:"batch_size"`
	ItemDelayMs     int  `mapstructure:"item_delay_ms"`
}

// defaultUserAgent is sent to sites that reject requests without a browser UA.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.catalogd")
	}

	// Environment variable settings
	v.SetEnvPrefix("CATALOGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	// Unmarshal into struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)

	// Database defaults
	v.SetDefault("database.path", "./data/catalogd.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// Provider defaults
	v.SetDefault("metadata.tmdb.api_key", "")
	v.SetDefault("metadata.tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("metadata.tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("metadata.tmdb.timeout", 10)

	v.SetDefault("metadata.omdb.api_key", "")
	v.SetDefault("metadata.omdb.base_url", "https://www.omdbapi.com/")
	v.SetDefault("metadata.omdb.timeout", 10)

	v.SetDefault("metadata.lddb.base_url", "https://www.lddb.com")
	v.SetDefault("metadata.lddb.user_agent", defaultUserAgent)
	v.SetDefault("metadata.lddb.timeout", 10)

	v.SetDefault("metadata.barcode.registries", []map[string]interface{}{
		{
			"name":     "upcitemdb",
			"base_url": "https://api.upcitemdb.com/prod/trial",
			"timeout":  10,
		},
	})

	v.SetDefault("metadata.websearch.base_url", "https://www.google.com")
	v.SetDefault("metadata.websearch.user_agent", defaultUserAgent)
	v.SetDefault("metadata.websearch.timeout", 10)

	// Backfill defaults
	v.SetDefault("backfill.enabled", false)
	v.SetDefault("backfill.interval_minutes", 15)
	v.SetDefault("backfill.batch_size", 25)
	v.SetDefault("backfill.item_delay_ms", 250)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
