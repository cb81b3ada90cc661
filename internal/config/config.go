// Package config loads and validates the service configuration.
// Precedence is environment (prefix SPOOL) over the optional
// config.yaml overlay over built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Database DatabaseConfig    `yaml:"database" envconfig:"DATABASE"`
	Export   ExportConfig      `yaml:"export" envconfig:"EXPORT"`
	Tables   map[string]string `yaml:"tables" envconfig:"TABLES"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DatabaseConfig is the connection parameter bundle for the relational
// store. All fields must be populated before a fetch; the pipeline
// never reads ambient credentials itself. Password is excluded from
// String().
type DatabaseConfig struct {
	Host           string        `yaml:"host" envconfig:"HOST"`
	Port           int           `yaml:"port" envconfig:"PORT"`
	Name           string        `yaml:"name" envconfig:"NAME"`
	User           string        `yaml:"user" envconfig:"USER"`
	Password       string        `yaml:"password" envconfig:"PASSWORD"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT"`
}

// String renders the database target without credentials for logging
func (d DatabaseConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
}

// ExportConfig contains extraction and pagination defaults
type ExportConfig struct {
	ChunkSize      int           `yaml:"chunk_size" envconfig:"CHUNK_SIZE"`
	MinRowsPerPage int           `yaml:"min_rows_per_page" envconfig:"MIN_ROWS_PER_PAGE"`
	MaxRowsPerPage int           `yaml:"max_rows_per_page" envconfig:"MAX_ROWS_PER_PAGE"`
	CacheTTL       time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

// Default returns the built-in configuration. The table mapping is the
// spool deployment's closed friendly-name set; deployments override it
// wholesale via the tables section or SPOOL_TABLES.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Database: DatabaseConfig{
			Port:           5432,
			ConnectTimeout: 10 * time.Second,
		},
		Export: ExportConfig{
			ChunkSize:      50000,
			MinRowsPerPage: 10,
			MaxRowsPerPage: 100,
			CacheTTL:       10 * time.Minute,
		},
		Tables: map[string]string{
			"Deposit":             "data_spool.b2c_collections",
			"Withdrawals":         "data_spool.b2c_payouts",
			"Trongrid":            "data_spool.trongrid",
			"OKX Data":            "data_spool.okx_data",
			"App Transactions":    "data_spool.in_app_transactions",
			"Nobblet for Finance": "data_spool.nobblet_finance",
			"Bitnob for Nobblet":  "data_spool.nobblet_bitnob_records",
		},
	}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom("config.yaml")
}

// LoadFrom loads configuration using the given YAML file path as the
// optional overlay source
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment values override both defaults and file values
	if err := envconfig.Process("SPOOL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file into cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Export.ChunkSize <= 0 {
		return fmt.Errorf("export chunk size must be positive, got %d", c.Export.ChunkSize)
	}

	if c.Export.MinRowsPerPage <= 0 || c.Export.MaxRowsPerPage < c.Export.MinRowsPerPage {
		return fmt.Errorf("invalid rows-per-page bounds: min %d, max %d",
			c.Export.MinRowsPerPage, c.Export.MaxRowsPerPage)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("table mapping must not be empty")
	}
	for friendly, qualified := range c.Tables {
		if friendly == "" || qualified == "" {
			return fmt.Errorf("table mapping entries must be non-empty, got %q -> %q", friendly, qualified)
		}
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}
