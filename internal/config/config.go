package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLength = 16
)

type Config struct {
	// HTTP Server
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Write requests per minute per client, 0 disables limiting
	RateLimit int `yaml:"rate_limit"`

	// Database
	DBDriver     string `yaml:"db_driver"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`
	DatabaseURL  string `yaml:"database_url"`

	// Auth
	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// How long a confirmed user id skips the database on authentication, 0 (default) disables
	AuthCacheTTL time.Duration `yaml:"auth_cache_ttl"`

	// AMQP, empty URL disables change events
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 15 * time.Second,
		DBDriver:        DriverSQLite,
		SQLiteDBPath:    "./data/expenses.db",
		JWTIssuer:       "expenses",
		TokenTTL:        24 * time.Hour,
		AMQPExchange:    "expenses",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE and the environment, in that order of precedence (env wins).
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile is Load with an explicit YAML file instead of CONFIG_FILE.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)

	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.AuthCacheTTL = getEnvDuration("AUTH_CACHE_TTL", c.AuthCacheTTL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.SQLiteDBPath
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimit))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [%s %s]", c.DBDriver, DriverSQLite, DriverPostgres))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < minSecretLength {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWTIssuer == "" {
		errors = append(errors, "JWT issuer cannot be empty")
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}
	if c.AuthCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid auth cache TTL %v: must not be negative", c.AuthCacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
