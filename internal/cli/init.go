// Package cli provides the expenses command line: the API server and the
// administrative commands that share its configuration and database.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, overlaid on
// file when one is given, and validates it.
func LoadAndValidateConfig(file string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if file != "" {
		cfg, err = config.LoadFile(file)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// OpenRepository connects to the configured database and brings its schema
// up to date.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Repository, error) {
	repo, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s repository: %w", cfg.DBDriver, err)
	}
	logger.WithComponent(log.ComponentStorage).Info("Database ready",
		log.FieldOperation, log.OpStartup,
		"driver", cfg.DBDriver)
	return repo, nil
}
