// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Storage driver names accepted for STORAGE_DRIVER.
const (
	DriverJSONFile = "jsonfile"
	DriverSQLite   = "sqlite"
)

// Config holds everything the process needs at startup.
type Config struct {
	// ListenAddr is the HTTP listen address (LISTEN_ADDR, default ":8080").
	ListenAddr string

	// DataDir is where the ledger lives on disk (DATA_DIR, default "data").
	DataDir string

	// StorageDriver selects the persistence backend (STORAGE_DRIVER,
	// "jsonfile" or "sqlite", default "jsonfile").
	StorageDriver string

	// AuthSecret signs and validates service tokens (AUTH_SECRET). Empty
	// disables authentication; intended for local development only.
	AuthSecret string

	// TransferDefault is the process-wide fallback for users who never set
	// their transfer flag (TRANSFER_DEFAULT, default false).
	TransferDefault bool
}

// FromEnv builds a Config from the environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DataDir:       getEnv("DATA_DIR", "data"),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverJSONFile),
		AuthSecret:    os.Getenv("AUTH_SECRET"),
	}

	if raw := os.Getenv("TRANSFER_DEFAULT"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRANSFER_DEFAULT %q: %w", raw, err)
		}
		cfg.TransferDefault = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverJSONFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %q or %q)",
			c.StorageDriver, DriverJSONFile, DriverSQLite)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	return nil
}

// LedgerPath is the ledger file location for the configured driver.
func (c *Config) LedgerPath() string {
	switch c.StorageDriver {
	case DriverSQLite:
		return filepath.Join(c.DataDir, "debts.db")
	default:
		return filepath.Join(c.DataDir, "debts.json")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
