// Package config defines the wager-engine configuration and provides
// validation helpers. Fields are populated from a TOML file and then
// optionally overridden by RINGSIDE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Wagering WageringConfig `toml:"wagering"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP listener parameters.
type ServerConfig struct {
	Port            string `toml:"port"`
	ShutdownTimeout int    `toml:"shutdown_timeout_seconds"`
}

// WageringConfig holds the engine's economic parameters.
type WageringConfig struct {
	StartingBalance int64   `toml:"starting_balance"`
	HouseEdge       float64 `toml:"house_edge"`
	MinWager        int64   `toml:"min_wager"`
	MaxWager        int64   `toml:"max_wager"`          // 0 disables
	MaxPoolExposure int64   `toml:"max_pool_exposure"`  // 0 disables
	LockWaitMillis  int     `toml:"lock_wait_millis"`
}

// SnapshotConfig selects and parameterizes the persistence gateway.
type SnapshotConfig struct {
	// Backend is "file", "postgres", or "redis".
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	DatabaseURL     string `toml:"database_url"`
	RedisURL        string `toml:"redis_url"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 5,
		},
		Wagering: WageringConfig{
			StartingBalance: 1000,
			HouseEdge:       0.02,
			MinWager:        1,
			MaxWager:        0,
			MaxPoolExposure: 0,
			LockWaitMillis:  250,
		},
		Snapshot: SnapshotConfig{
			Backend:         "file",
			Path:            "wager-engine.json",
			IntervalSeconds: 30,
		},
		LogLevel: "info",
	}
}

// Validate checks cross-field consistency. Call after Load.
func (c *Config) Validate() error {
	if c.Wagering.HouseEdge < 0 || c.Wagering.HouseEdge >= 1 {
		return fmt.Errorf("config: house_edge must be in [0, 1), got %g", c.Wagering.HouseEdge)
	}
	if c.Wagering.MinWager < 1 {
		return fmt.Errorf("config: min_wager must be >= 1, got %d", c.Wagering.MinWager)
	}
	if c.Wagering.MaxWager > 0 && c.Wagering.MaxWager < c.Wagering.MinWager {
		return fmt.Errorf("config: max_wager %d below min_wager %d",
			c.Wagering.MaxWager, c.Wagering.MinWager)
	}
	if c.Wagering.StartingBalance < 0 {
		return fmt.Errorf("config: starting_balance must be >= 0, got %d", c.Wagering.StartingBalance)
	}
	if c.Snapshot.IntervalSeconds < 1 {
		return fmt.Errorf("config: snapshot interval_seconds must be >= 1, got %d",
			c.Snapshot.IntervalSeconds)
	}
	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.Path == "" {
			return fmt.Errorf("config: snapshot backend file requires path")
		}
	case "postgres":
		if c.Snapshot.DatabaseURL == "" {
			return fmt.Errorf("config: snapshot backend postgres requires database_url")
		}
	case "redis":
		if c.Snapshot.RedisURL == "" {
			return fmt.Errorf("config: snapshot backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("config: unknown snapshot backend %q", c.Snapshot.Backend)
	}
	return nil
}

// HouseEdgeRate returns the house edge as a decimal rate.
func (c *Config) HouseEdgeRate() decimal.Decimal {
	return decimal.NewFromFloat(c.Wagering.HouseEdge)
}

// LockWait returns the bounded lock wait as a duration.
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Wagering.LockWaitMillis) * time.Millisecond
}

// SnapshotInterval returns the snapshot cadence as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Snapshot.IntervalSeconds) * time.Second
}
