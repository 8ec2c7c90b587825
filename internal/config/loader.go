package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (skipped when path is
// empty or the file does not exist), merges it on top of the built-in
// defaults, applies RINGSIDE_* environment variable overrides, and
// returns the final Config. The caller should invoke Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RINGSIDE_* environment variables
// and overwrites the corresponding Config fields when a variable is
// set. This lets operators inject settings at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Port, "RINGSIDE_PORT")
	setStr(&cfg.Server.Port, "PORT") // platform convention
	setInt(&cfg.Server.ShutdownTimeout, "RINGSIDE_SHUTDOWN_TIMEOUT_SECONDS")

	setInt64(&cfg.Wagering.StartingBalance, "RINGSIDE_STARTING_BALANCE")
	setFloat(&cfg.Wagering.HouseEdge, "RINGSIDE_HOUSE_EDGE")
	setInt64(&cfg.Wagering.MinWager, "RINGSIDE_MIN_WAGER")
	setInt64(&cfg.Wagering.MaxWager, "RINGSIDE_MAX_WAGER")
	setInt64(&cfg.Wagering.MaxPoolExposure, "RINGSIDE_MAX_POOL_EXPOSURE")
	setInt(&cfg.Wagering.LockWaitMillis, "RINGSIDE_LOCK_WAIT_MILLIS")

	setStr(&cfg.Snapshot.Backend, "RINGSIDE_SNAPSHOT_BACKEND")
	setStr(&cfg.Snapshot.Path, "RINGSIDE_SNAPSHOT_PATH")
	setStr(&cfg.Snapshot.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.Snapshot.RedisURL, "REDIS_URL")
	setInt(&cfg.Snapshot.IntervalSeconds, "RINGSIDE_SNAPSHOT_INTERVAL_SECONDS")

	setStr(&cfg.LogLevel, "RINGSIDE_LOG_LEVEL")

	// Infer the backend when only a connection URL was provided.
	if os.Getenv("RINGSIDE_SNAPSHOT_BACKEND") == "" {
		if cfg.Snapshot.DatabaseURL != "" {
			cfg.Snapshot.Backend = "postgres"
		} else if cfg.Snapshot.RedisURL != "" {
			cfg.Snapshot.Backend = "redis"
		}
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
