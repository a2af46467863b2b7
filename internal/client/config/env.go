package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "WEBAPPSYNC_"

// parseEnv overlays Config with WEBAPPSYNC_* variables. When dotenv names
// an existing file its variables are loaded first; a missing file is not an
// error.
func parseEnv(cfg *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	strs := map[string]*string{
		"SERVER_URL":      &cfg.ServerURL,
		"USER_ID":         &cfg.UserID,
		"LANGUAGE":        &cfg.Language,
		"STORAGE_BACKEND": &cfg.StorageBackend,
		"DATABASE_DSN":    &cfg.DatabaseDSN,
		"REDIS_URL":       &cfg.RedisURL,
		"LOG_LEVEL":       &cfg.LogLevel,
		"LOG_FORMAT":      &cfg.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"CACHE_DURATION":     &cfg.CacheDuration,
		"REFRESH_THRESHOLD":  &cfg.RefreshThreshold,
		"RECONNECT_INTERVAL": &cfg.ReconnectInterval,
		"WRITE_TIMEOUT":      &cfg.WriteTimeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(envPrefix + "DEDUP_CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDEDUP_CAPACITY: %w", envPrefix, err)
		}
		cfg.DedupCapacity = n
	}
	return nil
}
