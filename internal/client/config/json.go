package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/webappsync/internal/flagx"
	"github.com/dmitrijs2005/webappsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	ServerURL         *string         `json:"server_url"`
	UserID            *string         `json:"user_id"`
	Language          *string         `json:"language"`
	StorageBackend    *string         `json:"storage_backend"`
	DatabaseDSN       *string         `json:"database_dsn"`
	RedisURL          *string         `json:"redis_url"`
	CacheDuration     *timex.Duration `json:"cache_duration"`
	RefreshThreshold  *timex.Duration `json:"refresh_threshold"`
	DedupCapacity     *int            `json:"dedup_capacity"`
	ReconnectInterval *timex.Duration `json:"reconnect_interval"`
	WriteTimeout      *timex.Duration `json:"write_timeout"`
	LogLevel          *string         `json:"log_level"`
	LogFormat         *string         `json:"log_format"`
}

// parseJson overlays Config with values from the file named by -c/-config.
// Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.UserID, jc.UserID)
	setString(&cfg.Language, jc.Language)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setDuration(&cfg.CacheDuration, jc.CacheDuration)
	setDuration(&cfg.RefreshThreshold, jc.RefreshThreshold)
	setDuration(&cfg.ReconnectInterval, jc.ReconnectInterval)
	setDuration(&cfg.WriteTimeout, jc.WriteTimeout)
	if jc.DedupCapacity != nil {
		cfg.DedupCapacity = *jc.DedupCapacity
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
