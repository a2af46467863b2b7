package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/webappsync/internal/common"
)

// Storage backends understood by the application context.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds runtime settings for the webappsync client.
//
// Fields:
//   - ServerURL: WebSocket endpoint of the backend (ws:// or wss://).
//   - UserID: value sent in every envelope's env.user.
//   - Language: locale used for success notifications.
//   - StorageBackend: "sqlite" or "redis"; selects where the menu cache and
//     filter snapshot are persisted.
//   - DatabaseDSN / RedisURL: connection settings for the chosen backend.
//   - CacheDuration / RefreshThreshold: menu cache TTL policy.
//   - DedupCapacity: per-store bound of remembered message fingerprints.
//   - ReconnectInterval / WriteTimeout: transport tuning.
//   - LogLevel / LogFormat: structured logging setup.
type Config struct {
	ServerURL         string
	UserID            string
	Language          string
	StorageBackend    string
	DatabaseDSN       string
	RedisURL          string
	CacheDuration     time.Duration
	RefreshThreshold  time.Duration
	DedupCapacity     int
	ReconnectInterval time.Duration
	WriteTimeout      time.Duration
	LogLevel          string
	LogFormat         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "ws://127.0.0.1:8080/ws"
	c.UserID = ""
	c.Language = "en-US"
	c.StorageBackend = StorageSQLite
	c.DatabaseDSN = "webappsync.db"
	c.RedisURL = "redis://127.0.0.1:6379/0"
	c.CacheDuration = 24 * time.Hour
	c.RefreshThreshold = 23 * time.Hour
	c.DedupCapacity = 1024
	c.ReconnectInterval = 5 * time.Second
	c.WriteTimeout = 5 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config from defaults, then overlays the
// environment (optionally seeded from a .env file), a JSON file and finally
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], ".env")
}

// Load is LoadConfig with explicit arguments and .env path; an empty
// dotenv path skips the .env file.
func Load(args []string, dotenv string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, dotenv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects durations the menu cache and the transport cannot run
// with. RefreshThreshold must not exceed CacheDuration.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"cache duration", c.CacheDuration},
		{"refresh threshold", c.RefreshThreshold},
		{"reconnect interval", c.ReconnectInterval},
		{"write timeout", c.WriteTimeout},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidArgument, p.name, p.d)
		}
	}
	if c.RefreshThreshold > c.CacheDuration {
		return fmt.Errorf("%w: refresh threshold %s exceeds cache duration %s",
			common.ErrInvalidArgument, c.RefreshThreshold, c.CacheDuration)
	}
	return nil
}
