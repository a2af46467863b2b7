package config

import (
	"flag"

	"github.com/dmitrijs2005/webappsync/internal/flagx"
)

var knownFlags = []string{"-a", "-u", "-l", "-s", "-d", "-r", "-log"}

// parseFlags populates Config fields from command-line flags. Arguments
// belonging to other components are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("webappsync", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "WebSocket URL of the backend")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id sent in envelopes")
	fs.StringVar(&cfg.Language, "l", cfg.Language, "notification language")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend (sqlite|redis)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "Redis URL")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level (debug|info|warn|error)")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
