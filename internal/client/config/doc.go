// Package config loads runtime configuration for the webappsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed with WEBAPPSYNC_, optionally seeded
//     from a .env file (existing variables are never overwritten).
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   WebSocket URL of the backend
//	-u string   user id sent in envelopes
//	-l string   notification language
//	-s string   storage backend (sqlite|redis)
//	-d string   SQLite DSN
//	-r string   Redis URL
//	-log string log level
//
// # JSON schema
//
// Durations accept either Go duration strings or integer nanoseconds:
//
//	{
//	  "server_url": "wss://app.example/ws",
//	  "user_id": "u-1",
//	  "cache_duration": "24h",
//	  "refresh_threshold": "23h",
//	  "dedup_capacity": 1024
//	}
package config
