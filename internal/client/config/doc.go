// Package config loads runtime configuration for the Billfold client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the sync server
//	-d string   path to the local sqlite database file
//	-s int      background sync interval (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_addr": "http://127.0.0.1:8080",
//	  "database_path": "billfold.db",
//	  "sync_interval": "5m",
//	  "online_check_interval": "3s",
//	  "tombstone_retention": "720h",
//	  "deferred_max_age": "24h",
//	  "pull_page_size": 200,
//	  "push_batch_size": 100
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
