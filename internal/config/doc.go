// Package config loads runtime configuration for kidsync.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. Command-line flags registered by (*Config).BindFlags.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "30s" or integer
// nanoseconds. Keys that are missing keep their previous value:
//
//	{
//	  "base_url": "https://api.missingkids.org/missingkids/servlet/",
//	  "miss_state": "CA",
//	  "database_driver": "sqlite",
//	  "database_dsn": "file:kidsync.db",
//	  "page_size": 20,
//	  "workers": 4,
//	  "fetch_timeout": "30s",
//	  "resync_parallelism": 4,
//	  "resync_retries": 2,
//	  "log_level": "info",
//	  "log_file": ""
//	}
package config
