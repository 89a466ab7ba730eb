package config

import "github.com/spf13/pflag"

// BindFlags registers the configuration flags on fs. The current field values
// become the flag defaults, so call it after Load; parsing fs then overrides
// whatever the defaults and the JSON file set.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "path to JSON config file")

	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "base URL of the search servlet")
	fs.StringVar(&c.MissState, "state", c.MissState, "state filter for the remote search")

	fs.StringVar(&c.DatabaseDriver, "db-driver", c.DatabaseDriver, "local store driver: sqlite or postgres")
	fs.StringVar(&c.DatabaseDSN, "dsn", c.DatabaseDSN, "local store data source name")

	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "rows per window of the paged list")
	fs.IntVar(&c.Workers, "workers", c.Workers, "background worker pool size")
	fs.DurationVar(&c.FetchTimeout, "fetch-timeout", c.FetchTimeout, "timeout of a single remote fetch (0 disables)")

	fs.IntVar(&c.ResyncParallelism, "resync-parallelism", c.ResyncParallelism, "pages fetched concurrently by a full resync")
	fs.IntVar(&c.ResyncRetries, "resync-retries", c.ResyncRetries, "retries per page on network failure during a full resync")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this rotated file instead of stderr")
}
