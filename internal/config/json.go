package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/kidsync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields let the
// loader tell "absent" from "zero", so a partial file only overrides the keys
// it names.
type JsonConfig struct {
	BaseURL           *string         `json:"base_url"`
	MissState         *string         `json:"miss_state"`
	DatabaseDriver    *string         `json:"database_driver"`
	DatabaseDSN       *string         `json:"database_dsn"`
	PageSize          *int            `json:"page_size"`
	Workers           *int            `json:"workers"`
	FetchTimeout      *timex.Duration `json:"fetch_timeout"`
	ResyncParallelism *int            `json:"resync_parallelism"`
	ResyncRetries     *int            `json:"resync_retries"`
	LogLevel          *string         `json:"log_level"`
	LogFile           *string         `json:"log_file"`
}

func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.MissState, jc.MissState)
	setString(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setInt(&cfg.PageSize, jc.PageSize)
	setInt(&cfg.Workers, jc.Workers)
	if jc.FetchTimeout != nil {
		cfg.FetchTimeout = jc.FetchTimeout.Duration
	}
	setInt(&cfg.ResyncParallelism, jc.ResyncParallelism)
	setInt(&cfg.ResyncRetries, jc.ResyncRetries)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFile, jc.LogFile)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
