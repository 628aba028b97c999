// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

const (
	DefaultListen          = ":8099"
	DefaultURL             = "http://homeassistant-time-machine:54000"
	DefaultLogLevel        = "info"
	DefaultScanIntervalS   = 30
	DefaultHealthTimeoutMs = 10_000
	DefaultActionTimeoutMs = 30_000
)

// Normalize fills defaults and folds options into instance data.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	d := &cfg.Defaults
	if d.ScanIntervalS == 0 {
		d.ScanIntervalS = DefaultScanIntervalS
	}
	if d.HealthTimeoutMs == 0 {
		d.HealthTimeoutMs = DefaultHealthTimeoutMs
	}
	if d.ActionTimeoutMs == 0 {
		d.ActionTimeoutMs = DefaultActionTimeoutMs
	}

	for i := range cfg.Instances {
		in := &cfg.Instances[i]

		// options win over data
		if in.Options != nil {
			if in.Options.URL != "" {
				in.URL = in.Options.URL
			}
			if in.Options.ScanIntervalS != 0 {
				in.ScanIntervalS = in.Options.ScanIntervalS
			}
		}

		in.ID = strings.TrimSpace(in.ID)
		if in.ID == "" {
			in.ID = uuid.NewString()
		}

		in.URL = strings.TrimRight(strings.TrimSpace(in.URL), "/")

		if in.ScanIntervalS == 0 {
			in.ScanIntervalS = d.ScanIntervalS
		}
		if in.HealthTimeoutMs == 0 {
			in.HealthTimeoutMs = d.HealthTimeoutMs
		}
		if in.ActionTimeoutMs == 0 {
			in.ActionTimeoutMs = d.ActionTimeoutMs
		}
		if in.HealthPath == "" {
			in.HealthPath = remote.DefaultHealthPath
		}
		if in.ActionPath == "" {
			in.ActionPath = remote.DefaultActionPath
		}
	}
}
