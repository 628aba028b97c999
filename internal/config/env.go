// internal/config/env.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment keys understood by ApplyEnv.
const (
	EnvListen          = "TM_LISTEN"
	EnvLogLevel        = "TM_LOG_LEVEL"
	EnvURL             = "TM_URL"
	EnvScanIntervalS   = "TM_SCAN_INTERVAL_S"
	EnvHealthTimeoutMs = "TM_HEALTH_TIMEOUT_MS"
	EnvActionTimeoutMs = "TM_ACTION_TIMEOUT_MS"
)

// ApplyEnv loads dotenv files (missing files are fine; already-set variables
// win) and overlays TM_* variables onto cfg.
//
// TM_URL imports a single instance only when the file declares none.
func ApplyEnv(cfg *Config, dotenvFiles ...string) error {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	if v, ok := os.LookupEnv(EnvListen); ok && v != "" {
		cfg.Listen = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	var err error
	if cfg.Defaults.ScanIntervalS, err = envInt(EnvScanIntervalS, cfg.Defaults.ScanIntervalS); err != nil {
		return err
	}
	if cfg.Defaults.HealthTimeoutMs, err = envInt(EnvHealthTimeoutMs, cfg.Defaults.HealthTimeoutMs); err != nil {
		return err
	}
	if cfg.Defaults.ActionTimeoutMs, err = envInt(EnvActionTimeoutMs, cfg.Defaults.ActionTimeoutMs); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(EnvURL); ok && v != "" && len(cfg.Instances) == 0 {
		cfg.Instances = append(cfg.Instances, Instance{
			ID:  "default",
			URL: v,
		})
	}

	return nil
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", key, v)
	}
	return n, nil
}
