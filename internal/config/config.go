// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

type Config struct {
	Listen         string         `yaml:"listen" validate:"required"`
	AllowedOrigins []string       `yaml:"allowed_origins" validate:"dive,url"`
	LogLevel       string         `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Defaults       DefaultsConfig `yaml:"defaults"`
	Instances      []Instance     `yaml:"instances" validate:"dive"`
}

// ---- DEFAULTS ----

// DefaultsConfig applies to every instance that leaves a field unset.
type DefaultsConfig struct {
	ScanIntervalS   int `yaml:"scan_interval_s" validate:"omitempty,min=10,max=3600"`
	HealthTimeoutMs int `yaml:"health_timeout_ms" validate:"omitempty,min=1000,max=60000"`
	ActionTimeoutMs int `yaml:"action_timeout_ms" validate:"omitempty,min=1000,max=120000"`
}

// ---- INSTANCE ----

// Instance is one remote Time Machine service.
type Instance struct {
	ID              string `yaml:"id" validate:"required,max=64"`
	URL             string `yaml:"url" validate:"required,url"`
	ScanIntervalS   int    `yaml:"scan_interval_s" validate:"min=10,max=3600"`
	HealthTimeoutMs int    `yaml:"health_timeout_ms" validate:"min=1000,max=60000"`
	ActionTimeoutMs int    `yaml:"action_timeout_ms" validate:"min=1000,max=120000"`
	HealthPath      string `yaml:"health_path"`
	ActionPath      string `yaml:"action_path"`

	// Options override URL and interval without touching the base data.
	Options *InstanceOptions `yaml:"options"`
}

type InstanceOptions struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	ScanIntervalS int    `yaml:"scan_interval_s" validate:"omitempty,min=10,max=3600"`
}

func (i Instance) Interval() time.Duration {
	return time.Duration(i.ScanIntervalS) * time.Second
}

func (i Instance) HealthTimeout() time.Duration {
	return time.Duration(i.HealthTimeoutMs) * time.Millisecond
}

func (i Instance) ActionTimeout() time.Duration {
	return time.Duration(i.ActionTimeoutMs) * time.Millisecond
}

// Endpoint builds the immutable remote endpoint for this instance.
func (i Instance) Endpoint() (remote.Endpoint, error) {
	return remote.NewEndpoint(i.URL, i.HealthPath, i.ActionPath)
}

// ---- LOAD ----

// Load reads and decodes a YAML config file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes. An empty document yields an empty Config.
func Parse(b []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	return &cfg, nil
}
