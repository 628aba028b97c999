// internal/remote/endpoint.go
package remote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultHealthPath = "/api/health"
	DefaultActionPath = "/api/backup-now"
)

// Endpoint locates one remote Time Machine service.
// Immutable once built: Base never ends with a slash.
type Endpoint struct {
	Base       string
	HealthPath string
	ActionPath string
}

// NewEndpoint validates base and normalizes both paths.
// Empty paths fall back to the service defaults.
func NewEndpoint(base, healthPath, actionPath string) (Endpoint, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return Endpoint{}, errors.New("remote: base url required")
	}

	u, err := url.Parse(base)
	if err != nil {
		return Endpoint{}, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("remote: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("remote: base url %q has no host", base)
	}

	return Endpoint{
		Base:       base,
		HealthPath: normalizePath(healthPath, DefaultHealthPath),
		ActionPath: normalizePath(actionPath, DefaultActionPath),
	}, nil
}

// HealthURL is Base + HealthPath.
func (e Endpoint) HealthURL() string { return e.Base + e.HealthPath }

// ActionURL is Base + ActionPath.
func (e Endpoint) ActionURL() string { return e.Base + e.ActionPath }

// WithBase returns a copy targeting another instance with the same paths.
func (e Endpoint) WithBase(base string) (Endpoint, error) {
	return NewEndpoint(base, e.HealthPath, e.ActionPath)
}

func (e Endpoint) IsZero() bool { return e.Base == "" }

func (e Endpoint) String() string { return e.Base }

func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return def
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
