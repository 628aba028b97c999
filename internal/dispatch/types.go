// internal/dispatch/types.go
package dispatch

import (
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// Request is one backup-now invocation.
type Request struct {
	// Endpoint overrides the dispatcher's default target when set.
	Endpoint *remote.Endpoint

	// Payload is keyed by internal (snake_case) field names.
	// Empty means the POST carries no body.
	Payload map[string]any
}

// Result is the outcome of exactly one POST.
type Result struct {
	Succeeded bool `json:"succeeded"`

	// StatusCode is zero when no response was received.
	StatusCode int    `json:"status_code,omitempty"`
	Err        string `json:"error,omitempty"`

	Kind      remote.Kind `json:"kind,omitempty"`
	RequestID string      `json:"request_id"`
	Target    string      `json:"target"`
}
