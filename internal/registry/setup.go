// internal/registry/setup.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cfg "github.com/tamzrod/timemachine-bridge/internal/config"
	"github.com/tamzrod/timemachine-bridge/internal/dispatch"
	"github.com/tamzrod/timemachine-bridge/internal/poller"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

// ErrNotReady means the first refresh did not find the service Online.
var ErrNotReady = errors.New("registry: instance not ready")

// Build wires the poller and dispatcher of one validated instance.
func Build(in cfg.Instance, client remote.Doer, log *slog.Logger) (*Entry, error) {
	ep, err := in.Endpoint()
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", in.ID, err)
	}

	p, err := poller.Build(in, client, log)
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", in.ID, err)
	}

	d, err := dispatch.Build(in, client, log)
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", in.ID, err)
	}

	return &Entry{
		ID:         in.ID,
		Endpoint:   ep,
		Poller:     p,
		Dispatcher: d,
	}, nil
}

// Setup validates an entry with one immediate refresh.
// Retry-vs-fail is the caller's decision.
func Setup(ctx context.Context, e *Entry) (status.Snapshot, error) {
	s := e.Poller.RefreshNow(ctx)
	if s.Health != status.HealthOnline {
		return s, fmt.Errorf("%w: %s at %s: %s", ErrNotReady, e.ID, e.Endpoint.Base, s.Err)
	}
	return s, nil
}

// SetupWithRetry repeats Setup every delay until the entry is ready or ctx ends.
func SetupWithRetry(ctx context.Context, e *Entry, delay time.Duration, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		s, err := Setup(ctx, e)
		if err == nil {
			log.Info("instance ready",
				"instance", e.ID,
				"url", e.Endpoint.Base,
				"version", s.Payload.String("version", ""),
			)
			return nil
		}

		log.Warn("instance not ready, retrying",
			"instance", e.ID,
			"attempt", attempt,
			"retry_in", delay.String(),
			"error", s.Err,
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", err, ctx.Err())
		case <-t.C:
		}
	}
}
