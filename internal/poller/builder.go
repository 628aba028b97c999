// internal/poller/builder.go
package poller

import (
	"log/slog"

	cfg "github.com/tamzrod/timemachine-bridge/internal/config"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// Build constructs a Poller from one validated instance config.
// The client is shared across instances; pollers hold no other shared state.
func Build(in cfg.Instance, client remote.Doer, log *slog.Logger) (*Poller, error) {
	ep, err := in.Endpoint()
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			InstanceID: in.ID,
			Endpoint:   ep,
			Interval:   in.Interval(),
			Timeout:    in.HealthTimeout(),
			Logger:     log,
		},
		client,
	)
}
