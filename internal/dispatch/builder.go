// internal/dispatch/builder.go
package dispatch

import (
	"log/slog"

	cfg "github.com/tamzrod/timemachine-bridge/internal/config"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// Build constructs the instance's default Dispatcher from validated config.
func Build(in cfg.Instance, client remote.Doer, log *slog.Logger) (*Dispatcher, error) {
	ep, err := in.Endpoint()
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			InstanceID: in.ID,
			Endpoint:   ep,
			Timeout:    in.ActionTimeout(),
			Logger:     log,
		},
		client,
	)
}
