// internal/poller/types.go
package poller

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// DefaultTimeout bounds one health fetch when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps the health document read into memory.
const maxBodyBytes = 1 << 20

var (
	ErrInvalidInterval = errors.New("poller: interval must be > 0")
	ErrAlreadyRunning  = errors.New("poller: already running")
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	InstanceID string
	Endpoint   remote.Endpoint
	Interval   time.Duration
	Timeout    time.Duration
	Logger     *slog.Logger
}
