// internal/poller/poller.go
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

// Poller keeps the latest known health of one remote service.
// Failures never escape: every fetch ends as a classified snapshot.
type Poller struct {
	cfg    Config
	client remote.Doer
	log    *slog.Logger
	now    func() time.Time

	current atomic.Pointer[status.Snapshot]

	// schedule state
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller with immutable config.
func New(cfg Config, client remote.Doer) (*Poller, error) {
	if cfg.Endpoint.IsZero() {
		return nil, errors.New("poller: endpoint required")
	}
	if client == nil {
		return nil, errors.New("poller: http client required")
	}
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Poller{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "poller", "instance", cfg.InstanceID),
		now:    time.Now,
	}, nil
}

func (p *Poller) Endpoint() remote.Endpoint { return p.cfg.Endpoint }

// Interval is the configured schedule period.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Current returns the latest snapshot without any network call.
// Before the first fetch it returns status.NoData().
func (p *Poller) Current() status.Snapshot {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return status.NoData()
}

// RefreshNow performs one fetch immediately, independent of the schedule,
// and publishes its snapshot.
func (p *Poller) RefreshNow(ctx context.Context) status.Snapshot {
	s := p.fetch(ctx)
	p.publish(s)
	return s
}

// publish swaps in a new snapshot and logs health transitions.
func (p *Poller) publish(s status.Snapshot) {
	prev := p.current.Swap(&s)

	if prev != nil && prev.Health == s.Health {
		return
	}
	if s.Health == status.HealthOnline {
		p.log.Info("health changed", "state", s.Health.String(), "version", s.Payload.String("version", ""))
		return
	}
	p.log.Warn("health changed",
		"state", s.Health.String(),
		"kind", s.Kind.String(),
		"error", s.Err,
	)
}

// fetch performs exactly one GET against the health endpoint.
// No retries: the schedule is the retry mechanism.
func (p *Poller) fetch(ctx context.Context) status.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint.HealthURL(), nil)
	if err != nil {
		return status.Failed(remote.Classify(err), p.now())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return status.Failed(remote.Classify(err), p.now())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return status.Failed(remote.StatusFailure(resp.StatusCode), p.now())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		// deadline or connection loss while streaming the body
		return status.Failed(remote.Classify(err), p.now())
	}
	if len(body) > maxBodyBytes {
		return status.Failed(remote.Malformed(resp.StatusCode, errors.New("body too large")), p.now())
	}

	var payload status.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return status.Failed(remote.Malformed(resp.StatusCode, err), p.now())
	}
	if payload == nil {
		// literal null
		return status.Failed(remote.Malformed(resp.StatusCode, errors.New("null document")), p.now())
	}

	return status.Online(payload, p.now())
}
