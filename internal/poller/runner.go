// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Start schedules a fetch every interval until Stop or ctx cancellation.
// It does not fetch synchronously; use RefreshNow for that.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(runCtx, cancel, interval, done)

	p.log.Debug("poller started", "interval", interval.String())
	return nil
}

// Stop cancels the schedule. Idempotent; safe when never started.
// An in-flight fetch is not aborted: its snapshot is still published,
// but no further tick runs.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		p.log.Debug("poller stopped")
	}
}

// Running reports whether a schedule is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// run is the single worker of one poller. No overlap. No retries.
func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, interval time.Duration, done chan struct{}) {
	defer func() {
		cancel()
		close(done)

		// parent ctx ended without Stop: clear our own schedule only
		p.mu.Lock()
		if p.done == done {
			p.cancel = nil
			p.done = nil
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// fetches outlive Stop; their own timeout still applies
	fetchCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.publish(p.fetch(fetchCtx))
		}
	}
}
