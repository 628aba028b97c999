// internal/status/snapshot.go
package status

import (
	"time"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// Snapshot is the result of exactly one health fetch.
// It is never mutated after construction; a newer snapshot replaces it whole.
type Snapshot struct {
	Health    Health
	Payload   Payload
	FetchedAt time.Time

	// Err is empty when Health is HealthOnline.
	Err string

	// Kind and StatusCode keep the classification behind Err.
	// StatusCode is zero when no response was received.
	Kind       remote.Kind
	StatusCode int
}

// NoData is the sentinel returned before the first fetch completes.
func NoData() Snapshot {
	return Snapshot{
		Health:  HealthUnknown,
		Payload: Payload{},
		Err:     NoDataMessage,
	}
}

// Online builds the snapshot of a successful fetch.
func Online(p Payload, at time.Time) Snapshot {
	if p == nil {
		p = Payload{}
	}
	return Snapshot{
		Health:     HealthOnline,
		Payload:    p,
		FetchedAt:  at,
		StatusCode: 200,
	}
}

// Failed builds the snapshot of a classified failure.
// Timeouts and network failures are Offline; everything else is Error.
func Failed(f *remote.Failure, at time.Time) Snapshot {
	h := HealthError
	if f.Kind == remote.KindTimeout || f.Kind == remote.KindConnectionFailure {
		h = HealthOffline
	}
	return Snapshot{
		Health:     h,
		Payload:    Payload{},
		FetchedAt:  at,
		Err:        f.Message(),
		Kind:       f.Kind,
		StatusCode: f.StatusCode,
	}
}

// HasData is false only for the sentinel.
func (s Snapshot) HasData() bool { return !s.FetchedAt.IsZero() }

// Age is the time elapsed since the fetch. Zero for the sentinel.
func (s Snapshot) Age(now time.Time) time.Duration {
	if !s.HasData() {
		return 0
	}
	return now.Sub(s.FetchedAt)
}

// Stale reports whether the snapshot is older than maxAge.
// The sentinel is always stale.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if !s.HasData() {
		return true
	}
	return s.Age(now) > maxAge
}
