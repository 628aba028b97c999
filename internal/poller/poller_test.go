// internal/poller/poller_test.go
package poller

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

// ---- helpers ----

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPoller(t *testing.T, base string, timeout time.Duration) *Poller {
	t.Helper()

	ep, err := remote.NewEndpoint(base, "", "")
	require.NoError(t, err)

	p, err := New(Config{
		InstanceID: "test",
		Endpoint:   ep,
		Interval:   time.Hour,
		Timeout:    timeout,
		Logger:     quietLogger(),
	}, remote.NewHTTPClient())
	require.NoError(t, err)
	return p
}

func healthServer(t *testing.T, code int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/health" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// ---- construction ----

func TestNew_Validation(t *testing.T) {
	ep, err := remote.NewEndpoint("http://svc:54000", "", "")
	require.NoError(t, err)

	_, err = New(Config{Endpoint: ep, Interval: 0}, remote.NewHTTPClient())
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(Config{Endpoint: ep, Interval: -time.Second}, remote.NewHTTPClient())
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(Config{Interval: time.Second}, remote.NewHTTPClient())
	assert.Error(t, err)

	_, err = New(Config{Endpoint: ep, Interval: time.Second}, nil)
	assert.Error(t, err)

	p, err := New(Config{Endpoint: ep, Interval: time.Second}, remote.NewHTTPClient())
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, p.cfg.Timeout)
}

// ---- fetch classification ----

func TestRefreshNow_Online(t *testing.T) {
	srv, _ := healthServer(t, http.StatusOK, `{"version":"1.2.0","backup_count":3}`)
	p := newPoller(t, srv.URL, time.Second)

	s := p.RefreshNow(context.Background())

	assert.Equal(t, status.HealthOnline, s.Health)
	assert.Equal(t, status.Payload{"version": "1.2.0", "backup_count": float64(3)}, s.Payload)
	assert.Empty(t, s.Err)
	assert.False(t, s.FetchedAt.IsZero())
	assert.Equal(t, s, p.Current())
}

func TestRefreshNow_TrailingSlashBase(t *testing.T) {
	srv, hits := healthServer(t, http.StatusOK, `{}`)
	p := newPoller(t, srv.URL+"/", time.Second)

	s := p.RefreshNow(context.Background())

	assert.Equal(t, status.HealthOnline, s.Health)
	assert.Empty(t, s.Payload)
	assert.EqualValues(t, 1, hits.Load())
}

func TestRefreshNow_UnexpectedStatus(t *testing.T) {
	for _, code := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv, _ := healthServer(t, code, `{"error":"nope"}`)
		p := newPoller(t, srv.URL, time.Second)

		s := p.RefreshNow(context.Background())

		assert.Equal(t, status.HealthError, s.Health, "code %d", code)
		assert.Contains(t, s.Err, "unexpected status")
		assert.Contains(t, s.Err, strconv.Itoa(code))
		assert.Equal(t, code, s.StatusCode)
		assert.Equal(t, remote.KindUnexpectedStatus, s.Kind)
	}
}

func TestRefreshNow_InvalidBody(t *testing.T) {
	for _, body := range []string{"not json", `["array"]`, `null`, `{"version":`} {
		srv, _ := healthServer(t, http.StatusOK, body)
		p := newPoller(t, srv.URL, time.Second)

		s := p.RefreshNow(context.Background())

		assert.Equal(t, status.HealthError, s.Health, "body %q", body)
		assert.Equal(t, "invalid response body", s.Err, "body %q", body)
		assert.Equal(t, remote.KindMalformedResponse, s.Kind)
	}
}

func TestRefreshNow_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	p := newPoller(t, srv.URL, 50*time.Millisecond)

	start := time.Now()
	s := p.RefreshNow(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, status.HealthOffline, s.Health)
	assert.Contains(t, s.Err, "timeout")
	assert.Equal(t, remote.KindTimeout, s.Kind)
	assert.Zero(t, s.StatusCode)
}

func TestRefreshNow_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p := newPoller(t, base, time.Second)

	s := p.RefreshNow(context.Background())

	assert.Equal(t, status.HealthOffline, s.Health)
	assert.NotEmpty(t, s.Err)
	assert.Equal(t, remote.KindConnectionFailure, s.Kind)
}

// ---- current / schedule ----

func TestCurrent_BeforeFetch(t *testing.T) {
	p := newPoller(t, "http://svc:54000", time.Second)

	s := p.Current()

	assert.Equal(t, status.HealthUnknown, s.Health)
	assert.Equal(t, status.NoDataMessage, s.Err)
	assert.False(t, s.HasData())
}

func TestStop_Idempotent(t *testing.T) {
	p := newPoller(t, "http://svc:54000", time.Second)

	p.Stop()
	p.Stop()
	assert.False(t, p.Running())
	assert.Equal(t, status.HealthUnknown, p.Current().Health)
}

func TestStart_RejectsBadInterval(t *testing.T) {
	p := newPoller(t, "http://svc:54000", time.Second)

	assert.ErrorIs(t, p.Start(context.Background(), 0), ErrInvalidInterval)
	assert.ErrorIs(t, p.Start(context.Background(), -time.Second), ErrInvalidInterval)
	assert.False(t, p.Running())
}

func TestStart_Twice(t *testing.T) {
	p := newPoller(t, "http://svc:54000", time.Second)

	require.NoError(t, p.Start(context.Background(), time.Hour))
	defer p.Stop()

	assert.ErrorIs(t, p.Start(context.Background(), time.Hour), ErrAlreadyRunning)
	assert.True(t, p.Running())
}

func TestStart_DoesNotFetchImmediately(t *testing.T) {
	srv, hits := healthServer(t, http.StatusOK, `{}`)
	p := newPoller(t, srv.URL, time.Second)

	require.NoError(t, p.Start(context.Background(), time.Hour))
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, hits.Load())
	assert.Equal(t, status.HealthUnknown, p.Current().Health)
}

func TestStart_PollsOnInterval(t *testing.T) {
	srv, hits := healthServer(t, http.StatusOK, `{"version":"2.0.0"}`)
	p := newPoller(t, srv.URL, time.Second)

	require.NoError(t, p.Start(context.Background(), 20*time.Millisecond))

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, status.HealthOnline, p.Current().Health)
	assert.Equal(t, "2.0.0", p.Current().Payload.String("version", ""))

	p.Stop()
	after := hits.Load()
	time.Sleep(100 * time.Millisecond)

	// at most the fetch that was in flight at Stop
	assert.LessOrEqual(t, hits.Load(), after+1)
	assert.False(t, p.Running())
}

func TestStart_KeepsPollingAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"version":"1.0.0"}`)
	}))
	t.Cleanup(srv.Close)

	p := newPoller(t, srv.URL, time.Second)
	require.NoError(t, p.Start(context.Background(), 10*time.Millisecond))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.Current().Health == status.HealthOnline
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStop_InFlightFetchStillPublished(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		_, _ = io.WriteString(w, `{"version":"final"}`)
	}))
	t.Cleanup(srv.Close)

	p := newPoller(t, srv.URL, 5*time.Second)
	require.NoError(t, p.Start(context.Background(), 10*time.Millisecond))

	<-entered
	p.Stop()
	close(release)

	require.Eventually(t, func() bool {
		return p.Current().Health == status.HealthOnline
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "final", p.Current().Payload.String("version", ""))

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, hits.Load(), "no tick may run after Stop")
}

func TestStart_ParentCancelEndsSchedule(t *testing.T) {
	p := newPoller(t, "http://svc:54000", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx, time.Hour))
	cancel()

	require.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)

	// restart is allowed once stopped
	require.NoError(t, p.Start(context.Background(), time.Hour))
	p.Stop()
}

func TestRefreshNow_DoesNotChangeSchedule(t *testing.T) {
	srv, _ := healthServer(t, http.StatusOK, `{}`)
	p := newPoller(t, srv.URL, time.Second)

	p.RefreshNow(context.Background())
	assert.False(t, p.Running())

	require.NoError(t, p.Start(context.Background(), time.Hour))
	p.RefreshNow(context.Background())
	assert.True(t, p.Running())
	p.Stop()
}

func TestCurrent_ConcurrentReaders(t *testing.T) {
	srv, _ := healthServer(t, http.StatusOK, `{"version":"1.0.0"}`)
	p := newPoller(t, srv.URL, time.Second)

	require.NoError(t, p.Start(context.Background(), 5*time.Millisecond))
	defer p.Stop()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				s := p.Current()
				if s.Health == status.HealthOnline {
					assert.Equal(t, "1.0.0", s.Payload.String("version", ""))
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}
