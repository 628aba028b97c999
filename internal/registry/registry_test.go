// internal/registry/registry_test.go
package registry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/timemachine-bridge/internal/config"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func buildEntry(t *testing.T, id, url string) *Entry {
	t.Helper()

	c := &cfg.Config{Instances: []cfg.Instance{{ID: id, URL: url}}}
	cfg.Normalize(c)

	e, err := Build(c.Instances[0], remote.NewHTTPClient(), quiet())
	require.NoError(t, err)
	return e
}

func TestBuild_WiresBothComponents(t *testing.T) {
	e := buildEntry(t, "main", "http://svc:54000/")

	assert.Equal(t, "main", e.ID)
	assert.Equal(t, "http://svc:54000", e.Endpoint.Base)
	assert.Equal(t, e.Endpoint, e.Poller.Endpoint())
	assert.Equal(t, e.Endpoint, e.Dispatcher.Endpoint())
	assert.Equal(t, 30*time.Second, e.Poller.Interval())
}

func TestRegistry_AddGetList(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(buildEntry(t, "b", "http://b:54000")))
	require.NoError(t, r.Add(buildEntry(t, "a", "http://a:54000")))

	e, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "http://a:54000", e.Endpoint.Base)

	_, ok = r.Get("zzz")
	assert.False(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(buildEntry(t, "main", "http://svc:54000")))

	assert.ErrorIs(t, r.Add(buildEntry(t, "main", "http://other:54000")), ErrDuplicate)
	assert.ErrorIs(t, r.Add(buildEntry(t, "second", "http://SVC:54000")), ErrDuplicate)
	assert.Error(t, r.Add(&Entry{}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveStopsPoller(t *testing.T) {
	r := New()
	a := buildEntry(t, "a", "http://a:54000")
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(buildEntry(t, "b", "http://b:54000")))
	require.NoError(t, a.Poller.Start(context.Background(), time.Hour))

	n, err := r.Remove("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, a.Poller.Running())

	n, err = r.Remove("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, n)

	n, err = r.Remove("b")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistry_StopAll(t *testing.T) {
	r := New()
	a := buildEntry(t, "a", "http://a:54000")
	b := buildEntry(t, "b", "http://b:54000")
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	require.NoError(t, a.Poller.Start(context.Background(), time.Hour))
	require.NoError(t, b.Poller.Start(context.Background(), time.Hour))

	r.StopAll()

	assert.False(t, a.Poller.Running())
	assert.False(t, b.Poller.Running())
	assert.Equal(t, 2, r.Len())
}

// ---- setup ----

func TestSetup_Online(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"version":"1.2.0"}`)
	}))
	t.Cleanup(srv.Close)

	e := buildEntry(t, "main", srv.URL)

	s, err := Setup(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, status.HealthOnline, s.Health)
	assert.Equal(t, status.HealthOnline, e.Poller.Current().Health)
	assert.False(t, e.Poller.Running(), "setup must not start the schedule")
}

func TestSetup_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	e := buildEntry(t, "main", srv.URL)

	s, err := Setup(context.Background(), e)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Equal(t, status.HealthError, s.Health)
}

func TestSetupWithRetry_EventuallyReady(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"version":"1.2.0"}`)
	}))
	t.Cleanup(srv.Close)

	e := buildEntry(t, "main", srv.URL)

	err := SetupWithRetry(context.Background(), e, 5*time.Millisecond, quiet())
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load())
}

func TestSetupWithRetry_ContextEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	e := buildEntry(t, "main", srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := SetupWithRetry(ctx, e, 10*time.Millisecond, quiet())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
