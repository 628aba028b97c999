// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/tamzrod/timemachine-bridge/internal/dispatch"
	"github.com/tamzrod/timemachine-bridge/internal/registry"
	"github.com/tamzrod/timemachine-bridge/internal/status"
)

var validate = validator.New()

// staleFactor: a snapshot older than this many intervals is stale.
const staleFactor = 2

// Handler serves the registry over HTTP.
type Handler struct {
	reg *registry.Registry
	log *slog.Logger
	now func() time.Time

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// ---- payloads ----

type instanceView struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	State     string     `json:"state"`
	Stale     bool       `json:"stale"`
	Polling   bool       `json:"polling"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// BackupNowBody is the optional JSON body of POST .../backup-now.
type BackupNowBody struct {
	URL                string  `json:"url" validate:"omitempty,url"`
	SmartBackupEnabled *bool   `json:"smart_backup_enabled"`
	MaxBackupsEnabled  *bool   `json:"max_backups_enabled"`
	MaxBackupsCount    *int    `json:"max_backups_count" validate:"omitempty,min=1"`
	LiveConfigPath     *string `json:"live_config_path" validate:"omitempty,min=1"`
	BackupFolderPath   *string `json:"backup_folder_path" validate:"omitempty,min=1"`
	Timezone           *string `json:"timezone" validate:"omitempty,min=1,max=64"`
}

// Payload keeps only the options the caller actually set.
func (b BackupNowBody) Payload() map[string]any {
	p := make(map[string]any)
	if b.SmartBackupEnabled != nil {
		p[dispatch.FieldSmartBackupEnabled] = *b.SmartBackupEnabled
	}
	if b.MaxBackupsEnabled != nil {
		p[dispatch.FieldMaxBackupsEnabled] = *b.MaxBackupsEnabled
	}
	if b.MaxBackupsCount != nil {
		p[dispatch.FieldMaxBackupsCount] = *b.MaxBackupsCount
	}
	if b.LiveConfigPath != nil {
		p[dispatch.FieldLiveConfigPath] = *b.LiveConfigPath
	}
	if b.BackupFolderPath != nil {
		p[dispatch.FieldBackupFolderPath] = *b.BackupFolderPath
	}
	if b.Timezone != nil {
		p[dispatch.FieldTimezone] = *b.Timezone
	}
	return p
}

// ---- handlers ----

// List handles GET /api/instances
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.reg.List()
	out := make([]instanceView, 0, len(entries))
	for _, e := range entries {
		out = append(out, h.view(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/instances/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.attributes(e, e.Poller.Current()))
}

// Refresh handles POST /api/instances/{id}/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.attributes(e, e.Poller.RefreshNow(r.Context())))
}

// BackupNow handles POST /api/instances/{id}/backup-now
func (h *Handler) BackupNow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}

	var body BackupNowBody
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	req := dispatch.Request{Payload: body.Payload()}
	if body.URL != "" {
		ep, err := e.Endpoint.WithBase(body.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Endpoint = &ep
	}

	if !h.limiter(e.ID).Allow() {
		writeError(w, http.StatusTooManyRequests, "backup trigger rate exceeded")
		return
	}

	res := e.Dispatcher.Dispatch(r.Context(), req)

	code := http.StatusOK
	if !res.Succeeded {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, res)
}

// ---- helpers ----

func (h *Handler) entry(w http.ResponseWriter, r *http.Request) (*registry.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, ok := h.reg.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown instance "+id)
		return nil, false
	}
	return e, true
}

func (h *Handler) view(e *registry.Entry) instanceView {
	s := e.Poller.Current()
	v := instanceView{
		ID:      e.ID,
		URL:     e.Endpoint.Base,
		State:   s.Health.String(),
		Stale:   s.Stale(h.now(), staleFactor*e.Poller.Interval()),
		Polling: e.Poller.Running(),
		Error:   s.Err,
	}
	if s.HasData() {
		at := s.FetchedAt
		v.FetchedAt = &at
	}
	return v
}

func (h *Handler) attributes(e *registry.Entry, s status.Snapshot) map[string]any {
	attrs := status.Attributes(s, e.Endpoint.Base)
	attrs["id"] = e.ID
	attrs["stale"] = s.Stale(h.now(), staleFactor*e.Poller.Interval())
	return attrs
}

func (h *Handler) limiter(id string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[id]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[id] = l
	}
	return l
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
