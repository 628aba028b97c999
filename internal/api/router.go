// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/tamzrod/timemachine-bridge/internal/registry"
)

// RouterConfig defines the dependencies of the control surface.
type RouterConfig struct {
	Registry       *registry.Registry
	AllowedOrigins []string
	Logger         *slog.Logger

	// Manual backup triggers allowed per instance: one every TriggerEvery,
	// with bursts of TriggerBurst. Zero values use the defaults.
	TriggerEvery time.Duration
	TriggerBurst int
}

const (
	DefaultTriggerEvery = 10 * time.Second
	DefaultTriggerBurst = 3
)

// NewRouter builds the chi multiplexer and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TriggerEvery <= 0 {
		cfg.TriggerEvery = DefaultTriggerEvery
	}
	if cfg.TriggerBurst <= 0 {
		cfg.TriggerBurst = DefaultTriggerBurst
	}

	h := &Handler{
		reg:      cfg.Registry,
		log:      cfg.Logger.With("component", "api"),
		now:      time.Now,
		limit:    rate.Every(cfg.TriggerEvery),
		burst:    cfg.TriggerBurst,
		limiters: make(map[string]*rate.Limiter),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/instances", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/refresh", h.Refresh)
			r.Post("/backup-now", h.BackupNow)
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
