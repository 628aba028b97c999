// cmd/tmbridge/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/timemachine-bridge/internal/api"
	"github.com/tamzrod/timemachine-bridge/internal/registry"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

var setupRetry time.Duration

func init() {
	serveCmd.Flags().DurationVar(&setupRetry, "setup-retry", 30*time.Second, "delay between setup attempts of an unreachable instance")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "poll every configured instance and serve the control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := newLogger(cfg.LogLevel)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// --------------------
		// Build per-instance pairs
		// --------------------

		client := remote.NewHTTPClient()
		reg := registry.New()

		for _, in := range cfg.Instances {
			e, err := registry.Build(in, client, log)
			if err != nil {
				return err
			}
			if err := reg.Add(e); err != nil {
				return err
			}
		}

		// --------------------
		// Setup (first refresh) then schedule
		// --------------------

		var wg sync.WaitGroup
		for _, e := range reg.List() {
			wg.Add(1)
			go func(e *registry.Entry) {
				defer wg.Done()

				if err := registry.SetupWithRetry(ctx, e, setupRetry, log); err != nil {
					log.Warn("instance setup abandoned", "instance", e.ID, "error", err)
					return
				}
				if err := e.Poller.Start(ctx, e.Poller.Interval()); err != nil {
					log.Error("poller start failed", "instance", e.ID, "error", err)
				}
			}(e)
		}

		// --------------------
		// Control API
		// --------------------

		server := &http.Server{
			Addr: cfg.Listen,
			Handler: api.NewRouter(api.RouterConfig{
				Registry:       reg,
				AllowedOrigins: cfg.AllowedOrigins,
				Logger:         log,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("control api listening", "addr", cfg.Listen, "instances", reg.Len())
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				stop()
				reg.StopAll()
				wg.Wait()
				return err
			}
		}

		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("forced shutdown", "error", err)
		}

		reg.StopAll()
		wg.Wait()
		return nil
	},
}
