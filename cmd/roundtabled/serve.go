package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/launchpadhq/roundtable"
	"github.com/launchpadhq/roundtable/config"
	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
	"github.com/launchpadhq/roundtable/responder"
	"github.com/launchpadhq/roundtable/responder/anthropic"
	"github.com/launchpadhq/roundtable/responder/openai"
	"github.com/launchpadhq/roundtable/session"
	"github.com/launchpadhq/roundtable/transport"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Roundtable WebSocket server",
	Long: `Start the Roundtable server:
  - WebSocket conversations at /ws
  - Health probe at /healthz
  - Prometheus metrics at /metrics (when enabled)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})

	var recorder metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	resp, err := buildResponder(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildStateStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rt := roundtable.New(func(o *roundtable.Options) {
		o.Responder = resp
		o.TurnTimeout = time.Duration(cfg.TurnTimeoutSeconds) * time.Second
		o.MaxAgentsPerSession = cfg.MaxAgentsPerSession
		o.StateStore = store
		o.Logger = logger
		o.Recorder = recorder
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", transport.NewHandler(rt.Manager(), logger, nil))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","active_sessions":%d}`, rt.Manager().Len())
	})
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic reaper for sessions past the configured maximum age.
	go func() {
		interval := time.Duration(cfg.CleanupIntervalSeconds) * time.Second
		if interval <= 0 {
			return
		}
		maxAge := time.Duration(cfg.MaxSessionDurationSeconds) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := rt.Manager().CleanupInactive(ctx, maxAge); n > 0 {
					logger.Info("session cleanup pass", "removed", n)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "provider", cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildResponder selects the collaborator backend from config.
func buildResponder(cfg config.Config) (core.Responder, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.AnthropicModel != "" {
				o.Model = anthropicsdk.Model(cfg.AnthropicModel)
			}
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.OpenAIModel != "" {
				o.Model = cfg.OpenAIModel
			}
		}), nil
	case "mock":
		return responder.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildStateStore returns the snapshot store, Redis backed when a URL is
// configured, in-memory otherwise.
func buildStateStore(cfg config.Config, logger logging.Logger) (session.StateStore, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStateStore(), func() {}, nil
	}
	ttl := time.Duration(cfg.MaxSessionDurationSeconds) * time.Second
	store, err := session.NewRedisStateStoreFromURL(cfg.RedisURL, ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("redis state store: %w", err)
	}
	logger.Info("redis state store enabled")
	return store, func() { _ = store.Close() }, nil
}
