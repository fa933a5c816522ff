package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marocz/wearguard/server/internal/alerts"
	"github.com/marocz/wearguard/server/internal/api"
	"github.com/marocz/wearguard/server/internal/config"
	"github.com/marocz/wearguard/server/internal/metrics"
	"github.com/marocz/wearguard/server/internal/predict"
	"github.com/marocz/wearguard/server/internal/store"
	"github.com/marocz/wearguard/server/internal/ws"
)

// feedInterval is how often the live feed broadcasts a history summary.
const feedInterval = 5 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.SlogLevel())

	slog.Info("wearguard starting",
		"version", version,
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"hot_reload", cfg.Model.HotReload,
		"alert_level", cfg.Alerts.MinLevel,
	)

	p, err := openPipeline(cfg)
	if err != nil {
		slog.Error("failed to load model artifacts", "err", err)
		return codeError(exitFailure, "%s", err)
	}

	pipelines := predict.NewHolder(p)
	m := metrics.New()
	notifier := alerts.New(cfg.Alerts)
	opts := []api.Option{api.WithAlerts(notifier)}
	var history *store.Store
	if cfg.Server.History.TTL > 0 {
		history = store.New(cfg.Server.History.TTL, cfg.Server.History.MaxEntries)
		go history.Run(ctx)
		opts = append(opts, api.WithHistory(history))
	}
	hub := ws.New(history, feedInterval)
	go hub.Run(ctx)
	opts = append(opts, api.WithFeed(hub))

	if cfg.Model.HotReload {
		go func() {
			err := config.Watch(ctx, configPath, func(updated *config.Config) {
				reload(pipelines, m, updated)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: api.New(pipelines, m, cfg.Server, opts...),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server stopped", "err", err)
			return codeError(exitFailure, "http server: %s", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
		return codeError(exitFailure, "shutdown: %s", err)
	}
	notifier.Wait()
	slog.Info("wearguard stopped")
	return nil
}

func openPipeline(cfg *config.Config) (*predict.Pipeline, error) {
	return predict.Open(cfg.Model.ScalerPath, cfg.Model.ClassifierPath,
		predict.WithRecommendations(cfg.Pipeline.Recommendations))
}

// reload rebuilds the pipeline from an updated config. A failed load keeps
// the current pipeline serving.
func reload(pipelines *predict.Holder, m *metrics.Metrics, cfg *config.Config) {
	p, err := openPipeline(cfg)
	if err != nil {
		slog.Error("model reload failed, keeping current pipeline", "err", err)
		m.ObserveReload(false)
		return
	}
	pipelines.Swap(p)
	m.ObserveReload(true)
	slog.Info("model reloaded",
		"scaler", cfg.Model.ScalerPath,
		"classifier", cfg.Model.ClassifierPath,
	)
}
