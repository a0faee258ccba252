package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-risk-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/provider"
	"github.com/couchcryptid/climate-risk-monitor/internal/config"
	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/monitor"
	"github.com/couchcryptid/climate-risk-monitor/internal/observability"
	"github.com/couchcryptid/climate-risk-monitor/internal/session"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	sessions := session.NewManager(
		session.NewHTTPBackend(cfg.IdentityBaseURL, cfg.ProviderAnonKey, cfg.ProviderTimeout),
		clock, logger,
	)

	client := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAnonKey, cfg.ProviderTimeout, metrics, logger).
		WithTokens(sessions)
	cached := provider.NewCachedProvider(client, cfg.ProviderCacheSize, cfg.ProviderCacheTTL, clock, metrics)
	logger.Info("data provider configured",
		"base_url", cfg.ProviderBaseURL,
		"cache_size", cfg.ProviderCacheSize,
		"cache_ttl", cfg.ProviderCacheTTL,
	)

	// Initialize snapshot stream (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var sinks []monitor.SnapshotSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("snapshot stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	} else {
		logger.Info("snapshot stream disabled")
	}

	refresher := monitor.New(monitor.Options{
		Provider: cached,
		Creator:  cached,
		Tokens:   sessions,
		Sinks:    sinks,
		Location: domain.Location{Name: cfg.DefaultLocation, Lat: cfg.DefaultLat, Lon: cfg.DefaultLon},
		Interval: cfg.RefreshInterval,
		Clock:    clock,
		Logger:   logger,
		Metrics:  metrics,
	})

	// Signing in or out changes the token reads are made with; drop cached
	// responses and refresh so the next snapshot reflects it.
	unsubscribe := sessions.Subscribe(func(session.State) {
		cached.Purge()
		refresher.RequestRefresh()
	})
	defer unsubscribe()

	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, refresher, sessions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
