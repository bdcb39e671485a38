package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/avinashlng1080/travel-planner-sub002/internal/adapter/httpapi"
	kafkaadapter "github.com/avinashlng1080/travel-planner-sub002/internal/adapter/kafka"
	"github.com/avinashlng1080/travel-planner-sub002/internal/adapter/openmeteo"
	"github.com/avinashlng1080/travel-planner-sub002/internal/cache"
	"github.com/avinashlng1080/travel-planner-sub002/internal/config"
	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/observability"
	"github.com/avinashlng1080/travel-planner-sub002/internal/weather"
)

func main() {
	// Local development convenience; absent .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	upstream := openmeteo.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.UpstreamTimeout, metrics, logger)

	// Alert publishing is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var publisher weather.AlertPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, clock, logger)
		publisher = kafkaPublisher
		logger.Info("kafka alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	svc := weather.NewService(upstream, weather.Caches{
		Forecast: cache.New[[]domain.DailyForecast](clock),
		Current:  cache.New[domain.CurrentConditions](clock),
		Alerts:   cache.New[domain.AlertBundle](clock),
	}, weather.Policy{
		UpstreamTimeout: cfg.UpstreamTimeout,
		ForecastTTL:     cfg.ForecastTTL,
		CurrentTTL:      cfg.CurrentTTL,
		AlertsTTL:       cfg.AlertsTTL,
	}, publisher, metrics, logger)

	srv := httpapi.NewServer(cfg, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional pre-warmed location kept fresh by the watcher (WATCH_LAT /
	// WATCH_LNG).
	var watcher *weather.Watcher
	if cfg.WatchEnabled {
		watcher = weather.NewWatcher(svc, clock, weather.WatcherConfig{
			Debounce:        cfg.LocationDebounce,
			RefreshInterval: cfg.RefreshInterval,
		}, metrics, logger)
		loc := domain.Location{Lat: cfg.WatchLat, Lng: cfg.WatchLng}
		if err := watcher.SetLocation(loc); err != nil {
			logger.Error("invalid watch location", "lat", cfg.WatchLat, "lng", cfg.WatchLng, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("watcher error", "error", err)
			}
		}()
		logger.Info("location watcher enabled", "lat", cfg.WatchLat, "lng", cfg.WatchLng, "refresh_interval", cfg.RefreshInterval)
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if watcher != nil {
		watcher.Stop()
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
