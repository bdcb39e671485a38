package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CORS origin allowed to call the weather endpoints from a browser.
	CORSAllowedOrigin string

	// Upstream weather provider configuration.
	WeatherAPIKey   string
	WeatherBaseURL  string
	UpstreamTimeout time.Duration

	// Cache TTLs per data kind. Faster-changing, safety-relevant data gets
	// a shorter TTL.
	ForecastTTL time.Duration
	CurrentTTL  time.Duration
	AlertsTTL   time.Duration

	// Active-location policy.
	RefreshInterval  time.Duration
	LocationDebounce time.Duration

	// Optional pre-warmed location; the watcher keeps it fresh when set.
	WatchLat     float64
	WatchLng     float64
	WatchEnabled bool

	// Optional Kafka alert publishing, enabled when brokers are set.
	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. The upstream API key is required: its absence is a startup
// error, not a per-request one.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		CORSAllowedOrigin: envOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL:    os.Getenv("WEATHER_BASE_URL"),
		KafkaAlertTopic:   envOrDefault("KAFKA_ALERT_TOPIC", "flash-flood-alerts"),
	}

	if cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_API_KEY is required")
	}

	var err error
	if cfg.ShutdownTimeout, err = durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = durationOrDefault("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ForecastTTL, err = durationOrDefault("FORECAST_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CurrentTTL, err = durationOrDefault("CURRENT_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AlertsTTL, err = durationOrDefault("ALERTS_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = durationOrDefault("REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LocationDebounce, err = durationOrDefault("LOCATION_DEBOUNCE", 300*time.Millisecond); err != nil {
		return nil, err
	}

	if err := loadWatchLocation(cfg); err != nil {
		return nil, err
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = parseBrokers(brokers)
		cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func loadWatchLocation(cfg *Config) error {
	latStr, lngStr := os.Getenv("WATCH_LAT"), os.Getenv("WATCH_LNG")
	if latStr == "" && lngStr == "" {
		return nil
	}
	if latStr == "" || lngStr == "" {
		return errors.New("WATCH_LAT and WATCH_LNG must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return fmt.Errorf("invalid WATCH_LAT: %w", err)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return fmt.Errorf("invalid WATCH_LNG: %w", err)
	}

	cfg.WatchLat = lat
	cfg.WatchLng = lng
	cfg.WatchEnabled = true
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
