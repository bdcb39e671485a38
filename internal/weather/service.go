// Package weather composes the TTL cache, the upstream fetch path, and the
// risk classifier behind the three operations consumers need: current
// conditions, N-day forecast, and active alerts.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/avinashlng1080/travel-planner-sub002/internal/cache"
	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/observability"
)

const (
	// DefaultForecastDays is used when a caller does not specify a window.
	DefaultForecastDays = 7
	// MaxForecastDays is the provider's forecast horizon.
	MaxForecastDays = 16
)

// Upstream is the weather provider the service fetches from on cache misses.
type Upstream interface {
	Forecast(ctx context.Context, loc domain.Location, days int) ([]domain.DailyForecast, error)
	Current(ctx context.Context, loc domain.Location) (domain.CurrentConditions, error)
	Alerts(ctx context.Context, loc domain.Location) (domain.AlertBundle, error)
}

// AlertPublisher receives derived flash-flood alerts of level high or above.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, loc domain.Location, alert domain.FlashFloodAlert) error
}

// Caches groups the per-kind TTL caches. They are constructed by the
// composition root and injected, so their lifecycle is explicit and tests
// never share hidden state.
type Caches struct {
	Forecast *cache.Cache[[]domain.DailyForecast]
	Current  *cache.Cache[domain.CurrentConditions]
	Alerts   *cache.Cache[domain.AlertBundle]
}

// Policy holds the fetch and caching parameters.
type Policy struct {
	UpstreamTimeout time.Duration
	ForecastTTL     time.Duration
	CurrentTTL      time.Duration
	AlertsTTL       time.Duration
}

// ForecastResult is always renderable: on upstream failure Days holds a
// synthesized fallback and the accompanying error says why it is degraded.
type ForecastResult struct {
	Days     []domain.DailyForecast
	Alert    *domain.FlashFloodAlert
	Cached   bool
	Fallback bool
}

// CurrentResult mirrors ForecastResult for current conditions.
type CurrentResult struct {
	Conditions domain.CurrentConditions
	Cached     bool
	Fallback   bool
}

// AlertsResult mirrors ForecastResult for provider-issued warnings.
type AlertsResult struct {
	Bundle   domain.AlertBundle
	Cached   bool
	Fallback bool
}

// Service is the composition root for weather acquisition. All methods are
// safe for concurrent use; the caches and the in-flight request group are
// the only shared mutable state.
type Service struct {
	upstream  Upstream
	caches    Caches
	policy    Policy
	publisher AlertPublisher
	metrics   *observability.Metrics
	logger    *slog.Logger

	group singleflight.Group
	ready atomic.Bool
}

// NewService wires the service. Pass a nil publisher to disable alert
// publishing.
func NewService(upstream Upstream, caches Caches, policy Policy, publisher AlertPublisher, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		upstream:  upstream,
		caches:    caches,
		policy:    policy,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckReadiness returns nil once the service has produced at least one
// genuine (non-fallback) answer.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no weather data served yet")
	}
	return nil
}

// Forecast returns the N-day forecast for a location, cache-first. days == 0
// selects the default window. Validation failures return a zero result; any
// other failure returns a flagged fallback forecast alongside the error.
func (s *Service) Forecast(ctx context.Context, loc domain.Location, days int) (ForecastResult, error) {
	if days == 0 {
		days = DefaultForecastDays
	}
	if err := loc.Validate(); err != nil {
		return ForecastResult{}, err
	}
	if days < 1 || days > MaxForecastDays {
		return ForecastResult{}, &domain.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("must be within [1, %d], got %d", MaxForecastDays, days),
		}
	}

	key := loc.ForecastCacheKey(days)
	if daily, ok := s.caches.Forecast.Get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("forecast", "hit").Inc()
		s.ready.Store(true)
		daily = cloneDaily(daily)
		return ForecastResult{Days: daily, Alert: domain.AggregateAlert(daily), Cached: true}, nil
	}
	s.metrics.CacheLookups.WithLabelValues("forecast", "miss").Inc()

	daily, err := fetchShared(ctx, s, key, "forecast", func(fctx context.Context) ([]domain.DailyForecast, error) {
		return s.upstream.Forecast(fctx, loc, days)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ForecastResult{}, err
		}
		s.logFetchFailure("forecast", loc, err)
		s.metrics.FallbackServed.WithLabelValues("forecast").Inc()
		return ForecastResult{Days: domain.FallbackForecast(days), Fallback: true}, err
	}

	s.caches.Forecast.Set(key, cloneDaily(daily), s.policy.ForecastTTL)
	s.ready.Store(true)

	alert := domain.AggregateAlert(daily)
	if alert != nil {
		s.metrics.AlertsRaised.WithLabelValues(alert.Level.String()).Inc()
		s.maybePublishAlert(loc, *alert)
	}

	return ForecastResult{Days: daily, Alert: alert}, nil
}

// Current returns current conditions for a location, cache-first.
func (s *Service) Current(ctx context.Context, loc domain.Location) (CurrentResult, error) {
	if err := loc.Validate(); err != nil {
		return CurrentResult{}, err
	}

	key := loc.CacheKey("current")
	if conditions, ok := s.caches.Current.Get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("current", "hit").Inc()
		s.ready.Store(true)
		return CurrentResult{Conditions: conditions, Cached: true}, nil
	}
	s.metrics.CacheLookups.WithLabelValues("current", "miss").Inc()

	conditions, err := fetchShared(ctx, s, key, "current", func(fctx context.Context) (domain.CurrentConditions, error) {
		return s.upstream.Current(fctx, loc)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return CurrentResult{}, err
		}
		s.logFetchFailure("current", loc, err)
		s.metrics.FallbackServed.WithLabelValues("current").Inc()
		return CurrentResult{Conditions: domain.FallbackCurrent(), Fallback: true}, err
	}

	s.caches.Current.Set(key, conditions, s.policy.CurrentTTL)
	s.ready.Store(true)
	return CurrentResult{Conditions: conditions}, nil
}

// Alerts returns active provider-issued warnings for a location, cache-first.
func (s *Service) Alerts(ctx context.Context, loc domain.Location) (AlertsResult, error) {
	if err := loc.Validate(); err != nil {
		return AlertsResult{}, err
	}

	key := loc.CacheKey("alerts")
	if bundle, ok := s.caches.Alerts.Get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("alerts", "hit").Inc()
		s.ready.Store(true)
		return AlertsResult{Bundle: cloneBundle(bundle), Cached: true}, nil
	}
	s.metrics.CacheLookups.WithLabelValues("alerts", "miss").Inc()

	bundle, err := fetchShared(ctx, s, key, "alerts", func(fctx context.Context) (domain.AlertBundle, error) {
		return s.upstream.Alerts(fctx, loc)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return AlertsResult{}, err
		}
		s.logFetchFailure("alerts", loc, err)
		s.metrics.FallbackServed.WithLabelValues("alerts").Inc()
		return AlertsResult{Bundle: domain.FallbackAlerts(), Fallback: true}, err
	}

	s.caches.Alerts.Set(key, cloneBundle(bundle), s.policy.AlertsTTL)
	s.ready.Store(true)
	return AlertsResult{Bundle: bundle}, nil
}

// Invalidate drops the cached entries for a location so the next read
// refetches. Used by the watcher's interval refresh, which must bypass TTL.
func (s *Service) Invalidate(loc domain.Location, days int) {
	if days == 0 {
		days = DefaultForecastDays
	}
	s.caches.Forecast.Invalidate(loc.ForecastCacheKey(days))
	s.caches.Current.Invalidate(loc.CacheKey("current"))
	s.caches.Alerts.Invalidate(loc.CacheKey("alerts"))
}

// fetchShared runs fn under the per-key singleflight group with the upstream
// timeout applied. Concurrent callers for the same key join one upstream
// call; exactly one request leaves the process. The flight runs detached
// from any individual caller's context, bounded only by the upstream
// timeout, so one caller cancelling (a closed connection, a superseded
// location) cannot fail the fetch for the callers still waiting on it. A
// cancelled caller stops waiting and gets its own ctx.Err.
func fetchShared[T any](ctx context.Context, s *Service, key, kind string, fn func(context.Context) (T, error)) (T, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.policy.UpstreamTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.metrics.DedupJoined.WithLabelValues(kind).Inc()
		}
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// cloneDaily copies a forecast slice so cache entries and caller results
// never share a backing array.
func cloneDaily(daily []domain.DailyForecast) []domain.DailyForecast {
	if daily == nil {
		return nil
	}
	out := make([]domain.DailyForecast, len(daily))
	copy(out, daily)
	return out
}

// cloneBundle copies the alert slice, preserving the empty-but-non-nil shape
// the wire format relies on.
func cloneBundle(b domain.AlertBundle) domain.AlertBundle {
	if b.Alerts == nil {
		return b
	}
	alerts := make([]domain.PublicAlert, len(b.Alerts))
	copy(alerts, b.Alerts)
	b.Alerts = alerts
	return b
}

func (s *Service) logFetchFailure(kind string, loc domain.Location, err error) {
	s.logger.Error("upstream fetch failed, serving fallback",
		"kind", kind,
		"lat", loc.Lat,
		"lng", loc.Lng,
		"location", loc.Name,
		"error", err,
	)
}

// maybePublishAlert forwards high and severe alerts to the publisher,
// fire-and-forget. Publish failures are logged, never surfaced to callers.
func (s *Service) maybePublishAlert(loc domain.Location, alert domain.FlashFloodAlert) {
	if s.publisher == nil || alert.Level < domain.RiskHigh {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishAlert(ctx, loc, alert); err != nil {
			s.logger.Warn("alert publish failed",
				"level", alert.Level.String(),
				"lat", loc.Lat,
				"lng", loc.Lng,
				"error", err,
			)
		}
	}()
}
