package weather

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/observability"
)

// WatcherConfig holds the active-location policy knobs.
type WatcherConfig struct {
	Debounce        time.Duration
	RefreshInterval time.Duration
	ForecastDays    int
}

// Snapshot is the consumer-facing read model for the active location. The
// UI renders it directly and never reaches into the cache or fetch path.
type Snapshot struct {
	Location     domain.Location
	Current      *domain.CurrentConditions
	Daily        []domain.DailyForecast
	Alert        *domain.FlashFloodAlert
	PublicAlerts []domain.PublicAlert
	Loading      bool
	Degraded     bool
	Err          error
	UpdatedAt    time.Time
}

// Watcher owns the single "current location": it debounces rapid location
// changes, cancels superseded fetches so a stale response can never
// overwrite a fresher one, and re-fetches on a fixed interval to keep
// displayed data fresh independent of cache TTLs.
type Watcher struct {
	svc     *Service
	clock   clockwork.Clock
	cfg     WatcherConfig
	metrics *observability.Metrics
	logger  *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu            sync.Mutex
	loc           domain.Location
	hasLoc        bool
	gen           uint64
	fetchCancel   context.CancelFunc
	debounceTimer clockwork.Timer
	snap          Snapshot
}

// NewWatcher creates a watcher over the given service. Call Run to start the
// interval refresh loop and Stop (or cancel Run's context) to shut down.
func NewWatcher(svc *Service, clock clockwork.Clock, cfg WatcherConfig, metrics *observability.Metrics, logger *slog.Logger) *Watcher {
	if cfg.ForecastDays == 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		svc:     svc,
		clock:   clock,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		baseCtx: ctx,
		stop:    cancel,
	}
}

// Run drives the auto-refresh loop until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.metrics.WatcherRunning.Set(1)
	defer w.metrics.WatcherRunning.Set(0)

	ticker := w.clock.NewTicker(w.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return nil
		case <-w.baseCtx.Done():
			return nil
		case <-ticker.Chan():
			w.Refresh()
		}
	}
}

// Stop cancels any in-flight fetch and ends Run.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	if w.fetchCancel != nil {
		w.fetchCancel()
	}
	w.mu.Unlock()
	w.stop()
}

// SetLocation switches the active location. The fetch is issued only after
// the location has been stable for the debounce window, so dragging a map
// does not produce a request per intermediate position. Invalid coordinates
// are rejected before any timer or network activity.
func (w *Watcher) SetLocation(loc domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.loc = loc
	w.hasLoc = true
	w.snap.Loading = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = w.clock.AfterFunc(w.cfg.Debounce, w.beginFetch)
	return nil
}

// Refresh forces an immediate refetch of the active location, bypassing
// cache TTLs. No-op when no location is set.
func (w *Watcher) Refresh() {
	w.mu.Lock()
	if !w.hasLoc {
		w.mu.Unlock()
		return
	}
	loc := w.loc
	w.snap.Loading = true
	w.mu.Unlock()

	w.svc.Invalidate(loc, w.cfg.ForecastDays)
	w.beginFetch()
}

// Snapshot returns a copy of the current read model. The slices are copied
// so callers cannot alias the watcher's state.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.snap
	if snap.Daily != nil {
		snap.Daily = append([]domain.DailyForecast(nil), snap.Daily...)
	}
	if snap.PublicAlerts != nil {
		snap.PublicAlerts = append([]domain.PublicAlert(nil), snap.PublicAlerts...)
	}
	if snap.Current != nil {
		current := *snap.Current
		snap.Current = &current
	}
	if snap.Alert != nil {
		alert := *snap.Alert
		snap.Alert = &alert
	}
	return snap
}

// beginFetch supersedes any in-flight fetch: the generation counter advances
// and the previous fetch context is cancelled, so its result can never be
// committed regardless of network ordering.
func (w *Watcher) beginFetch() {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	if w.fetchCancel != nil {
		w.fetchCancel()
	}
	ctx, cancel := context.WithCancel(w.baseCtx)
	w.fetchCancel = cancel
	loc := w.loc
	w.mu.Unlock()

	go w.fetch(ctx, gen, loc)
}

func (w *Watcher) fetch(ctx context.Context, gen uint64, loc domain.Location) {
	var (
		forecast ForecastResult
		current  CurrentResult
		alerts   AlertsResult
		fErr     error
		cErr     error
		aErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forecast, fErr = w.svc.Forecast(gctx, loc, w.cfg.ForecastDays)
		return nil
	})
	g.Go(func() error {
		current, cErr = w.svc.Current(gctx, loc)
		return nil
	})
	g.Go(func() error {
		alerts, aErr = w.svc.Alerts(gctx, loc)
		return nil
	})
	_ = g.Wait()

	w.commit(ctx, gen, loc, forecast, current, alerts, firstError(fErr, cErr, aErr))
}

// commit applies a fetch result unless it has been superseded. The
// generation check runs under the mutex, so a cancelled fetch that already
// has its result in hand still cannot overwrite newer state.
func (w *Watcher) commit(ctx context.Context, gen uint64, loc domain.Location, forecast ForecastResult, current CurrentResult, alerts AlertsResult, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen || ctx.Err() != nil {
		w.logger.Debug("discarding superseded weather fetch", "lat", loc.Lat, "lng", loc.Lng)
		return
	}

	conditions := current.Conditions
	w.snap = Snapshot{
		Location:     loc,
		Current:      &conditions,
		Daily:        forecast.Days,
		Alert:        forecast.Alert,
		PublicAlerts: alerts.Bundle.Alerts,
		Loading:      false,
		Degraded:     forecast.Fallback || current.Fallback || alerts.Fallback,
		Err:          err,
		UpdatedAt:    w.clock.Now(),
	}
}

// firstError returns the first meaningful error, ignoring cancellations:
// superseded fetches resolve silently by design.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
