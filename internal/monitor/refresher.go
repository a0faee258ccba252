// Package monitor runs the refresh loop: it fetches weather, risk and alerts
// for the selected location, classifies them and publishes the snapshot.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrStale is returned by Refresh when the selection changed while the
// refresh was in flight. The result is discarded.
var ErrStale = errors.New("selection changed during refresh")

// SnapshotSink receives every applied snapshot.
type SnapshotSink interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// TokenSource supplies the signed-in user's access token, if any.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Options configures a Refresher. Provider and Location are required.
type Options struct {
	Provider domain.Provider
	// Creator posts the automatic heat warning. Nil disables it.
	Creator  domain.AlertCreator
	Tokens   TokenSource
	Sinks    []SnapshotSink
	Location domain.Location
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Refresher owns the selected location and the latest snapshot.
type Refresher struct {
	provider domain.Provider
	creator  domain.AlertCreator
	tokens   TokenSource
	sinks    []SnapshotSink
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	timer    *RepeatingTimer
	trigger  chan struct{}
	ready    atomic.Bool

	mu         sync.Mutex
	location   domain.Location
	generation uint64
	current    *domain.Snapshot
}

// New creates a Refresher. Interval defaults to five minutes.
func New(opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Refresher{
		provider: opts.Provider,
		creator:  opts.Creator,
		tokens:   opts.Tokens,
		sinks:    opts.Sinks,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		trigger:  make(chan struct{}, 1),
		location: opts.Location,
	}
	r.timer = NewRepeatingTimer(opts.Clock, opts.Interval, r.RequestRefresh)
	return r
}

// CheckReadiness returns nil once a snapshot has been applied.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no snapshot has been applied yet")
	}
	return nil
}

// Location returns the current selection.
func (r *Refresher) Location() domain.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Current returns the most recently applied snapshot.
func (r *Refresher) Current() (domain.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return domain.Snapshot{}, false
	}
	return *r.current, true
}

// Select changes the monitored location. Selecting the current location is a
// no-op and returns false. Otherwise in-flight refreshes become stale, the
// repeating timer restarts and a refresh is requested immediately.
func (r *Refresher) Select(loc domain.Location) bool {
	r.mu.Lock()
	if r.location.SameAs(loc) {
		r.mu.Unlock()
		return false
	}
	r.location = loc
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	r.logger.Info("location selected", "location", loc.Name, "generation", gen)
	r.timer.Restart()
	r.RequestRefresh()
	return true
}

// RequestRefresh asks the Run loop for a refresh. Requests made while one is
// already pending are coalesced.
func (r *Refresher) RequestRefresh() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes immediately and then on every timer tick or request until
// the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("monitor started", "location", r.Location().Name)
	r.metrics.MonitorRunning.Set(1)
	defer r.metrics.MonitorRunning.Set(0)

	r.timer.Start()
	defer r.timer.Stop()
	r.RequestRefresh()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-r.trigger:
			if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				r.logger.Debug("refresh not applied", "error", err)
			}
		}
	}
}

// Refresh runs one fetch-classify cycle for the current selection. Failed
// reads are replaced with fallback data and noted in the snapshot warnings.
// The snapshot is applied only if the selection has not changed since the
// cycle began; otherwise it is returned with ErrStale.
func (r *Refresher) Refresh(ctx context.Context) (domain.Snapshot, error) {
	start := r.clock.Now()
	loc, gen := r.target()
	warnings := make(map[string]string)

	weather, err := r.provider.Weather(ctx, loc.Name)
	if err != nil {
		weather = domain.FallbackWeather()
		r.fallback(warnings, domain.ResourceWeather, loc, err)
	}

	assessment, err := r.provider.RiskAssessment(ctx, loc.Name)
	liveAssessment := err == nil
	if err != nil {
		assessment = domain.FallbackAssessment()
		r.fallback(warnings, domain.ResourceRisk, loc, err)
	}

	alerts, err := r.provider.Alerts(ctx, loc.Name)
	liveAlerts := err == nil
	if err != nil {
		alerts = domain.FallbackAlerts(loc.Name)
		r.fallback(warnings, domain.ResourceAlerts, loc, err)
	}

	if liveAssessment && liveAlerts && assessment.Triggers.HeatWarning && !hasHeatWarning(alerts, loc.Name) {
		if updated, ok := r.raiseHeatWarning(ctx, loc); ok {
			alerts = updated
		}
	}

	snap := domain.BuildSnapshot(domain.SnapshotInput{
		ID:         uuid.NewString(),
		Location:   loc,
		Generation: gen,
		Weather:    weather,
		Assessment: assessment,
		Alerts:     alerts,
		Warnings:   warnings,
	})

	if !r.apply(snap) {
		r.metrics.RefreshesTotal.WithLabelValues("stale").Inc()
		r.logger.Info("discarding stale refresh", "location", loc.Name, "generation", gen)
		return snap, ErrStale
	}

	outcome := "applied"
	if snap.Degraded() {
		outcome = "degraded"
	}
	r.metrics.RefreshesTotal.WithLabelValues(outcome).Inc()
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	r.metrics.OverallRiskLevel.Set(snap.Assessment.OverallLevel)
	r.metrics.ActiveAlerts.Set(float64(len(snap.Alerts)))
	r.ready.Store(true)

	r.logger.Info("snapshot applied",
		"snapshot_id", snap.ID,
		"location", loc.Name,
		"generation", gen,
		"overall_severity", snap.Assessment.OverallSeverity,
		"alerts", len(snap.Alerts),
		"degraded", snap.Degraded(),
	)

	r.publish(ctx, snap)
	return snap, nil
}

func (r *Refresher) target() (domain.Location, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location, r.generation
}

// apply stores snap as current if its generation is still the latest.
func (r *Refresher) apply(snap domain.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap.Generation != r.generation {
		return false
	}
	r.current = &snap
	return true
}

func (r *Refresher) fallback(warnings map[string]string, resource string, loc domain.Location, err error) {
	r.metrics.FallbacksTotal.WithLabelValues(resource).Inc()
	r.logger.Warn("using fallback data", "resource", resource, "location", loc.Name, "error", err)
	warnings[resource] = fmt.Sprintf("live %s data unavailable, showing fallback", resource)
}

// raiseHeatWarning posts the automatic heat alert and re-reads alerts so the
// snapshot includes it.
func (r *Refresher) raiseHeatWarning(ctx context.Context, loc domain.Location) ([]domain.Alert, bool) {
	if r.creator == nil {
		return nil, false
	}
	var token string
	if r.tokens != nil {
		token, _ = r.tokens.AccessToken()
	}
	if err := r.creator.CreateAlert(ctx, domain.HeatWarningAlert(loc.Name), token); err != nil {
		r.logger.Warn("create heat warning failed", "location", loc.Name, "error", err)
		return nil, false
	}
	r.logger.Info("heat warning raised", "location", loc.Name)

	alerts, err := r.provider.Alerts(ctx, loc.Name)
	if err != nil {
		r.logger.Warn("re-read alerts failed", "location", loc.Name, "error", err)
		return nil, false
	}
	return alerts, true
}

func (r *Refresher) publish(ctx context.Context, snap domain.Snapshot) {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, snap); err != nil {
			r.metrics.PublishErrors.Inc()
			r.logger.Error("publish snapshot failed", "snapshot_id", snap.ID, "error", err)
			continue
		}
		r.metrics.SnapshotsPublished.Inc()
	}
}

// hasHeatWarning reports whether alerts already carry the automatic heat
// warning for location.
func hasHeatWarning(alerts []domain.Alert, location string) bool {
	want := domain.HeatWarningAlert(location)
	for _, a := range alerts {
		if a.Kind == want.Kind && a.Title == want.Title && a.Location == want.Location {
			return true
		}
	}
	return false
}
