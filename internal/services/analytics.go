package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"covid-dashboard/internal/analysis"
	"covid-dashboard/internal/dataset"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/observability"
)

var (
	// ErrNotLoaded is returned by queries made before a dataset is installed.
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrInvalidSelection reports a location outside the catalog or a bad year range.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Notice codes attached to views when a section is omitted.
const (
	NoticeNoVaccinationStart  = "no_vaccination_start"
	NoticeInsufficientData    = "insufficient_data"
	NoticeInsufficientSamples = "insufficient_samples"
	NoticeDegenerateSeries    = "degenerate_series"
	NoticeFocusUnavailable    = "focus_unavailable"
)

// DatasetLoader resolves the dataset once at startup.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Dataset, dataset.Resolution, error)
}

type Options struct {
	PivotWindowDays    int
	ExtendedWindowDays int
	FocusLocation      string
	Clock              clockwork.Clock
	Logger             *slog.Logger
	Metrics            *observability.Metrics
}

// snapshot is everything derived from one immutable dataset.
type snapshot struct {
	ds         *dataset.Dataset
	resolution dataset.Resolution
	comparison *models.ComparisonView
	loadedAt   time.Time
}

// Analytics answers dashboard queries against the installed dataset. The
// dataset is replaced as a whole and never mutated, so queries need no lock.
type Analytics struct {
	state   atomic.Pointer[snapshot]
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewAnalytics(opts Options) *Analytics {
	if opts.PivotWindowDays <= 0 {
		opts.PivotWindowDays = 90
	}
	if opts.ExtendedWindowDays <= 0 {
		opts.ExtendedWindowDays = 180
	}
	if opts.FocusLocation == "" {
		opts.FocusLocation = "Brasil"
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Analytics{
		opts:    opts,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Load resolves the dataset through loader and installs it.
func (a *Analytics) Load(ctx context.Context, loader DatasetLoader) error {
	ds, res, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	a.install(ds, res)
	return nil
}

// SetDataset installs ds directly.
func (a *Analytics) SetDataset(ds *dataset.Dataset) {
	a.install(ds, dataset.Resolution{})
}

func (a *Analytics) install(ds *dataset.Dataset, res dataset.Resolution) {
	snap := &snapshot{
		ds:         ds,
		resolution: res,
		comparison: a.buildComparison(ds),
		loadedAt:   a.clock.Now(),
	}
	a.state.Store(snap)
	a.logger.Info("dataset installed",
		"rows", ds.Rows(),
		"locations", ds.Catalog().Len(),
		"comparison_rows", len(snap.comparison.Rows),
	)
}

func (a *Analytics) current() (*snapshot, error) {
	snap := a.state.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

func (a *Analytics) Ready() bool {
	return a.state.Load() != nil
}

// Catalog returns the selectable display names, aggregate first.
func (a *Analytics) Catalog() ([]string, error) {
	snap, err := a.current()
	if err != nil {
		return nil, err
	}
	return snap.ds.Catalog().Names(), nil
}

// Years returns the selectable years, ascending.
func (a *Analytics) Years() ([]int, error) {
	snap, err := a.current()
	if err != nil {
		return nil, err
	}
	return snap.ds.SelectableYears(), nil
}

// DefaultSelection is the aggregate over every selectable year.
func (a *Analytics) DefaultSelection() (models.Selection, error) {
	snap, err := a.current()
	if err != nil {
		return models.Selection{}, err
	}
	return a.normalize(snap, models.Selection{})
}

// Selector holds the filter options of one dataset and its default selection.
type Selector struct {
	Locations []string
	Years     []int
	Default   models.Selection
}

// Selector reads the filter options and default selection from the same
// installed dataset.
func (a *Analytics) Selector() (Selector, error) {
	snap, err := a.current()
	if err != nil {
		return Selector{}, err
	}
	sel, err := a.normalize(snap, models.Selection{})
	if err != nil {
		return Selector{}, err
	}
	return Selector{
		Locations: snap.ds.Catalog().Names(),
		Years:     snap.ds.SelectableYears(),
		Default:   sel,
	}, nil
}

// normalize fills empty fields with defaults and validates the rest.
func (a *Analytics) normalize(snap *snapshot, sel models.Selection) (models.Selection, error) {
	names := snap.ds.Catalog().Names()
	years := snap.ds.SelectableYears()
	if len(names) == 0 || len(years) == 0 {
		return sel, fmt.Errorf("%w: dataset has no selectable data", analysis.ErrNoDataForSelection)
	}

	if sel.Location == "" {
		sel.Location = names[0]
	}
	if sel.YearStart == 0 {
		sel.YearStart = years[0]
	}
	if sel.YearEnd == 0 {
		sel.YearEnd = years[len(years)-1]
	}

	if !snap.ds.Catalog().Contains(sel.Location) {
		return sel, fmt.Errorf("%w: unknown location %q", ErrInvalidSelection, sel.Location)
	}
	if sel.YearStart > sel.YearEnd {
		return sel, fmt.Errorf("%w: year %d is after %d", ErrInvalidSelection, sel.YearStart, sel.YearEnd)
	}
	if sel.YearStart < years[0] || sel.YearEnd > years[len(years)-1] {
		return sel, fmt.Errorf("%w: years must be within %d-%d", ErrInvalidSelection, years[0], years[len(years)-1])
	}
	return sel, nil
}

// View computes every dashboard section for sel. Sections that cannot be
// computed are left nil and explained by a notice.
func (a *Analytics) View(ctx context.Context, sel models.Selection) (*models.DashboardView, error) {
	_, span := observability.StartSpan(ctx, "analytics.view")
	defer span.Finish()

	snap, err := a.current()
	if err != nil {
		return nil, err
	}

	sel, err = a.normalize(snap, sel)
	if err != nil {
		a.recordView(err)
		span.SetError(err)
		return nil, err
	}
	span.SetTag("location", sel.Location)

	series, err := analysis.Filter(snap.ds, sel.Location, sel.YearStart, sel.YearEnd)
	if err != nil {
		a.recordView(err)
		span.SetError(err)
		return nil, err
	}

	records := series.Records
	view := &models.DashboardView{
		Selection:  sel,
		Display:    series.Display,
		Start:      series.Start,
		End:        series.End,
		LastUpdate: snap.ds.MaxDate(),
		Headline:   analysis.Headline(records),
		Daily:      analysis.DailySeries(records),
		DeathTrend: trendSection(analysis.DeathTrend, analysis.FieldPoints(records, models.FieldNewDeaths)),
		CFR: models.CFRSection{
			Trend:               trendSection(analysis.FatalityTrend, analysis.DailyCFR(records)),
			VaccinationProgress: analysis.VaccinationProgress(records),
		},
		Notices: []models.Notice{},
	}

	pivot, ok := analysis.VaccinationStart(records)
	if !ok {
		view.AddNotice("vaccination", NoticeNoVaccinationStart, "no vaccination recorded in the selected period")
		a.finishView(view)
		return view, nil
	}
	view.VaccinationStart = &pivot

	if cmp, err := analysis.CompareAroundPivot(records, pivot, a.opts.PivotWindowDays); err != nil {
		view.AddNotice("pivot_comparison", NoticeInsufficientData, err.Error())
	} else {
		view.Pivot = &cmp
	}

	cfrPct := analysis.Scale(view.CFR.Trend.Smoothed, 100)
	if corr, err := analysis.Correlate(view.CFR.VaccinationProgress, cfrPct, pivot); err != nil {
		code := NoticeInsufficientSamples
		if errors.Is(err, analysis.ErrDegenerateSeries) {
			code = NoticeDegenerateSeries
		}
		view.AddNotice("correlation", code, err.Error())
	} else {
		view.CFR.Correlation = &corr
		view.CFR.FitLine = corr.Fit(analysis.FitPoints)
	}

	if cmp, err := analysis.CompareAroundPivot(records, pivot, a.opts.ExtendedWindowDays); err != nil {
		view.AddNotice("extended_comparison", NoticeInsufficientData, err.Error())
	} else {
		before, after := analysis.RelativeDays(records, pivot, a.opts.ExtendedWindowDays)
		view.Extended = &models.ExtendedSection{Comparison: cmp, Before: before, After: after}
	}

	a.finishView(view)
	return view, nil
}

func (a *Analytics) finishView(view *models.DashboardView) {
	a.recordView(nil)
	if a.metrics == nil {
		return
	}
	for _, n := range view.Notices {
		a.metrics.Notices.WithLabelValues(n.Code).Inc()
	}
}

func (a *Analytics) recordView(err error) {
	if a.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, analysis.ErrNoDataForSelection):
		outcome = "no_data"
	case err != nil:
		outcome = "invalid"
	}
	a.metrics.ViewsComputed.WithLabelValues(outcome).Inc()
}

func trendSection(t analysis.Trend, raw []models.Point) models.TrendSection {
	return models.TrendSection{
		Window:     t.Window,
		Centered:   t.Center,
		MinPeriods: t.MinPeriods,
		Raw:        raw,
		Smoothed:   t.Apply(raw),
	}
}

// Comparison returns the cross-location table computed when the dataset was installed.
func (a *Analytics) Comparison() (*models.ComparisonView, error) {
	snap, err := a.current()
	if err != nil {
		return nil, err
	}
	return snap.comparison, nil
}

func (a *Analytics) buildComparison(ds *dataset.Dataset) *models.ComparisonView {
	view := &models.ComparisonView{
		WindowDays: a.opts.ExtendedWindowDays,
		Rows:       analysis.CompareLocations(ds, a.opts.ExtendedWindowDays),
		Notices:    []models.Notice{},
	}

	report, err := analysis.AnalyzeDelay(view.Rows, a.opts.FocusLocation, analysis.DelayLimit)
	if err != nil {
		view.Notices = append(view.Notices, models.Notice{
			Section: "delay",
			Code:    NoticeFocusUnavailable,
			Message: err.Error(),
		})
		return view
	}
	view.Delay = &report
	return view
}

// Stats reports the state of the installed dataset for monitoring.
func (a *Analytics) Stats() map[string]any {
	snap := a.state.Load()
	if snap == nil {
		return map[string]any{"loaded": false}
	}

	stats := map[string]any{
		"loaded":           true,
		"record_count":     snap.ds.Rows(),
		"locations":        snap.ds.Catalog().Len(),
		"duplicates":       snap.ds.Duplicates(),
		"min_date":         snap.ds.MinDate(),
		"last_update":      snap.ds.MaxDate(),
		"selectable_years": snap.ds.SelectableYears(),
		"loaded_at":        snap.loadedAt,
		"comparison_rows":  len(snap.comparison.Rows),
	}
	if res := snap.resolution; res.Source != "" {
		stats["source"] = res.Source
		stats["cache_age_seconds"] = res.CacheAge.Seconds()
		stats["skipped_rows"] = res.Skipped
		if res.FetchErr != nil {
			stats["fetch_error"] = res.FetchErr.Error()
		}
	}
	return stats
}
