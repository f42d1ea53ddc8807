package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"covid-dashboard/internal/config"
	"covid-dashboard/internal/observability"
)

// ErrDataUnavailable means the remote fetch failed and no cache exists to fall back on.
var ErrDataUnavailable = errors.New("data unavailable")

// Source tags where a loaded dataset came from.
type Source string

const (
	SourceFreshCache Source = "fresh-cache"
	SourceRemote     Source = "remote"
	SourceStaleCache Source = "stale-cache"
)

// Resolution is the outcome of the cache-or-fetch decision.
type Resolution struct {
	Source    Source
	CachePath string
	// CacheAge is the age of the cache file at decision time, zero when absent.
	CacheAge time.Duration
	// FetchErr holds the remote failure that forced a stale-cache fallback.
	FetchErr error
	Skipped  int
	Duration time.Duration
}

type LoaderOptions struct {
	CachePath string
	MaxAge    time.Duration
	Allow     AllowList
	MaxYear   int
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Loader resolves the dataset from the local cache or the remote source.
// Only the Loader writes the cache file.
type Loader struct {
	fetcher   Fetcher
	cachePath string
	maxAge    time.Duration
	allow     AllowList
	maxYear   int
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewLoader(fetcher Fetcher, opts LoaderOptions) *Loader {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}
	return &Loader{
		fetcher:   fetcher,
		cachePath: opts.CachePath,
		maxAge:    opts.MaxAge,
		allow:     opts.Allow,
		maxYear:   opts.MaxYear,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// NewConfiguredLoader builds the HTTP-backed loader described by cfg.
func NewConfiguredLoader(cfg config.DataConfig, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return NewLoader(NewHTTPFetcher(cfg.URL, cfg.FetchTimeout, logger), LoaderOptions{
		CachePath: cfg.CacheFile,
		MaxAge:    cfg.CacheMaxAge,
		Allow:     NewAllowList(cfg.Locations, cfg.Aggregate),
		MaxYear:   cfg.MaxYear,
		Logger:    logger,
		Metrics:   metrics,
	})
}

type cacheState struct {
	exists bool
	age    time.Duration
}

func (c cacheState) fresh(maxAge time.Duration) bool {
	return c.exists && c.age < maxAge
}

func (l *Loader) inspectCache() cacheState {
	info, err := os.Stat(l.cachePath)
	if err != nil || info.IsDir() {
		return cacheState{}
	}
	return cacheState{exists: true, age: l.clock.Since(info.ModTime())}
}

// Load runs the cache state machine:
// fresh cache is used as is; a stale or missing cache triggers a fetch;
// a failed fetch falls back to a stale cache; no cache and a failed fetch
// yields ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (*Dataset, Resolution, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer span.Finish()

	start := l.clock.Now()
	state := l.inspectCache()
	res := Resolution{CachePath: l.cachePath, CacheAge: state.age}

	if state.fresh(l.maxAge) {
		decoded, err := l.readCache(ctx)
		if err == nil {
			res.Source = SourceFreshCache
			return l.finish(decoded, res, start, span)
		}
		l.logger.Warn("cache unreadable, refetching", "path", l.cachePath, "error", err)
	}

	decoded, fetchErr := l.fetchAndStore(ctx)
	if fetchErr == nil {
		res.Source = SourceRemote
		return l.finish(decoded, res, start, span)
	}

	if !state.exists {
		l.recordLoad("unavailable")
		span.SetError(fetchErr)
		return nil, res, fmt.Errorf("%w: %w", ErrDataUnavailable, fetchErr)
	}

	l.logger.Warn("fetch failed, using cached data",
		"path", l.cachePath,
		"cache_age", state.age,
		"error", fetchErr,
	)
	decoded, cacheErr := l.readCache(ctx)
	if cacheErr != nil {
		l.recordLoad("unavailable")
		span.SetError(cacheErr)
		return nil, res, fmt.Errorf("%w: fetch: %w; cache: %w", ErrDataUnavailable, fetchErr, cacheErr)
	}
	res.Source = SourceStaleCache
	res.FetchErr = fetchErr
	return l.finish(decoded, res, start, span)
}

func (l *Loader) finish(decoded decodeResult, res Resolution, start time.Time, span *observability.Span) (*Dataset, Resolution, error) {
	ds := New(decoded.records, l.allow, l.maxYear)
	res.Skipped = decoded.skipped
	res.Duration = l.clock.Since(start)

	span.SetTag("source", string(res.Source))
	l.recordLoad(string(res.Source))
	if l.metrics != nil {
		l.metrics.DatasetRows.Set(float64(ds.Rows()))
		l.metrics.DatasetLocations.Set(float64(ds.Locations()))
		l.metrics.CacheAgeSeconds.Set(res.CacheAge.Seconds())
	}

	if ds.Duplicates() > 0 {
		l.logger.Warn("duplicate rows replaced", "count", ds.Duplicates())
	}
	l.logger.Info("dataset loaded",
		"source", res.Source,
		"rows", ds.Rows(),
		"locations", ds.Locations(),
		"skipped", res.Skipped,
		"min_date", ds.MinDate().Format(dateLayout),
		"max_date", ds.MaxDate().Format(dateLayout),
		"duration", res.Duration,
	)
	return ds, res, nil
}

func (l *Loader) readCache(ctx context.Context) (decodeResult, error) {
	f, err := os.Open(l.cachePath)
	if err != nil {
		return decodeResult{}, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	decoded, err := decodeCSV(ctx, f, l.allow)
	if err != nil {
		return decodeResult{}, fmt.Errorf("decode cache: %w", err)
	}
	return decoded, nil
}

// fetchAndStore streams the remote body into a temp file next to the cache
// while decoding it. The cache is replaced only when decoding succeeds.
func (l *Loader) fetchAndStore(ctx context.Context) (decodeResult, error) {
	if l.fetcher == nil {
		return decodeResult{}, errors.New("no fetcher configured")
	}

	fetchStart := l.clock.Now()
	body, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return decodeResult{}, err
	}
	defer body.Close()

	var src io.Reader = body
	tmp, tmpErr := os.CreateTemp(filepath.Dir(l.cachePath), ".dataset-*.tmp")
	if tmpErr != nil {
		l.logger.Warn("cannot stage cache file", "error", tmpErr)
		l.recordCacheWriteError()
	} else {
		defer os.Remove(tmp.Name())
		src = io.TeeReader(body, tmp)
	}

	decoded, err := decodeCSV(ctx, src, l.allow)
	if l.metrics != nil {
		l.metrics.FetchDuration.Observe(l.clock.Since(fetchStart).Seconds())
	}
	if err != nil {
		if tmp != nil {
			tmp.Close()
		}
		return decodeResult{}, fmt.Errorf("decode remote dataset: %w", err)
	}

	if tmp != nil {
		if err := commitCache(tmp, l.cachePath); err != nil {
			l.logger.Warn("failed to write cache", "path", l.cachePath, "error", err)
			l.recordCacheWriteError()
		}
	}
	return decoded, nil
}

func commitCache(tmp *os.File, path string) error {
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (l *Loader) recordLoad(source string) {
	if l.metrics != nil {
		l.metrics.DatasetLoads.WithLabelValues(source).Inc()
	}
}

func (l *Loader) recordCacheWriteError() {
	if l.metrics != nil {
		l.metrics.CacheWriteErrors.Inc()
	}
}
