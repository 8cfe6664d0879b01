package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"tripcast/api"
	"tripcast/internal/logger"
)

// Permission is the tri-state device geolocation permission flag surfaced to
// the UI.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

// ExplicitCoords lets a caller bypass positioning entirely, used by the
// simulation mode and by share-triggered high-accuracy fetches.
type ExplicitCoords struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Options controls one resolution request.
type Options struct {
	Silent         bool
	HighAccuracy   bool
	Timeout        time.Duration
	ExplicitCoords *ExplicitCoords
}

// WeatherFetcher fetches the forecast for a coordinate pair.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (*api.Forecast, error)
}

// PlaceResolver reverse-geocodes a coordinate pair.
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (api.Place, error)
}

// POIFinder escalates a generic landmark to a named point of interest.
type POIFinder interface {
	FindNearestPOI(ctx context.Context, lat, lon float64) (string, error)
}

// CoarseLocator resolves a city-level position without device access.
type CoarseLocator interface {
	Locate(ctx context.Context) (api.IPLocation, error)
}

// Deps are the collaborators a Service orchestrates.
type Deps struct {
	Weather    WeatherFetcher
	Geocoder   PlaceResolver
	Landmarks  POIFinder
	IPLocator  CoarseLocator
	Geolocator Geolocator
	Store      *SnapshotStore
	Share      ShareSink // optional; nil means compose-only sharing
}

// Config carries the resolution policy knobs.
type Config struct {
	Fallback             Coordinates   // used when IP geolocation fails
	SilentMinGap         time.Duration // throttle gap for silent requests
	ExplicitMinGap       time.Duration // throttle gap for explicit requests
	HighAccuracyInterval time.Duration // min gap between background high-accuracy fixes
	FixTimeout           time.Duration // device fix timeout
	HighAccuracyTimeout  time.Duration // device fix timeout for explicit high-accuracy requests
	LowAccuracyMaxAge    time.Duration // acceptable staleness of a cached device fix
}

func (c *Config) applyDefaults() {
	if c.HighAccuracyInterval <= 0 {
		c.HighAccuracyInterval = 10 * time.Minute
	}
	if c.FixTimeout <= 0 {
		c.FixTimeout = 10 * time.Second
	}
	if c.HighAccuracyTimeout <= 0 {
		c.HighAccuracyTimeout = 15 * time.Second
	}
	if c.LowAccuracyMaxAge <= 0 {
		c.LowAccuracyMaxAge = 10 * time.Minute
	}
}

// Service owns the whole resolution pipeline: throttle state, the current
// snapshot, the persistent store and the per-service cancellation
// coordinator. All state lives here; there are no package-level singletons.
type Service struct {
	deps        Deps
	cfg         Config
	gate        *ThrottleGate
	coordinator *api.CancellationCoordinator
	composer    *Composer

	mu                 sync.Mutex
	current            *WeatherSnapshot
	permission         Permission
	lastHighAccuracyAt time.Time

	background sync.WaitGroup
	scheduler  *gocron.Scheduler
	now        func() time.Time // overridable for tests
}

// NewService wires a resolution pipeline from its collaborators.
func NewService(deps Deps, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		deps:        deps,
		cfg:         cfg,
		gate:        NewThrottleGate(cfg.SilentMinGap, cfg.ExplicitMinGap),
		coordinator: api.NewCancellationCoordinator(),
		composer:    NewComposer(deps.Landmarks),
		now:         time.Now,
	}
}

// Current returns a copy of the snapshot currently published to the UI.
func (s *Service) Current() *WeatherSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Permission returns the device geolocation permission state.
func (s *Service) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// RequestLocationWeather resolves the device position to a full snapshot:
// throttle check, cache-first paint, coordinate source chain, weather +
// reverse geocode, persist and publish. A throttled call returns (nil, nil)
// and the caller relies on the existing snapshot.
func (s *Service) RequestLocationWeather(ctx context.Context, opts Options) (*WeatherSnapshot, error) {
	if opts.HighAccuracy {
		s.gate.AcquireUnchecked()
	} else if !s.gate.TryAcquire(opts.Silent) {
		logger.Debug("Resolution throttled (silent=%v)", opts.Silent)
		return nil, nil
	}

	resolved := false
	defer func() { s.gate.Release(resolved) }()

	hadCache := s.paintFromCache()

	coords, source, explicitName, err := s.selectCoordinates(ctx, opts, hadCache)
	if err != nil {
		return nil, s.failResolution(err)
	}

	snap, err := s.resolveSnapshot(ctx, coords, source, explicitName)
	if err != nil {
		if api.Aborted(err) {
			logger.Debug("Resolution superseded by a newer request")
			return nil, nil
		}
		return nil, s.failResolution(err)
	}

	resolved = true
	s.publish(snap)

	if source == SourceGPSHigh {
		s.mu.Lock()
		s.lastHighAccuracyAt = s.now()
		s.mu.Unlock()
	}

	s.maybeEscalate(snap)
	return snap, nil
}

// paintFromCache publishes the persisted snapshot (provenance cache) so the
// UI never shows a blank state while resolution continues. Reports whether a
// usable cached snapshot exists.
func (s *Service) paintFromCache() bool {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	snap, savedAt, err := s.deps.Store.Read()
	if err != nil {
		logger.Debug("No cached snapshot available: %v", err)
		return false
	}
	if !snap.HasCoordinates() {
		return false
	}

	snap.Source = SourceCache
	logger.Debug("Painting cached snapshot from %s", savedAt.Format(time.RFC3339))

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return true
}

// selectCoordinates walks the source priority chain: explicit coordinates,
// IP-based coarse location (only when no cache exists and the call is not
// silent), then the device fix at the requested accuracy.
func (s *Service) selectCoordinates(ctx context.Context, opts Options, hadCache bool) (Coordinates, Source, string, error) {
	deviceSource := SourceGPSLow
	if opts.HighAccuracy {
		deviceSource = SourceGPSHigh
	}

	if opts.ExplicitCoords != nil {
		coords := Coordinates{
			Latitude:  opts.ExplicitCoords.Latitude,
			Longitude: opts.ExplicitCoords.Longitude,
		}
		return coords, deviceSource, opts.ExplicitCoords.Name, nil
	}

	if !hadCache && !opts.Silent {
		loc, err := s.deps.IPLocator.Locate(ctx)
		if err != nil {
			logger.Warn("IP geolocation failed, using fallback coordinate: %v", err)
			return s.cfg.Fallback, SourceIP, "", nil
		}
		return Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, SourceIP, loc.City, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.FixTimeout
		if opts.HighAccuracy {
			timeout = s.cfg.HighAccuracyTimeout
		}
	}
	req := FixRequest{
		HighAccuracy: opts.HighAccuracy,
		Timeout:      timeout,
	}
	if !opts.HighAccuracy {
		req.MaximumAge = s.cfg.LowAccuracyMaxAge
	}

	result := s.deps.Geolocator.Locate(ctx, req)
	switch result.Status {
	case FixOK:
		s.setPermission(PermissionGranted)
		return result.Coords, deviceSource, "", nil
	case FixDenied:
		s.setPermission(PermissionDenied)
		return Coordinates{}, "", "", fmt.Errorf("device geolocation permission denied")
	case FixTimedOut:
		return Coordinates{}, "", "", fmt.Errorf("device geolocation timed out after %s", timeout)
	default:
		return Coordinates{}, "", "", fmt.Errorf("device geolocation failed: %v", result.Err)
	}
}

func (s *Service) setPermission(p Permission) {
	s.mu.Lock()
	if s.permission != p {
		logger.Info("Geolocation permission state: %v -> %v", s.permission, p)
	}
	s.permission = p
	s.mu.Unlock()
}

// resolveSnapshot fetches weather and, unless an explicit name was supplied,
// the place name, and assembles the snapshot. Each network call runs under
// its cancellation class so a newer request supersedes it cleanly.
func (s *Service) resolveSnapshot(ctx context.Context, coords Coordinates, source Source, explicitName string) (*WeatherSnapshot, error) {
	wctx, _, releaseWeather := s.coordinator.Begin(ctx, api.ClassWeather)
	defer releaseWeather()

	forecast, err := s.deps.Weather.Fetch(wctx, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, err
	}

	place := api.Place{Name: explicitName, IsGeneric: true}
	if explicitName == "" {
		mctx, _, releaseMaps := s.coordinator.Begin(ctx, api.ClassMaps)
		defer releaseMaps()

		place, err = s.deps.Geocoder.Resolve(mctx, coords.Latitude, coords.Longitude)
		if err != nil {
			if api.Aborted(err) {
				return nil, err
			}
			// Weather without a place name still beats nothing.
			logger.Warn("Reverse geocoding failed, keeping coordinates only: %v", err)
			place = api.Place{Name: "unknown", IsGeneric: true}
		}
	}

	desc := api.DescribeWeatherCode(forecast.Current.WeatherCode)
	temperature := forecast.Current.Temperature
	code := forecast.Current.WeatherCode
	lat, lon := coords.Latitude, coords.Longitude

	return &WeatherSnapshot{
		Temperature:  &temperature,
		Description:  desc.Text,
		WeatherCode:  &code,
		LocationName: place.Name,
		Landmark:     place.Landmark,
		IsGeneric:    place.IsGeneric,
		Latitude:     &lat,
		Longitude:    &lon,
		Hourly:       &forecast.Hourly,
		Daily:        &forecast.Daily,
		Timestamp:    s.now(),
		Source:       source,
	}, nil
}

// publish makes snap the current snapshot and persists it. Persistence
// failure is logged, not fatal; the in-memory snapshot still stands.
func (s *Service) publish(snap *WeatherSnapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if err := s.deps.Store.Write(snap); err != nil {
		logger.Warn("Failed to persist snapshot: %v", err)
	}
}

// failResolution records the failure for the UI. The previous snapshot, if
// any, stays in place untouched.
func (s *Service) failResolution(err error) error {
	s.mu.Lock()
	if s.current == nil {
		s.current = &WeatherSnapshot{
			Err:       err.Error(),
			Timestamp: s.now(),
		}
	}
	s.mu.Unlock()
	return err
}

// maybeEscalate kicks off one fire-and-forget high-accuracy refresh when the
// just-completed resolution was low-accuracy and the last high-accuracy fix
// is older than the configured interval. Its failure is logged and ignored;
// a valid lower-accuracy snapshot already exists.
func (s *Service) maybeEscalate(snap *WeatherSnapshot) {
	if snap.Source != SourceGPSLow && snap.Source != SourceIP {
		return
	}

	s.mu.Lock()
	last := s.lastHighAccuracyAt
	s.mu.Unlock()
	if !last.IsZero() && s.now().Sub(last) < s.cfg.HighAccuracyInterval {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		_, err := s.RequestLocationWeather(context.Background(), Options{
			Silent:       true,
			HighAccuracy: true,
			Timeout:      s.cfg.HighAccuracyTimeout,
		})
		if err != nil {
			logger.Debug("Background high-accuracy refresh failed: %v", err)
		}
	}()
}

// StartWatch schedules a silent refresh at the given interval (the periodic
// re-resolution timer). Call StopWatch or Close to stop it.
func (s *Service) StartWatch(interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	s.scheduler = gocron.NewScheduler(time.UTC)
	_, err := s.scheduler.Every(interval).Do(func() {
		if _, err := s.RequestLocationWeather(context.Background(), Options{Silent: true}); err != nil {
			logger.Warn("Periodic refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule periodic refresh: %w", err)
	}

	s.scheduler.StartAsync()
	logger.Info("Periodic refresh scheduled every %s", interval)
	return nil
}

// StopWatch stops the periodic refresh scheduler.
func (s *Service) StopWatch() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Close stops background work and aborts in-flight requests.
func (s *Service) Close() {
	s.StopWatch()
	s.coordinator.CancelAll()
	s.background.Wait()
}
