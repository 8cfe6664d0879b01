package location

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"tripcast/api"
	"tripcast/internal/logger"
)

// Share text tags describing how the landmark was obtained.
const (
	TagStreet  = "street"
	TagPOI     = "poi"
	TagUnknown = "unknown"
)

// ShareText is the composed shareable location message.
type ShareText struct {
	BaseMessage string
	FullText    string
	Tag         string
}

// ShareSink delivers the composed text to the platform share surface
// (clipboard, share sheet, stdout).
type ShareSink interface {
	Share(ctx context.Context, text string) error
}

// WriterSink writes shared text to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s *WriterSink) Share(_ context.Context, text string) error {
	_, err := fmt.Fprintln(s.W, text)
	return err
}

// Composer turns a snapshot into shareable text. It is pure given the
// snapshot and the resolver's response; it performs no geolocation itself.
type Composer struct {
	landmarks POIFinder
}

// NewComposer creates a composer escalating generic landmarks through
// landmarks.
func NewComposer(landmarks POIFinder) *Composer {
	return &Composer{landmarks: landmarks}
}

// Compose builds the share text for snap. A precise landmark is used as-is;
// a generic or missing one triggers exactly one POI escalation. When the
// escalation names a place, the returned snapshot copy carries the enriched
// landmark for the caller to publish and persist; otherwise it is nil.
func (c *Composer) Compose(ctx context.Context, snap *WeatherSnapshot) (ShareText, *WeatherSnapshot, error) {
	if !snap.HasCoordinates() {
		return ShareText{}, nil, fmt.Errorf("snapshot has no coordinates to share")
	}

	landmark := snap.Landmark
	tag := TagStreet
	var enriched *WeatherSnapshot

	if c.landmarks == nil {
		if snap.Landmark == "" || snap.IsGeneric {
			tag = TagUnknown
		}
		base := composeBaseMessage(snap, landmark)
		full := fmt.Sprintf("%s %s", base, mapURL(*snap.Latitude, *snap.Longitude))
		return ShareText{BaseMessage: base, FullText: full, Tag: tag}, nil, nil
	}

	if snap.Landmark == "" || snap.IsGeneric {
		name, err := c.landmarks.FindNearestPOI(ctx, *snap.Latitude, *snap.Longitude)
		switch {
		case err != nil && api.Aborted(err):
			return ShareText{}, nil, err
		case err != nil:
			// Sharing still works without the escalation; keep the
			// coordinates and whatever landmark we already had.
			logger.Warn("POI escalation failed, sharing without a named place: %v", err)
			tag = TagUnknown
		case name != "":
			landmark = name
			tag = TagPOI
			enriched = snap.Clone()
			enriched.Landmark = name
			enriched.IsGeneric = false
		default:
			tag = TagUnknown
		}
	}

	base := composeBaseMessage(snap, landmark)
	full := fmt.Sprintf("%s %s", base, mapURL(*snap.Latitude, *snap.Longitude))
	return ShareText{BaseMessage: base, FullText: full, Tag: tag}, enriched, nil
}

// composeBaseMessage embeds the place name, landmark and current conditions.
func composeBaseMessage(snap *WeatherSnapshot, landmark string) string {
	msg := fmt.Sprintf("I'm in %s.", snap.LocationName)
	if landmark != "" {
		msg = fmt.Sprintf("I'm near %s in %s.", landmark, snap.LocationName)
	}
	if snap.Temperature != nil {
		msg = fmt.Sprintf("%s Currently %.1f°C, %s.", msg, *snap.Temperature, snap.Description)
	}
	return msg
}

// mapURL builds the map link for the shared coordinates.
func mapURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}

// ShareLocation composes the share text for the current snapshot, publishes
// any landmark enrichment, and hands the text to the share sink. An aborted
// escalation is swallowed; the caller sees an empty string, not an error.
func (s *Service) ShareLocation(ctx context.Context) (string, error) {
	snap := s.Current()
	if snap == nil || !snap.HasCoordinates() {
		return "", fmt.Errorf("no resolved location to share")
	}

	mctx, _, release := s.coordinator.Begin(ctx, api.ClassMaps)
	defer release()

	text, enriched, err := s.composer.Compose(mctx, snap)
	if err != nil {
		if api.Aborted(err) {
			logger.Debug("Share composition superseded by a newer request")
			return "", nil
		}
		return "", err
	}

	if enriched != nil {
		s.publish(enriched)
	}

	if s.deps.Share != nil {
		if err := s.deps.Share.Share(ctx, text.FullText); err != nil {
			return "", fmt.Errorf("failed to deliver share text: %w", err)
		}
	}

	logger.Info("Location shared (tag=%s)", text.Tag)
	s.refreshAfterShare(snap)
	return text.FullText, nil
}

// refreshAfterShare kicks off the share-triggered high-accuracy fetch for the
// shared coordinates so the next viewer of the snapshot sees a precise fix.
// Already-precise snapshots skip it. Fire and forget; the share has been
// delivered either way.
func (s *Service) refreshAfterShare(snap *WeatherSnapshot) {
	if snap.Source == SourceGPSHigh {
		return
	}

	coords := &ExplicitCoords{
		Latitude:  *snap.Latitude,
		Longitude: *snap.Longitude,
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		_, err := s.RequestLocationWeather(context.Background(), Options{
			Silent:         true,
			HighAccuracy:   true,
			Timeout:        s.cfg.HighAccuracyTimeout,
			ExplicitCoords: coords,
		})
		if err != nil {
			logger.Debug("Share-triggered high-accuracy refresh failed: %v", err)
		}
	}()
}
