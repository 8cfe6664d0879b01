package location

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tripcast/api"
)

func TestComposeWithPreciseLandmark(t *testing.T) {
	poi := &fakePOI{name: "Blue Bottle Coffee"}
	composer := NewComposer(poi)

	snap := testSnapshot()
	text, enriched, err := composer.Compose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Expected successful compose, got error: %v", err)
	}

	if text.Tag != TagStreet {
		t.Errorf("Expected tag street, got %q", text.Tag)
	}
	expected := "I'm near Ginza Station in Tokyo. Currently 18.4°C, Rain."
	if text.BaseMessage != expected {
		t.Errorf("Expected %q, got %q", expected, text.BaseMessage)
	}
	if !strings.HasSuffix(text.FullText, "https://www.google.com/maps?q=35.6762,139.6503") {
		t.Errorf("Expected map link suffix, got %q", text.FullText)
	}

	// A precise landmark needs no escalation
	if got := poi.calls.Load(); got != 0 {
		t.Errorf("Expected no POI search, got %d", got)
	}
	if enriched != nil {
		t.Error("Expected no enrichment for a precise landmark")
	}
}

func TestComposeEscalatesGenericLandmark(t *testing.T) {
	poi := &fakePOI{name: "Blue Bottle Coffee"}
	composer := NewComposer(poi)

	snap := testSnapshot()
	snap.Landmark = "Harumi Street"
	snap.IsGeneric = true

	text, enriched, err := composer.Compose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Expected successful compose, got error: %v", err)
	}

	if text.Tag != TagPOI {
		t.Errorf("Expected tag poi, got %q", text.Tag)
	}
	if !strings.Contains(text.BaseMessage, "Blue Bottle Coffee") {
		t.Errorf("Expected the POI name in the message, got %q", text.BaseMessage)
	}
	if got := poi.calls.Load(); got != 1 {
		t.Errorf("Expected exactly one POI search, got %d", got)
	}

	if enriched == nil {
		t.Fatal("Expected an enriched snapshot for publication")
	}
	if enriched.Landmark != "Blue Bottle Coffee" || enriched.IsGeneric {
		t.Errorf("Expected the enriched snapshot to carry the POI, got %q (generic=%v)",
			enriched.Landmark, enriched.IsGeneric)
	}
	// The original snapshot stays untouched
	if snap.Landmark != "Harumi Street" {
		t.Error("Expected the input snapshot to be unmodified")
	}
}

func TestComposeWithoutPOIMatch(t *testing.T) {
	poi := &fakePOI{name: ""}
	composer := NewComposer(poi)

	snap := testSnapshot()
	snap.Landmark = ""
	snap.IsGeneric = true

	text, enriched, err := composer.Compose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Expected successful compose, got error: %v", err)
	}

	if text.Tag != TagUnknown {
		t.Errorf("Expected tag unknown, got %q", text.Tag)
	}
	expected := "I'm in Tokyo. Currently 18.4°C, Rain."
	if text.BaseMessage != expected {
		t.Errorf("Expected %q, got %q", expected, text.BaseMessage)
	}
	if enriched != nil {
		t.Error("Expected no enrichment without a POI match")
	}
}

func TestComposeWithoutResolver(t *testing.T) {
	composer := NewComposer(nil)

	snap := testSnapshot()
	snap.Landmark = ""
	snap.IsGeneric = true

	text, enriched, err := composer.Compose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Expected compose to work without a resolver, got error: %v", err)
	}
	if text.Tag != TagUnknown {
		t.Errorf("Expected tag unknown, got %q", text.Tag)
	}
	if enriched != nil {
		t.Error("Expected no enrichment without a resolver")
	}
}

func TestComposeSurvivesPOIFailure(t *testing.T) {
	poi := &fakePOI{err: errors.New("places down")}
	composer := NewComposer(poi)

	snap := testSnapshot()
	snap.Landmark = "Harumi Street"
	snap.IsGeneric = true

	text, enriched, err := composer.Compose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Expected compose to survive a failed escalation, got error: %v", err)
	}

	if text.Tag != TagUnknown {
		t.Errorf("Expected tag unknown, got %q", text.Tag)
	}
	// The original landmark still names the spot
	if !strings.Contains(text.BaseMessage, "Harumi Street") {
		t.Errorf("Expected the original landmark in the message, got %q", text.BaseMessage)
	}
	if enriched != nil {
		t.Error("Expected no enrichment after a failed escalation")
	}
}

func TestComposeAbortedEscalationPropagates(t *testing.T) {
	poi := &fakePOI{err: fmt.Errorf("request aborted: %w", context.Canceled)}
	composer := NewComposer(poi)

	snap := testSnapshot()
	snap.Landmark = ""
	snap.IsGeneric = true

	_, _, err := composer.Compose(context.Background(), snap)
	if err == nil {
		t.Fatal("Expected an aborted escalation to surface")
	}
	if !api.Aborted(err) {
		t.Errorf("Expected the error to stay recognizable as aborted, got %v", err)
	}
}

func TestComposeRequiresCoordinates(t *testing.T) {
	composer := NewComposer(&fakePOI{})

	if _, _, err := composer.Compose(context.Background(), &WeatherSnapshot{}); err == nil {
		t.Fatal("Expected error for a snapshot without coordinates")
	}
}

func TestMapURLTrimsTrailingZeros(t *testing.T) {
	tests := []struct {
		name     string
		lat      float64
		lon      float64
		expected string
	}{
		{
			name:     "Four decimals",
			lat:      35.6762,
			lon:      139.6503,
			expected: "https://www.google.com/maps?q=35.6762,139.6503",
		},
		{
			name:     "Short fractions stay short",
			lat:      35.5,
			lon:      139.75,
			expected: "https://www.google.com/maps?q=35.5,139.75",
		},
		{
			name:     "Negative coordinates",
			lat:      -33.8688,
			lon:      151.2093,
			expected: "https://www.google.com/maps?q=-33.8688,151.2093",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapURL(tt.lat, tt.lon); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestServiceShareLocation(t *testing.T) {
	f := newFixture(t)
	f.geocoder.place = api.Place{Name: "Tokyo", Landmark: "Harumi Street", IsGeneric: true}

	var sink bytes.Buffer
	f.service.deps.Share = &WriterSink{W: &sink}

	opts := explicitTokyo()
	opts.HighAccuracy = true
	if _, err := f.service.RequestLocationWeather(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	text, err := f.service.ShareLocation(context.Background())
	if err != nil {
		t.Fatalf("Expected successful share, got error: %v", err)
	}

	if !strings.Contains(text, "Blue Bottle Coffee") {
		t.Errorf("Expected the escalated POI in the share text, got %q", text)
	}
	if !strings.Contains(sink.String(), text) {
		t.Error("Expected the share text to reach the sink")
	}

	// The enrichment is published back to the current snapshot
	current := f.service.Current()
	if current.Landmark != "Blue Bottle Coffee" || current.IsGeneric {
		t.Errorf("Expected the published snapshot to carry the POI, got %q (generic=%v)",
			current.Landmark, current.IsGeneric)
	}
}

func TestShareTriggersHighAccuracyRefresh(t *testing.T) {
	f := newFixture(t)

	snap, err := f.service.RequestLocationWeather(context.Background(), explicitTokyo())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Source != SourceGPSLow {
		t.Fatalf("Expected a low-accuracy starting snapshot, got %q", snap.Source)
	}

	if _, err := f.service.ShareLocation(context.Background()); err != nil {
		t.Fatalf("Expected successful share, got error: %v", err)
	}

	// Close waits for the share-triggered refresh to settle
	f.service.Close()

	current := f.service.Current()
	if current == nil {
		t.Fatal("Expected a snapshot after the refresh")
	}
	if current.Source != SourceGPSHigh {
		t.Errorf("Expected the refreshed snapshot to be high accuracy, got %q", current.Source)
	}
	if got := f.weather.calls.Load(); got != 2 {
		t.Errorf("Expected 2 weather fetches (resolution + share refresh), got %d", got)
	}
}

func TestShareAlreadyPreciseSkipsRefresh(t *testing.T) {
	f := newFixture(t)

	opts := explicitTokyo()
	opts.HighAccuracy = true
	if _, err := f.service.RequestLocationWeather(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.ShareLocation(context.Background()); err != nil {
		t.Fatalf("Expected successful share, got error: %v", err)
	}
	f.service.Close()

	if got := f.weather.calls.Load(); got != 1 {
		t.Errorf("Expected no extra fetch after sharing a precise fix, got %d", got)
	}
}

func TestTokyoStationShareFlow(t *testing.T) {
	f := newFixture(t)
	f.geocoder.place = api.Place{Name: "Chiyoda", Landmark: "Marunouchi", IsGeneric: true}
	f.poi.name = "Tokyo Station"

	var sink bytes.Buffer
	f.service.deps.Share = &WriterSink{W: &sink}

	opts := explicitTokyo()
	opts.HighAccuracy = true
	snap, err := f.service.RequestLocationWeather(context.Background(), opts)
	if err != nil {
		t.Fatalf("Expected successful resolution, got error: %v", err)
	}

	// Reverse geocoding yielded only an administrative area
	if snap.LocationName != "Chiyoda" {
		t.Errorf("Expected location Chiyoda, got %q", snap.LocationName)
	}
	if snap.Landmark != "Marunouchi" || !snap.IsGeneric {
		t.Errorf("Expected generic landmark Marunouchi, got %q (generic=%v)",
			snap.Landmark, snap.IsGeneric)
	}

	text, err := f.service.ShareLocation(context.Background())
	if err != nil {
		t.Fatalf("Expected successful share, got error: %v", err)
	}

	if !strings.Contains(text, "Tokyo Station") {
		t.Errorf("Expected the escalated POI in the share text, got %q", text)
	}
	if !strings.Contains(text, "maps?q=35.6762,139.6503") {
		t.Errorf("Expected the map link in the share text, got %q", text)
	}
	if !strings.Contains(sink.String(), "Tokyo Station") {
		t.Error("Expected the share text to reach the sink")
	}
	if got := f.poi.calls.Load(); got != 1 {
		t.Errorf("Expected exactly one POI escalation, got %d", got)
	}

	// The enrichment sticks for subsequent shares
	current := f.service.Current()
	if current.Landmark != "Tokyo Station" || current.IsGeneric {
		t.Errorf("Expected the published snapshot to carry the station, got %q (generic=%v)",
			current.Landmark, current.IsGeneric)
	}
}

func TestShareWithoutSnapshot(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.ShareLocation(context.Background()); err == nil {
		t.Fatal("Expected error when nothing is resolved yet")
	}
}
