package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tripcast/internal/errorutil"
	"tripcast/internal/logger"
)

const (
	// Nominatim-compatible reverse geocoding base URL
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	reverseGeoEndpoint = "/reverse"

	// Street-level zoom for reverse lookups
	reverseGeoZoom = "18"

	// Reverse geocoding results stay valid for an hour; distinct from the
	// snapshot freshness window in the location package.
	geocodeCacheTTL = 1 * time.Hour
	geoCacheCap     = 256
)

// Place is the human-meaningful resolution of a coordinate pair.
// IsGeneric=true means Landmark is empty or a street/road fallback rather
// than a named point of interest.
type Place struct {
	Name      string
	Landmark  string
	IsGeneric bool
}

// ReverseGeocoder resolves coordinates to a place name and landmark via a
// street-level geocoding service, behind a bounded coordinate-keyed cache.
type ReverseGeocoder struct {
	client   *resty.Client
	language string
	cache    *GeoCache[Place]
}

// NewReverseGeocoder creates a geocoder requesting results in the given
// accept-language (empty means service default).
func NewReverseGeocoder(language string) *ReverseGeocoder {
	return &ReverseGeocoder{
		client:   newRestyClient(nominatimBaseURL),
		language: language,
		cache:    NewGeoCache[Place](geoCacheCap, geocodeCacheTTL),
	}
}

// SetBaseURL overrides the geocoding service URL (used by tests).
func (g *ReverseGeocoder) SetBaseURL(baseURL string) {
	g.client.SetBaseURL(baseURL)
}

type reverseGeoResponse struct {
	Name    string `json:"name"`
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		County      string `json:"county"`
		State       string `json:"state"`
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
	} `json:"address"`
}

// Resolve returns the place name and landmark for a coordinate pair,
// consulting the cache first. Place name falls back through city, town,
// village, county and state, defaulting to "unknown".
func (g *ReverseGeocoder) Resolve(ctx context.Context, lat, lon float64) (Place, error) {
	key := CacheKey(lat, lon)
	if place, ok := g.cache.Get(key); ok {
		logger.Debug("Reverse geocode cache hit for %s", key)
		return place, nil
	}

	var geo reverseGeoResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":             fmt.Sprintf("%f", lat),
			"lon":             fmt.Sprintf("%f", lon),
			"format":          "json",
			"zoom":            reverseGeoZoom,
			"accept-language": g.language,
		}).
		SetResult(&geo).
		Get(reverseGeoEndpoint)

	if err != nil {
		return Place{}, errorutil.NewNetworkError("reverse geocoding", reverseGeoEndpoint, err)
	}
	if !resp.IsSuccess() {
		return Place{}, errorutil.NewStatusError("reverse geocoding", reverseGeoEndpoint, resp.StatusCode())
	}

	place := placeFromResponse(geo)
	g.cache.Set(key, place)
	return place, nil
}

// placeFromResponse applies the name preference chain and the generic-landmark
// rule to a decoded geocoding response.
func placeFromResponse(geo reverseGeoResponse) Place {
	place := Place{Name: "unknown", IsGeneric: true}

	for _, candidate := range []string{
		geo.Address.City,
		geo.Address.Town,
		geo.Address.Village,
		geo.Address.County,
		geo.Address.State,
	} {
		if candidate != "" {
			place.Name = candidate
			break
		}
	}

	if geo.Name != "" {
		// The service resolved a named point at these exact coordinates.
		place.Landmark = geo.Name
		place.IsGeneric = false
		return place
	}

	if geo.Address.Road != "" {
		landmark := geo.Address.Road
		if geo.Address.HouseNumber != "" {
			landmark = strings.TrimSpace(landmark + " " + geo.Address.HouseNumber)
		}
		place.Landmark = landmark
	}
	return place
}
