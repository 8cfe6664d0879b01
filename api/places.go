package api

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"tripcast/internal/errorutil"
	"tripcast/internal/logger"
)

const (
	// Places-style POI search base URL
	placesBaseURL        = "https://places.googleapis.com/v1"
	searchNearbyEndpoint = "/places:searchNearby"

	// Initial search radius with a single escalation step for sparse areas.
	// Most lookups resolve at the tight radius; the wider retry trades a
	// little precision for recall without always paying the noisier search.
	initialRadiusMeters   = 100
	escalatedRadiusMeters = 300

	poiCacheTTL = 1 * time.Hour
)

// poiCategories is the fixed whitelist of place types worth naming in a
// shared location.
var poiCategories = []string{
	"restaurant",
	"cafe",
	"lodging",
	"train_station",
	"subway_station",
	"shopping_mall",
	"convenience_store",
	"tourist_attraction",
	"park",
	"museum",
}

// LandmarkResolver escalates a generic or missing landmark to a named point
// of interest via a nearby-search service. Results are cached per
// (coordinate, radius), including empty ones.
type LandmarkResolver struct {
	client   *resty.Client
	apiKey   string
	language string
	cache    *GeoCache[string]
}

// NewLandmarkResolver creates a POI resolver authenticated with apiKey.
func NewLandmarkResolver(apiKey, language string) *LandmarkResolver {
	return &LandmarkResolver{
		client:   newRestyClient(placesBaseURL),
		apiKey:   apiKey,
		language: language,
		cache:    NewGeoCache[string](geoCacheCap, poiCacheTTL),
	}
}

// SetBaseURL overrides the POI service URL (used by tests).
func (r *LandmarkResolver) SetBaseURL(baseURL string) {
	r.client.SetBaseURL(baseURL)
}

// FindNearestPOI returns the name of the closest whitelisted point of
// interest, searching at 100 m and escalating to 300 m exactly once if the
// first search comes back empty. At most two network searches per call.
// Returns "" when nothing is found.
func (r *LandmarkResolver) FindNearestPOI(ctx context.Context, lat, lon float64) (string, error) {
	for _, radius := range []int{initialRadiusMeters, escalatedRadiusMeters} {
		key := CacheKey(lat, lon, radius)
		name, cached := r.cache.Get(key)
		if !cached {
			var err error
			name, err = r.searchNearby(ctx, lat, lon, radius)
			if err != nil {
				return "", err
			}
			r.cache.Set(key, name)
		} else {
			logger.Debug("POI cache hit for %s", key)
		}

		if name != "" {
			return name, nil
		}
	}
	return "", nil
}

// searchNearby issues one nearby-search request at the given radius and
// extracts the best display name from the response.
func (r *LandmarkResolver) searchNearby(ctx context.Context, lat, lon float64, radius int) (string, error) {
	body := map[string]any{
		"includedTypes":  poiCategories,
		"maxResultCount": 1,
		"languageCode":   r.language,
		"locationRestriction": map[string]any{
			"circle": map[string]any{
				"center": map[string]float64{
					"latitude":  lat,
					"longitude": lon,
				},
				"radius": float64(radius),
			},
		},
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", r.apiKey).
		SetHeader("X-Goog-FieldMask", "places.displayName,places.addressDescriptor").
		SetBody(body).
		Post(searchNearbyEndpoint)

	if err != nil {
		return "", errorutil.NewNetworkError("POI search", searchNearbyEndpoint, err)
	}
	if !resp.IsSuccess() {
		return "", errorutil.NewStatusError("POI search", searchNearbyEndpoint, resp.StatusCode())
	}

	return extractPOIName(resp.Body()), nil
}

// extractPOIName pulls the landmark name out of a nearby-search response.
// The address-descriptor landmark is preferred over the raw place name when
// both are present.
func extractPOIName(body []byte) string {
	if landmark := gjson.GetBytes(body, "places.0.addressDescriptor.landmarks.0.displayName.text"); landmark.Exists() && landmark.String() != "" {
		return landmark.String()
	}
	return gjson.GetBytes(body, "places.0.displayName.text").String()
}
