package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"tripcast/internal/errorutil"
	"tripcast/internal/logger"
)

const (
	// Open-Meteo forecast API base URL
	openMeteoBaseURL = "https://api.open-meteo.com/v1"
	forecastEndpoint = "/forecast"

	// Forecast horizon requested on every fetch
	forecastDays = 7

	hourlyFields = "temperature_2m,weathercode,precipitation_probability"
	dailyFields  = "weathercode,temperature_2m_max,temperature_2m_min"
)

// WeatherClient fetches current conditions plus hourly/daily forecasts from
// Open-Meteo. A circuit breaker guards the upstream; the pipeline itself does
// no retrying beyond the caller's source fallback chain.
type WeatherClient struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewWeatherClient creates a forecast client. Open-Meteo needs no API key.
func NewWeatherClient() *WeatherClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A superseded fetch is not an upstream failure. Counting it would
		// let routine supersede traffic open the breaker against a healthy
		// service.
		IsSuccessful: func(err error) bool {
			return err == nil || Aborted(err)
		},
	})

	return &WeatherClient{
		client:  newRestyClient(openMeteoBaseURL),
		breaker: breaker,
	}
}

// SetBaseURL overrides the forecast service URL (used by tests).
func (w *WeatherClient) SetBaseURL(baseURL string) {
	w.client.SetBaseURL(baseURL)
}

// SetTimeout configures the HTTP client timeout.
func (w *WeatherClient) SetTimeout(timeout time.Duration) {
	w.client.SetTimeout(timeout)
}

// CurrentWeather mirrors Open-Meteo's current_weather block.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windspeed"`
	WeatherCode int     `json:"weathercode"`
	Time        string  `json:"time"`
}

// HourlySeries holds parallel arrays indexed by hour offset.
type HourlySeries struct {
	Time                     []string  `json:"time"`
	Temperature              []float64 `json:"temperature_2m"`
	WeatherCode              []int     `json:"weathercode"`
	PrecipitationProbability []int     `json:"precipitation_probability"`
}

// DailySeries holds parallel arrays indexed by day offset.
type DailySeries struct {
	Time           []string  `json:"time"`
	WeatherCode    []int     `json:"weathercode"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
}

// Forecast is the decoded forecast response for one coordinate pair.
type Forecast struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timezone  string         `json:"timezone"`
	Current   CurrentWeather `json:"current_weather"`
	Hourly    HourlySeries   `json:"hourly"`
	Daily     DailySeries    `json:"daily"`
}

// WeatherAPIError represents an error response from the forecast service.
type WeatherAPIError struct {
	StatusCode int
	Reason     string
}

func (e *WeatherAPIError) Error() string {
	return fmt.Sprintf("weather API error (status %d): %s", e.StatusCode, e.Reason)
}

// Fetch retrieves current weather plus a 7-day hourly/daily forecast for the
// given coordinates in a single request, with auto-resolved timezone.
func (w *WeatherClient) Fetch(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := errorutil.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	complete := logger.LogOperationStart("weather_fetch", map[string]any{
		"latitude":  lat,
		"longitude": lon,
	})

	result, err := w.breaker.Execute(func() (interface{}, error) {
		var forecast Forecast
		resp, err := w.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"latitude":        fmt.Sprintf("%.4f", lat),
				"longitude":       fmt.Sprintf("%.4f", lon),
				"current_weather": "true",
				"hourly":          hourlyFields,
				"daily":           dailyFields,
				"forecast_days":   fmt.Sprintf("%d", forecastDays),
				"timezone":        "auto",
			}).
			SetResult(&forecast).
			Get(forecastEndpoint)

		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, parseWeatherError(resp)
		}
		return &forecast, nil
	})

	if err != nil {
		complete(err)
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	complete(nil)
	return result.(*Forecast), nil
}

// parseWeatherError creates an appropriate error from an API response.
func parseWeatherError(resp *resty.Response) error {
	apiErr := &WeatherAPIError{StatusCode: resp.StatusCode()}

	var body struct {
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Reason != "" {
		apiErr.Reason = body.Reason
		return apiErr
	}

	switch resp.StatusCode() {
	case 429:
		apiErr.Reason = "rate limit exceeded"
	case 400:
		apiErr.Reason = "invalid coordinates or parameters"
	default:
		apiErr.Reason = fmt.Sprintf("request failed with status %d", resp.StatusCode())
	}
	return apiErr
}

// Description is the human-readable rendering of a WMO weather code.
type Description struct {
	Text   string
	Advice string
}

// DescribeWeatherCode buckets a WMO weather code into a condition label and a
// short clothing/activity recommendation. Pure function, reused for forecast
// days as well as the current snapshot.
func DescribeWeatherCode(code int) Description {
	switch {
	case code == 0:
		return Description{
			Text:   "Clear sky",
			Advice: "Great day to be out. Pack sunscreen.",
		}
	case code >= 1 && code <= 3:
		return Description{
			Text:   "Cloudy",
			Advice: "Mild and grey. A light layer should do.",
		}
	case code == 45 || code == 48:
		return Description{
			Text:   "Fog",
			Advice: "Low visibility. Allow extra time getting around.",
		}
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return Description{
			Text:   "Rain",
			Advice: "Bring an umbrella and waterproof shoes.",
		}
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return Description{
			Text:   "Snow",
			Advice: "Dress warm and watch for slippery streets.",
		}
	case code >= 95:
		return Description{
			Text:   "Thunderstorm",
			Advice: "Stay indoors if you can. Skip open areas.",
		}
	default:
		return Description{
			Text:   "Unsettled",
			Advice: "Check again before heading far from shelter.",
		}
	}
}
