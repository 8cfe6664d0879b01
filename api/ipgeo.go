package api

import (
	"context"

	"github.com/go-resty/resty/v2"

	"tripcast/internal/errorutil"
)

// IP geolocation fallback service base URL
const ipLocateBaseURL = "https://ipapi.co"

// IPLocation is the coarse, city-level position derived from the caller's IP.
type IPLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
}

// IPLocator resolves a coarse device position from the network address, used
// before any GPS fix is available.
type IPLocator struct {
	client *resty.Client
}

// NewIPLocator creates an IP geolocation client.
func NewIPLocator() *IPLocator {
	return &IPLocator{client: newRestyClient(ipLocateBaseURL)}
}

// SetBaseURL overrides the IP geolocation service URL (used by tests).
func (l *IPLocator) SetBaseURL(baseURL string) {
	l.client.SetBaseURL(baseURL)
}

// Locate returns the IP-derived position. No parameters; accuracy is
// city-level at best.
func (l *IPLocator) Locate(ctx context.Context) (IPLocation, error) {
	var loc IPLocation
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&loc).
		Get("/json")

	if err != nil {
		return IPLocation{}, errorutil.NewNetworkError("IP geolocation", "/json", err)
	}
	if !resp.IsSuccess() {
		return IPLocation{}, errorutil.NewStatusError("IP geolocation", "/json", resp.StatusCode())
	}
	return loc, nil
}
