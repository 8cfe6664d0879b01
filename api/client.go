package api

import (
	"time"

	"github.com/go-resty/resty/v2"

	"tripcast/internal/logger"
)

const (
	// Default timeout for API requests. Device geolocation carries its own,
	// longer timeout; see the location package.
	defaultTimeout = 10 * time.Second

	// User-Agent for API requests
	userAgent = "Tripcast/1.0"
)

// newRestyClient builds a resty client with the shared base configuration and
// request/response logging hooks used by every outbound service client.
func newRestyClient(baseURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(defaultTimeout)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		headers := make(map[string]string)
		for key, values := range req.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}
		logger.LogAPIRequest(req.Method, req.URL, headers)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		duration := resp.Time().String()
		bodySize := len(resp.Body())
		logger.LogAPIResponse(resp.Request.Method, resp.Request.URL, resp.StatusCode(), duration, bodySize)
		return nil
	})

	return client
}
