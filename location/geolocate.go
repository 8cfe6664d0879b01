package location

import (
	"context"
	"time"
)

// FixStatus is the outcome of a device geolocation attempt. The platform's
// callback-style API is wrapped into this single tagged result.
type FixStatus int

const (
	FixOK FixStatus = iota
	FixDenied
	FixTimedOut
	FixFailed
)

// Coordinates is a plain latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// FixRequest describes one device geolocation attempt.
type FixRequest struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge allows the device to serve a cached fix no older than this.
	// High-accuracy requests set it to zero to force a fresh fix.
	MaximumAge time.Duration
}

// FixResult is the settled outcome of a geolocation attempt.
type FixResult struct {
	Status FixStatus
	Coords Coordinates
	Err    error
}

// Geolocator abstracts the device positioning API.
type Geolocator interface {
	Locate(ctx context.Context, req FixRequest) FixResult
}

// StaticGeolocator serves a pinned coordinate, standing in for a real device
// fix in the CLI and in tests. Low-accuracy requests get a fixed offset
// applied, mimicking a coarse fix; high-accuracy requests return the exact
// pin after Delay.
type StaticGeolocator struct {
	Coords Coordinates
	// LowAccuracyOffset shifts low-accuracy fixes by this many degrees.
	LowAccuracyOffset float64
	Delay             time.Duration
	Denied            bool
}

// Locate implements Geolocator.
func (g *StaticGeolocator) Locate(ctx context.Context, req FixRequest) FixResult {
	if g.Denied {
		return FixResult{Status: FixDenied}
	}

	if g.Delay > 0 {
		timeout := req.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		select {
		case <-time.After(g.Delay):
		case <-time.After(timeout):
			return FixResult{Status: FixTimedOut}
		case <-ctx.Done():
			return FixResult{Status: FixFailed, Err: ctx.Err()}
		}
	}

	coords := g.Coords
	if !req.HighAccuracy {
		coords.Latitude += g.LowAccuracyOffset
		coords.Longitude += g.LowAccuracyOffset
	}
	return FixResult{Status: FixOK, Coords: coords}
}
