package location

import (
	"time"

	"tripcast/api"
)

// Source records how a snapshot's coordinates were obtained. The UI uses it
// for trust indicators and to decide re-fetch eagerness.
type Source string

const (
	SourceCache   Source = "cache"
	SourceIP      Source = "ip"
	SourceGPSLow  Source = "gps-low"
	SourceGPSHigh Source = "gps-high"
)

// WeatherSnapshot is the resolved location+weather value at a point in time.
//
// Invariants: IsGeneric=true means Landmark is empty or a road name;
// IsGeneric=false means Landmark names a specific place. Weather absence and
// coordinate absence travel together: a snapshot never carries weather
// without coordinates.
type WeatherSnapshot struct {
	Temperature  *float64          `json:"temperature"`
	Description  string            `json:"description"`
	WeatherCode  *int              `json:"weatherCode"`
	LocationName string            `json:"locationName"`
	Landmark     string            `json:"landmark"`
	IsGeneric    bool              `json:"isGeneric"`
	Latitude     *float64          `json:"latitude"`
	Longitude    *float64          `json:"longitude"`
	Hourly       *api.HourlySeries `json:"hourly,omitempty"`
	Daily        *api.DailySeries  `json:"daily,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Source       Source            `json:"source"`
	Err          string            `json:"error,omitempty"`
}

// HasCoordinates reports whether the snapshot carries a usable position.
func (s *WeatherSnapshot) HasCoordinates() bool {
	return s != nil && s.Latitude != nil && s.Longitude != nil
}

// Clone returns a shallow copy so callers can publish a snapshot without
// sharing the mutable struct.
func (s *WeatherSnapshot) Clone() *WeatherSnapshot {
	if s == nil {
		return nil
	}
	copy := *s
	return &copy
}
