package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// APIs contains API key configurations
type APIs struct {
	Places string `toml:"places"` // POI search service API key
}

// Location contains location resolution policy settings
type Location struct {
	FallbackLatitude  float64 `toml:"fallback_latitude"`  // Used when IP geolocation fails
	FallbackLongitude float64 `toml:"fallback_longitude"` // Used when IP geolocation fails
	DeviceLatitude    float64 `toml:"device_latitude"`    // Pinned device position for the CLI geolocator
	DeviceLongitude   float64 `toml:"device_longitude"`   // Pinned device position for the CLI geolocator
	Language          string  `toml:"language"`           // Accept-language for geocoding and POI search

	SilentGapSeconds            int `toml:"silent_gap_seconds"`             // Throttle gap for silent requests
	ExplicitGapSeconds          int `toml:"explicit_gap_seconds"`           // Throttle gap for explicit requests
	FixTimeoutSeconds           int `toml:"fix_timeout_seconds"`            // Device fix timeout
	HighAccuracyTimeoutSeconds  int `toml:"high_accuracy_timeout_seconds"`  // Device fix timeout for high-accuracy requests
	HighAccuracyIntervalMinutes int `toml:"high_accuracy_interval_minutes"` // Min gap between background high-accuracy fixes
	RefreshIntervalMinutes      int `toml:"refresh_interval_minutes"`       // Periodic silent refresh interval (watch mode)
}

// Cache contains snapshot persistence configuration
type Cache struct {
	SnapshotPath string `toml:"snapshot_path"` // Path to the persisted snapshot file (JSON)
}

// Logging contains logging configuration with rotation and cross-platform support
type Logging struct {
	Enabled         bool   `toml:"enabled"`          // Enable file logging
	Directory       string `toml:"directory"`        // Log directory (relative or absolute)
	FilenamePattern string `toml:"filename_pattern"` // Log filename with date patterns
	Level           string `toml:"level"`            // Log level: debug, info, warn, error
	MaxFiles        int    `toml:"max_files"`        // Number of log files to keep
	MaxSizeMB       int    `toml:"max_size_mb"`      // Rotate when file exceeds this size
	ConsoleOutput   bool   `toml:"console_output"`   // Also output to console
}

// Config represents the complete application configuration
type Config struct {
	APIs     APIs     `toml:"apis"`
	Location Location `toml:"location"`
	Cache    Cache    `toml:"cache"`
	Logging  Logging  `toml:"logging"`
}

// LoadConfig reads and parses a TOML configuration file
func LoadConfig(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{Path: cleanPath}
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults sets default values for optional configuration fields
func (c *Config) ApplyDefaults() {
	// Places key may come from the environment instead of the file
	if strings.TrimSpace(c.APIs.Places) == "" {
		c.APIs.Places = os.Getenv("PLACES_API_KEY")
	}

	// Default to central Tokyo, the trip this companion was built for
	if c.Location.FallbackLatitude == 0 && c.Location.FallbackLongitude == 0 {
		c.Location.FallbackLatitude = 35.6762
		c.Location.FallbackLongitude = 139.6503
	}
	if c.Location.DeviceLatitude == 0 && c.Location.DeviceLongitude == 0 {
		c.Location.DeviceLatitude = c.Location.FallbackLatitude
		c.Location.DeviceLongitude = c.Location.FallbackLongitude
	}
	if strings.TrimSpace(c.Location.Language) == "" {
		c.Location.Language = "en"
	}

	if c.Location.SilentGapSeconds <= 0 {
		c.Location.SilentGapSeconds = 10
	}
	if c.Location.ExplicitGapSeconds <= 0 {
		c.Location.ExplicitGapSeconds = 30
	}
	if c.Location.FixTimeoutSeconds <= 0 {
		c.Location.FixTimeoutSeconds = 10
	}
	if c.Location.HighAccuracyTimeoutSeconds <= 0 {
		c.Location.HighAccuracyTimeoutSeconds = 15
	}
	if c.Location.HighAccuracyIntervalMinutes <= 0 {
		c.Location.HighAccuracyIntervalMinutes = 10
	}
	if c.Location.RefreshIntervalMinutes <= 0 {
		c.Location.RefreshIntervalMinutes = 10
	}

	if strings.TrimSpace(c.Cache.SnapshotPath) == "" {
		c.Cache.SnapshotPath = filepath.Join(os.TempDir(), "tripcast-snapshot.json")
	}

	if strings.TrimSpace(c.Logging.Directory) == "" {
		c.Logging.Directory = "logs"
	}
	if strings.TrimSpace(c.Logging.FilenamePattern) == "" {
		c.Logging.FilenamePattern = "tripcast-YYYYMMDD.log"
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxFiles <= 0 {
		c.Logging.MaxFiles = 7
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 10
	}
}

// ConfigNotFoundError represents a missing configuration file
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s\n\nTo create a sample configuration file, run:\n  %s --generate-config", e.Path, filepath.Base(os.Args[0]))
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	var messages []string
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// Validate checks the configuration for correctness and completeness
func (c *Config) Validate() error {
	var errors []ValidationError

	errors = append(errors, c.validateLocation()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}
	return nil
}

// validateLocation checks the location policy settings
func (c *Config) validateLocation() []ValidationError {
	var errors []ValidationError

	coords := []struct {
		field string
		value float64
		isLat bool
	}{
		{"location.fallback_latitude", c.Location.FallbackLatitude, true},
		{"location.fallback_longitude", c.Location.FallbackLongitude, false},
		{"location.device_latitude", c.Location.DeviceLatitude, true},
		{"location.device_longitude", c.Location.DeviceLongitude, false},
	}
	for _, coord := range coords {
		min, max := -180.0, 180.0
		kind := "longitude"
		if coord.isLat {
			min, max = -90.0, 90.0
			kind = "latitude"
		}
		if coord.value < min || coord.value > max {
			errors = append(errors, ValidationError{
				Field:   coord.field,
				Message: fmt.Sprintf("%s must be between %.0f and %.0f, got %.6f", kind, min, max, coord.value),
			})
		}
	}

	if c.Location.SilentGapSeconds > c.Location.ExplicitGapSeconds {
		errors = append(errors, ValidationError{
			Field:   "location.silent_gap_seconds",
			Message: "silent gap must not exceed the explicit gap",
		})
	}

	return errors
}

// validateLogging checks logging configuration
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	valid := false
	for _, validLevel := range validLevels {
		if level == validLevel {
			valid = true
			break
		}
	}
	if !valid {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("level must be one of: %s, got '%s'", strings.Join(validLevels, ", "), c.Logging.Level),
		})
	}

	return errors
}

// GenerateSampleConfig writes a commented sample configuration file
func GenerateSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	}

	sample := `# Tripcast configuration

[apis]
# POI search service API key (or set PLACES_API_KEY in the environment).
# Leave empty to disable landmark escalation.
places = ""

[location]
# Coordinate used when IP geolocation fails.
fallback_latitude = 35.6762
fallback_longitude = 139.6503
# Pinned device position served by the CLI geolocator.
device_latitude = 35.6762
device_longitude = 139.6503
language = "en"
silent_gap_seconds = 10
explicit_gap_seconds = 30
fix_timeout_seconds = 10
high_accuracy_timeout_seconds = 15
high_accuracy_interval_minutes = 10
refresh_interval_minutes = 10

[cache]
# Where the last resolved snapshot is persisted.
snapshot_path = ""

[logging]
enabled = true
directory = "logs"
filename_pattern = "tripcast-YYYYMMDD.log"
level = "info"
max_files = 7
max_size_mb = 10
console_output = false
`

	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		return fmt.Errorf("failed to write sample configuration: %w", err)
	}
	return nil
}
