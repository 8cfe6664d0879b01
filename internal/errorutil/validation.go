package errorutil

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string      // The field that failed validation
	Value   interface{} // The value that was being validated
	Rule    string      // The validation rule that failed
	Message string      // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s' with rule '%s'", e.Field, e.Rule)
}

// ValidateRequired checks if a field has a non-empty value
func ValidateRequired(field string, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Value:   value,
			Rule:    "required",
			Message: "field is required and cannot be empty",
		}
	}
	return nil
}

// ValidateCoordinate checks if a coordinate is within valid range
func ValidateCoordinate(field string, value float64, isLatitude bool) *ValidationError {
	min, max := -180.0, 180.0
	coordType := "longitude"
	if isLatitude {
		min, max = -90.0, 90.0
		coordType = "latitude"
	}

	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Value:   value,
			Rule:    "coordinate",
			Message: fmt.Sprintf("%s must be between %.1f and %.1f, got %.6f", coordType, min, max, value),
		}
	}
	return nil
}

// ValidateCoordinates checks a latitude/longitude pair together
func ValidateCoordinates(lat, lon float64) error {
	if err := ValidateCoordinate("latitude", lat, true); err != nil {
		return err
	}
	if err := ValidateCoordinate("longitude", lon, false); err != nil {
		return err
	}
	return nil
}

// ValidateAPIKey checks if an API key has a reasonable format
func ValidateAPIKey(field string, value string, minLength int) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Value:   "[REDACTED]",
			Rule:    "required",
			Message: "API key is required",
		}
	}

	if len(value) < minLength {
		return &ValidationError{
			Field:   field,
			Value:   "[REDACTED]",
			Rule:    "min_length",
			Message: fmt.Sprintf("API key too short, expected at least %d characters", minLength),
		}
	}

	// Catch keys copied straight from documentation
	placeholders := []string{"your-api-key-here", "your-key-here", "replace-with-your-key", "example"}
	lowerValue := strings.ToLower(value)
	for _, placeholder := range placeholders {
		if strings.Contains(lowerValue, placeholder) {
			return &ValidationError{
				Field:   field,
				Value:   "[REDACTED]",
				Rule:    "placeholder",
				Message: "API key appears to be a placeholder value",
			}
		}
	}

	return nil
}
