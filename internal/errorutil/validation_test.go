package errorutil

import (
	"strings"
	"testing"
)

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("language", "en"); err != nil {
		t.Errorf("Expected valid, got %v", err)
	}
	if err := ValidateRequired("language", "   "); err == nil {
		t.Error("Expected error for blank value")
	}
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		isLat   bool
		wantErr bool
	}{
		{name: "Valid latitude", value: 35.6762, isLat: true, wantErr: false},
		{name: "Latitude boundary", value: -90, isLat: true, wantErr: false},
		{name: "Latitude too large", value: 90.0001, isLat: true, wantErr: true},
		{name: "Valid longitude", value: 139.6503, isLat: false, wantErr: false},
		{name: "Longitude boundary", value: 180, isLat: false, wantErr: false},
		{name: "Longitude too small", value: -180.5, isLat: false, wantErr: true},
		{name: "Longitude valid where latitude is not", value: 120, isLat: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate("coord", tt.value, tt.isLat)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(35.6762, 139.6503); err != nil {
		t.Errorf("Expected valid pair, got %v", err)
	}
	if err := ValidateCoordinates(91, 139.6503); err == nil {
		t.Error("Expected error for invalid latitude")
	}
	if err := ValidateCoordinates(35.6762, 181); err == nil {
		t.Error("Expected error for invalid longitude")
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "Valid key", key: "AIzaSyD-abcdef1234567890", wantErr: ""},
		{name: "Empty key", key: "", wantErr: "required"},
		{name: "Too short", key: "abc", wantErr: "too short"},
		{name: "Placeholder", key: "your-api-key-here-12345", wantErr: "placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey("apis.places", tt.key, 8)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid key, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
			// Keys never leak into error values
			if err.Value != nil && err.Value != "[REDACTED]" {
				t.Errorf("Expected redacted value, got %v", err.Value)
			}
		})
	}
}
