package logger

import (
	"strings"
	"testing"
)

// TestValidateFilenamePattern tests filename pattern validation
func TestValidateFilenamePattern(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		shouldError bool
	}{
		// Valid patterns
		{
			name:        "simple daily pattern",
			pattern:     "tripcast-YYYYMMDD.log",
			shouldError: false,
		},
		{
			name:        "pattern with dashes",
			pattern:     "tripcast-YYYY-MM-DD.log",
			shouldError: false,
		},
		{
			name:        "pattern with dots",
			pattern:     "app.YYYY.MM.DD.log",
			shouldError: false,
		},
		{
			name:        "pattern with underscores",
			pattern:     "app_YYYY_MM_DD.log",
			shouldError: false,
		},

		// Invalid patterns
		{
			name:        "empty pattern",
			pattern:     "",
			shouldError: true,
		},
		{
			name:        "pattern with forward slashes",
			pattern:     "app-MM/DD/YYYY.log",
			shouldError: true,
		},
		{
			name:        "pattern with backslashes",
			pattern:     "app\\YYYY\\MM.log",
			shouldError: true,
		},
		{
			name:        "pattern with colon",
			pattern:     "app-HH:MM.log",
			shouldError: true,
		},
		{
			name:        "pattern with pipe",
			pattern:     "app-YYYY|MM.log",
			shouldError: true,
		},
		{
			name:        "pattern with asterisk",
			pattern:     "app-*-YYYYMMDD.log",
			shouldError: true,
		},
		{
			name:        "pattern with question mark",
			pattern:     "app-?-YYYYMMDD.log",
			shouldError: true,
		},
		{
			name:        "pattern with angle brackets",
			pattern:     "app-<YYYY>.log",
			shouldError: true,
		},
		{
			name:        "pattern with quotes",
			pattern:     `app-"YYYY".log`,
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilenamePattern(tt.pattern)
			if (err != nil) != tt.shouldError {
				t.Errorf("ValidateFilenamePattern(%s) error = %v, shouldError %v",
					tt.pattern, err, tt.shouldError)
			}

			if err != nil {
				if _, ok := err.(*FilenameValidationError); !ok {
					t.Errorf("Expected FilenameValidationError, got %T", err)
				}
			}
		})
	}
}

// TestFilenameValidationError tests the custom error type
func TestFilenameValidationError(t *testing.T) {
	err := &FilenameValidationError{
		Pattern: "test-MM/DD/YYYY.log",
		Reason:  "pattern must be a bare filename, not a path",
	}

	errMsg := err.Error()

	for _, expected := range []string{"invalid log filename pattern", "test-MM/DD/YYYY.log", "bare filename"} {
		if !strings.Contains(errMsg, expected) {
			t.Errorf("Error message missing expected part: %s\nFull message: %s", expected, errMsg)
		}
	}
}
