// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"
)

// ValidateLogLevel checks that level is a level the CLI logger understands.
// An empty level selects the default.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("expected log level of debug, info, warn or error, got %s", level)
}

// ValidateLogFormat checks that format is json or console. An empty format
// selects json.
func ValidateLogFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("expected log format of json or console, got %s", format)
}

// ValidateTolerance checks that a calibration or convergence tolerance is
// usable.
func ValidateTolerance(tolerance float64) error {
	if tolerance <= 0 || tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0, 1), got %v", tolerance)
	}
	return nil
}
