package bookstore

import (
	"errors"
	"fmt"
	"time"
)

// ConfigMustString returns the string value for the given key. It panics if
// the key doesn't exist or the value is empty.
//
// Example:
//
//	dsn := bookstore.ConfigMustString("storage.dsn", "Set BOOK__STORAGE__DSN environment variable")
func ConfigMustString(key, helpMsg string) string {
	if !Config.Exists(key) {
		panic(fmt.Sprintf("required config '%s' not set: %s", key, helpMsg))
	}
	value := Config.String(key)
	if value == "" {
		panic(fmt.Sprintf("required config '%s' is empty: %s", key, helpMsg))
	}
	return value
}

// ConfigMustInt returns the int value for the given key with range
// validation. It panics if the key doesn't exist or the value is outside the
// given range.
//
// Example:
//
//	port := bookstore.ConfigMustInt("server.port", 1, 65535)
func ConfigMustInt(key string, minVal, maxVal int) int {
	if !Config.Exists(key) {
		panic(fmt.Sprintf("required config '%s' not set (expected %d-%d)", key, minVal, maxVal))
	}
	value := Config.Int(key)
	if err := ValidateIntRange(value, minVal, maxVal); err != nil {
		panic(fmt.Sprintf("config '%s': %v", key, err))
	}
	return value
}

// ValidateIntRange validates that a value is within the given range
// (inclusive).
func ValidateIntRange(value, minVal, maxVal int) error {
	if value < minVal || value > maxVal {
		return fmt.Errorf("must be between %d and %d, got: %d", minVal, maxVal, value)
	}
	return nil
}

// ValidatePort validates that a port number is valid (1-65535).
func ValidatePort(port int) error {
	return ValidateIntRange(port, 1, 65535)
}

// ValidateNonNegativeDuration validates that a duration is non-negative.
func ValidateNonNegativeDuration(value time.Duration) error {
	if value < 0 {
		return fmt.Errorf("must be non-negative, got: %s", value)
	}
	return nil
}

// ValidateNonEmpty validates that a string is not empty.
func ValidateNonEmpty(value string) error {
	if value == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidateCriticalConfig checks values the server cannot start without.
// Returns all validation errors found, or nil if configuration is valid.
// Call early in initialization to fail fast on misconfigurations.
func ValidateCriticalConfig() []ValidationError {
	var errs []ValidationError

	check := func(key string, err error) {
		if err != nil {
			errs = append(errs, ValidationError{Key: key, Message: err.Error()})
		}
	}

	if Config.Exists("server.port") {
		check("server.port", ValidatePort(Config.Int("server.port")))
	}
	if Config.Exists("server.host") {
		check("server.host", ValidateNonEmpty(Config.String("server.host")))
	}
	if Config.Exists("server.security.corsMaxAge") {
		check("server.security.corsMaxAge",
			ValidateNonNegativeDuration(Config.Duration("server.security.corsMaxAge")))
	}
	switch Config.String("storage.driver") {
	case "", "memory":
	case "sqlite", "postgres":
		if Config.String("storage.dsn") == "" {
			errs = append(errs, ValidationError{
				Key:     "storage.dsn",
				Message: fmt.Sprintf("required for the %s driver", Config.String("storage.driver")),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Key:     "storage.driver",
			Message: fmt.Sprintf("must be memory, sqlite or postgres, got: %s", Config.String("storage.driver")),
		})
	}

	return errs
}
