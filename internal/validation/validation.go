// Package validation provides the field rules applied to API key records
// before anything is written to the key store.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bcnelson/apikey-console/internal/domain"
)

// MaxNameLength bounds key names.
const MaxNameLength = 255

var (
	errLimit      = errors.New("Please enter a valid positive number for the limit")
	errTrackLimit = errors.New("track limit must be a whole number of zero or more")
)

// ValidateName checks that a key name is present.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateKeyValue checks the shape of a key string. Uniqueness is checked
// against the store separately.
func ValidateKeyValue(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key must not be blank")
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return fmt.Errorf("key must not contain whitespace")
	}
	return nil
}

// ParseLimit parses the usage limit field. When the limit is disabled the
// input is ignored and nil is returned. When enabled it must be a positive
// whole number; an empty field is rejected.
func ParseLimit(enabled bool, raw domain.NumberInput) (*int, error) {
	if !enabled {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n <= 0 {
		return nil, errLimit
	}
	return &n, nil
}

// ParseTrackLimit parses the optional tracking limit. Empty means unset.
func ParseTrackLimit(raw domain.NumberInput) (*int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, errTrackLimit
	}
	return &n, nil
}

// NormalizeKeyType returns the key type, defaulting empty input to development.
func NormalizeKeyType(t domain.KeyType) (domain.KeyType, error) {
	switch t {
	case "":
		return domain.KeyTypeDevelopment, nil
	case domain.KeyTypeDevelopment, domain.KeyTypeProduction:
		return t, nil
	default:
		return "", fmt.Errorf("type must be %q or %q", domain.KeyTypeDevelopment, domain.KeyTypeProduction)
	}
}

// NormalizeTrackType returns the track type, defaulting empty input to user.
func NormalizeTrackType(t domain.TrackType) (domain.TrackType, error) {
	switch t {
	case "":
		return domain.TrackTypeUser, nil
	case domain.TrackTypeUser, domain.TrackTypeUsage, domain.TrackTypeDays:
		return t, nil
	default:
		return "", fmt.Errorf("trackType must be one of %q, %q, %q", domain.TrackTypeUser, domain.TrackTypeUsage, domain.TrackTypeDays)
	}
}
