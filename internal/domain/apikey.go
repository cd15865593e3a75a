package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeyStatus is the lifecycle status of an API key.
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusInactive KeyStatus = "inactive"
)

// Toggled returns the opposite status.
func (s KeyStatus) Toggled() KeyStatus {
	if s == KeyStatusActive {
		return KeyStatusInactive
	}
	return KeyStatusActive
}

// KeyType is an informational label for the key's environment.
type KeyType string

const (
	KeyTypeDevelopment KeyType = "development"
	KeyTypeProduction  KeyType = "production"
)

// TrackType is an informational label for how usage is tracked.
type TrackType string

const (
	TrackTypeUser  TrackType = "user"
	TrackTypeUsage TrackType = "usage"
	TrackTypeDays  TrackType = "days"
)

// KeyID is the store-assigned identifier of a key record.
// Hosted stores may return it as a JSON number, so both forms are accepted.
type KeyID string

func (id KeyID) String() string { return string(id) }

func (id *KeyID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = KeyID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: id must be a string or number", ErrInvalidInput)
	}
	*id = KeyID(n.String())
	return nil
}

// APIKey is one row of the api_keys table.
type APIKey struct {
	ID          KeyID      `json:"id,omitempty" db:"id"`
	Name        string     `json:"name" db:"name"`
	UserNameKey string     `json:"userNameKey" db:"user_name_key"`
	Key         string     `json:"key" db:"key_value"`
	Type        KeyType    `json:"type" db:"key_type"`
	Description string     `json:"description" db:"description"`
	Limit       *int       `json:"limit" db:"usage_limit"`
	TrackType   TrackType  `json:"trackType" db:"track_type"`
	TrackLimit  *int       `json:"trackLimit" db:"track_limit"`
	Status      KeyStatus  `json:"status" db:"status"`
	ExpiryDate  *Date      `json:"expiryDate" db:"expiry_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	LastUsed    *time.Time `json:"last_used" db:"last_used"`
}

// IsActive reports whether the key is currently active.
func (k *APIKey) IsActive() bool {
	return k.Status == KeyStatusActive
}

// UnmarshalJSON decodes a row, treating a blank expiry date as no expiry.
func (k *APIKey) UnmarshalJSON(data []byte) error {
	type row APIKey
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	r.ExpiryDate = OptionalDate(r.ExpiryDate)
	*k = APIKey(r)
	return nil
}

// ExpiredOn reports whether the key has an expiry date on or before today.
func (k *APIKey) ExpiredOn(today Date) bool {
	expiry := OptionalDate(k.ExpiryDate)
	return expiry != nil && !expiry.After(today)
}

// APIKeyUpdate carries the editable fields written by an update.
// Status and Key are not editable here.
type APIKeyUpdate struct {
	Name        string    `json:"name"`
	UserNameKey string    `json:"userNameKey"`
	Description string    `json:"description"`
	Type        KeyType   `json:"type"`
	Limit       *int      `json:"limit"`
	TrackType   TrackType `json:"trackType"`
	TrackLimit  *int      `json:"trackLimit"`
	ExpiryDate  *Date     `json:"expiryDate"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NumberInput is a numeric form field as the user typed it.
// It accepts JSON numbers and strings so that validation, not decoding,
// decides whether the value is acceptable.
type NumberInput string

func (n *NumberInput) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*n = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = NumberInput(v)
	default:
		*n = NumberInput(s)
	}
	return nil
}

// IntInput formats an optional integer as a NumberInput.
func IntInput(v *int) NumberInput {
	if v == nil {
		return ""
	}
	return NumberInput(strconv.Itoa(*v))
}
