// Package featureflags provides runtime switches for GrowNEX operators.
package featureflags

import (
	"errors"
	"fmt"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisableSignup rejects new account registrations.
	FlagDisableSignup = "disable_signup"

	// FlagReadOnlyMode rejects soil analysis writes.
	FlagReadOnlyMode = "read_only_mode"

	// FlagDisableLowScoreAlerts stops the worker from sending low score alerts.
	FlagDisableLowScoreAlerts = "disable_low_score_alerts"

	// FlagLowScoreAlertThreshold is the soil score below which alerts are sent.
	FlagLowScoreAlertThreshold = "low_score_alert_threshold"
)

// Errors returned when a flag update is rejected.
var (
	ErrUnknownFlag  = errors.New("unknown feature flag")
	ErrInvalidValue = errors.New("invalid feature flag value")
)

// Kind is the value type a flag accepts.
type Kind string

// Flag kinds.
const (
	KindBool   Kind = "bool"
	KindNumber Kind = "number"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// Float64Value returns the flag value as a float64.
// Returns the default value if the flag is nil or not a number.
func (f *Flag) Float64Value(defaultValue float64) float64 {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return defaultValue
	}
}

func (f *Flag) clone() *Flag {
	c := *f
	return &c
}

// knownFlags maps each flag key to the kind of value it accepts.
var knownFlags = map[string]Kind{
	FlagDisableSignup:          KindBool,
	FlagReadOnlyMode:           KindBool,
	FlagDisableLowScoreAlerts:  KindBool,
	FlagLowScoreAlertThreshold: KindNumber,
}

// ValidateUpdate checks that key is a known flag and value has its kind.
func ValidateUpdate(u FlagUpdate) error {
	kind, ok := knownFlags[u.Key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, u.Key)
	}

	switch kind {
	case KindBool:
		if _, ok := u.Value.(bool); !ok {
			return fmt.Errorf("%w: %s expects a boolean", ErrInvalidValue, u.Key)
		}
	case KindNumber:
		switch v := u.Value.(type) {
		case float64:
			if v < 0 || v > 10 {
				return fmt.Errorf("%w: %s must be between 0 and 10", ErrInvalidValue, u.Key)
			}
		case int:
			if v < 0 || v > 10 {
				return fmt.Errorf("%w: %s must be between 0 and 10", ErrInvalidValue, u.Key)
			}
		default:
			return fmt.Errorf("%w: %s expects a number", ErrInvalidValue, u.Key)
		}
	}
	return nil
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagDisableSignup: {
			Key:       FlagDisableSignup,
			Value:     false,
			UpdatedAt: now,
		},
		FlagReadOnlyMode: {
			Key:       FlagReadOnlyMode,
			Value:     false,
			UpdatedAt: now,
		},
		FlagDisableLowScoreAlerts: {
			Key:       FlagDisableLowScoreAlerts,
			Value:     false,
			UpdatedAt: now,
		},
		FlagLowScoreAlertThreshold: {
			Key:       FlagLowScoreAlertThreshold,
			Value:     6.0,
			UpdatedAt: now,
		},
	}
}
