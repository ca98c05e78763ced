package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time without a date, stored as an offset from midnight.
// It marshals as "HH:MM:SS" so the backing file stays human-readable.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return NewTimeOfDay(hour, minute, second), nil
}

// String formats the time as "HH:MM:SS".
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	hour := int(d / time.Hour)
	minute := int(d % time.Hour / time.Minute)
	second := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// An empty value unmarshals as midnight so absent fields default to zero.
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*t = 0
		return nil
	}
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
