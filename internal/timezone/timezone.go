// Package timezone converts between local wall-clock times and UTC using the
// IANA timezone database.
package timezone

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// FallbackTimezone is used until SetDefault is called.
const FallbackTimezone = "Asia/Kolkata"

// Layout renders API timestamps with second precision.
const Layout = "2006-01-02T15:04:05Z07:00"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

var (
	mu          sync.RWMutex
	defaultName = FallbackTimezone
)

// IsValid reports whether name is a recognized IANA timezone. The empty
// string and "Local" are rejected.
func IsValid(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// Default returns the configured default timezone name.
func Default() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultName
}

// SetDefault changes the default timezone used when callers pass "".
func SetDefault(name string) error {
	if !IsValid(name) {
		return fmt.Errorf("invalid timezone %q", name)
	}
	mu.Lock()
	defaultName = name
	mu.Unlock()
	return nil
}

// Location resolves name, falling back to the default zone when name is empty.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = Default()
	}
	if !IsValid(name) {
		return nil, fmt.Errorf("invalid timezone %q", name)
	}
	return time.LoadLocation(name)
}

// ToUTC re-expresses a zone-aware instant in UTC. It is the aware-input
// counterpart of WallToUTC: the instant is kept and only the location
// changes.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// WallToUTC treats the wall-clock fields of wall as local time in sourceTZ
// (its own location is ignored) and returns the matching UTC instant. The
// offset is the one in effect in sourceTZ on that date.
func WallToUTC(wall time.Time, sourceTZ string) (time.Time, error) {
	loc, err := Location(sourceTZ)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc)
	return local.UTC(), nil
}

// ParseToUTC parses an ISO-8601 timestamp. A value carrying an offset is
// converted directly; a value without one is interpreted in sourceTZ.
func ParseToUTC(s, sourceTZ string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ToUTC(t), nil
	}
	for _, layout := range naiveLayouts {
		if wall, err := time.Parse(layout, s); err == nil {
			return WallToUTC(wall, sourceTZ)
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FromUTC normalizes t to UTC and re-expresses it in targetTZ.
func FromUTC(t time.Time, targetTZ string) (time.Time, error) {
	loc, err := Location(targetTZ)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().In(loc), nil
}

// Format renders t with second precision and its zone offset.
func Format(t time.Time) string {
	return t.Truncate(time.Second).Format(Layout)
}
