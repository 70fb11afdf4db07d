package main

import (
	"fmt"
	"strings"
	"time"
)

// ParseDropTime parses user-friendly drop time formats into time.Time.
// Supported (all assumed to be UTC):
//   - "2026-02-14 10:00"          (YYYY-MM-DD HH:MM)
//   - "2026-02-14T10:00:00Z"      (RFC3339)
//   - "2026-02-14 10:00 UTC"      (YYYY-MM-DD HH:MM UTC)
//   - "2026-02-14 10:00:00"       (YYYY-MM-DD HH:MM:SS)
//   - "10:00"                     (HH:MM, next occurrence)
func ParseDropTime(timeStr string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	timeStr = strings.TrimSuffix(timeStr, " UTC")
	timeStr = strings.TrimSuffix(timeStr, "UTC")
	timeStr = strings.TrimSpace(timeStr)

	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t, nil
	}

	if t, err := time.Parse("2006-01-02 15:04", timeStr); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
	}

	if t, err := time.Parse("2006-01-02 15:04:05", timeStr); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
	}

	// Bare clock time: the next time that wall clock comes around in UTC.
	if t, err := time.Parse("15:04", timeStr); err == nil {
		now := time.Now().UTC()
		drop := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		if !drop.After(now) {
			drop = drop.Add(24 * time.Hour)
		}
		return drop, nil
	}

	return time.Time{}, fmt.Errorf("invalid time format '%s'. Use format: YYYY-MM-DD HH:MM (e.g., 2026-02-14 10:00). Time is assumed to be UTC", timeStr)
}
