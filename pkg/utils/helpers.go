package utils

import (
	"strings"
	"time"
)

// ParseDuration safely parses a duration string like "30s", falling back to
// def when d is empty or invalid.
func ParseDuration(d string, def time.Duration) time.Duration {
	d = strings.TrimSpace(d)
	if d == "" {
		return def
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}
