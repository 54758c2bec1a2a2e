package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wakeaudio/internal/core"
)

// Default logical lifetimes per segment type. Policy, not mechanism: callers
// may override per deployment, but these match how often the underlying
// content actually changes.
const (
	TTLGreeting      = "30 days"
	TTLMotivation    = "30 days"
	TTLWeather       = "7 days"
	TTLHabitsSummary = "1 day"
)

// DefaultTTL returns the logical TTL string for a segment type.
func DefaultTTL(segmentType core.SegmentType) string {
	switch segmentType {
	case core.SegmentWeather:
		return TTLWeather
	case core.SegmentHabitsSummary:
		return TTLHabitsSummary
	default:
		return TTLGreeting
	}
}

// ParseTTL converts a domain TTL string like "7 days", "30 days", "12 hours"
// or "1 month" into a duration. Only whitelisted units are accepted; the
// conversion is exact (a month is 30 days).
func ParseTTL(ttl string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(ttl)))
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid ttl %q: expected \"<count> <unit>\"", ttl)
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid ttl count %q: %w", fields[0], err)
	}
	if count <= 0 {
		return 0, fmt.Errorf("invalid ttl count %d: must be positive", count)
	}

	var unit time.Duration
	switch strings.TrimSuffix(fields[1], "s") {
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid ttl unit %q: allowed units are hours, days, months", fields[1])
	}

	return time.Duration(count) * unit, nil
}
