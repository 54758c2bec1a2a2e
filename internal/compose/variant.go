package compose

import "time"

// Motivation variants. Each variant caches as its own rendering.
const (
	VariantStandard = "standard"
	VariantWeekend  = "weekend"
	VariantMonday   = "monday"
	VariantFriday   = "friday"
	VariantEarly    = "early"
	VariantLate     = "late"
)

// MotivationVariant selects the motivation variant for a wake moment.
// Rules are evaluated in priority order, first match wins: day-of-week rules
// beat hour-of-day rules, so Monday 05:00 is "monday", not "early".
func MotivationVariant(day time.Weekday, hour int) string {
	switch {
	case day == time.Saturday || day == time.Sunday:
		return VariantWeekend
	case day == time.Monday:
		return VariantMonday
	case day == time.Friday:
		return VariantFriday
	case hour < 6:
		return VariantEarly
	case hour > 8:
		return VariantLate
	default:
		return VariantStandard
	}
}
