// Package core provides core types and interfaces for the wake-call audio engine.
package core

import "time"

// SegmentType is the category of a spoken fragment. Each type has its own
// templating rules and cache lifetime.
type SegmentType string

const (
	SegmentGreeting      SegmentType = "greeting"
	SegmentWeather       SegmentType = "weather"
	SegmentHabitsSummary SegmentType = "habits_summary"
	SegmentMotivation    SegmentType = "motivation"
)

// Valid reports whether t is one of the known segment types.
func (t SegmentType) Valid() bool {
	switch t {
	case SegmentGreeting, SegmentWeather, SegmentHabitsSummary, SegmentMotivation:
		return true
	}
	return false
}

// EntitlementTier gates which segments a user's plan includes.
type EntitlementTier string

const (
	TierBasic   EntitlementTier = "basic"
	TierPremium EntitlementTier = "premium"
)

// UserProfile is the slice of the account record the engine needs.
// Owned by the external auth/billing layer.
type UserProfile struct {
	FirstName string          `json:"first_name"`
	Language  string          `json:"language"`
	Tier      EntitlementTier `json:"tier"`
}

// IncludesWeather reports whether the user's plan includes the weather segment.
func (u UserProfile) IncludesWeather() bool {
	return u.Tier == TierPremium
}

// WeatherReport is the bucketed weather snapshot fetched by the external
// weather collaborator. Temperatures are in degrees Celsius.
type WeatherReport struct {
	Temperature float64 `json:"temperature"`
	TempMax     float64 `json:"temp_max"`
	Condition   string  `json:"condition"`
}

// Habit is one due habit for today, owned by the external habit scheduler.
type Habit struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// WakeContext carries everything about the moment of one wake call.
type WakeContext struct {
	Day     time.Weekday   `json:"day"`
	Hour    int            `json:"hour"`
	Minute  int            `json:"minute"`
	Weather *WeatherReport `json:"weather,omitempty"`
	Habits  []Habit        `json:"habits,omitempty"`
}

// AudioSegment is one resolved, playable unit of a composition. It is created
// fresh per request and never persisted; the cache entry is the persisted form.
type AudioSegment struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	DurationMs  int64       `json:"duration_ms"`
	SegmentType SegmentType `json:"segment_type"`
	WasCacheHit bool        `json:"was_cache_hit"`
	// Cost is the synthesis cost incurred for this segment in this
	// composition. Zero on a cache hit.
	Cost float64 `json:"cost"`
}

// CompositeAudio is the final ordered concatenation of segments for one wake
// event. Immutable after construction and never cached: compositions are
// call-specific even when their constituent segments are shared.
type CompositeAudio struct {
	URL                string         `json:"url"`
	TotalDurationMs    int64          `json:"total_duration_ms"`
	Segments           []AudioSegment `json:"segments"`
	TotalSynthesisCost float64        `json:"total_synthesis_cost"`
}
