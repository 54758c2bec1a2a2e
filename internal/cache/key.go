// Package cache provides the two-tier segment cache for rendered audio.
// A fast ephemeral hot tier (in-memory or Redis) sits in front of a durable
// tier (SQLite or PostgreSQL) that is the system of record.
package cache

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"wakeaudio/internal/core"
)

// TemperatureBucketWidth is the width in degrees Celsius of a weather
// temperature bucket. Users whose forecast falls in the same bucket share
// one rendered weather segment.
const TemperatureBucketWidth = 5

// Key is the canonical fingerprint of a cached segment. It captures only the
// parameters that affect the rendered audio, deliberately coarser than the
// full personalization context so that many users reuse the same entry.
//
// Keys serialize to strings only at the storage boundary via String. The wire
// format "<type>:<lang>:<field>[:<field>...]" must remain stable across
// deployments: a format change orphans every durable entry and is effectively
// a full cache invalidation.
type Key struct {
	Type     core.SegmentType
	Language string
	Fields   []string
}

// String serializes the key for the storage boundary.
func (k Key) String() string {
	parts := make([]string, 0, 2+len(k.Fields))
	parts = append(parts, string(k.Type), k.Language)
	parts = append(parts, k.Fields...)
	return strings.Join(parts, ":")
}

// Prefix returns the invalidation prefix covering every variant of a segment
// type in a language.
func Prefix(segmentType core.SegmentType, language string) string {
	return string(segmentType) + ":" + language + ":"
}

// TypePrefix returns the invalidation prefix covering a segment type across
// all languages.
func TypePrefix(segmentType core.SegmentType) string {
	return string(segmentType) + ":"
}

// GreetingKey buckets greetings by day of week and hour. The user's name is
// deliberately absent: shipped greeting templates are name-free so a shared
// rendering never embeds one user's name.
func GreetingKey(language string, day time.Weekday, hour int) Key {
	return Key{
		Type:     core.SegmentGreeting,
		Language: language,
		Fields:   []string{dayToken(day), fmt.Sprintf("h%02d", hour)},
	}
}

// WeatherKey buckets the max temperature into TemperatureBucketWidth-degree
// ranges and pairs it with the coarse condition label. 21 and 24 degrees share
// a bucket; 21 and 26 do not.
func WeatherKey(language string, tempMax float64, condition string) Key {
	return Key{
		Type:     core.SegmentWeather,
		Language: language,
		Fields:   []string{fmt.Sprintf("t%d", TemperatureBucket(tempMax)), normalizeToken(condition)},
	}
}

// HabitsKey fingerprints the due habit set. Order does not matter: the names
// are sorted before hashing so the same set always yields the same key.
func HabitsKey(language string, habits []core.Habit) Key {
	names := make([]string, len(habits))
	for i, h := range habits {
		names[i] = strings.ToLower(strings.TrimSpace(h.Name))
	}
	sort.Strings(names)

	h := xxhash.New()
	for _, n := range names {
		_, _ = h.WriteString(n)
		_, _ = h.WriteString("\x00")
	}

	return Key{
		Type:     core.SegmentHabitsSummary,
		Language: language,
		Fields:   []string{fmt.Sprintf("n%d", len(names)), fmt.Sprintf("%016x", h.Sum64())},
	}
}

// MotivationKey keys the motivation segment by its contextual variant.
func MotivationKey(language string, variant string) Key {
	return Key{
		Type:     core.SegmentMotivation,
		Language: language,
		Fields:   []string{normalizeToken(variant)},
	}
}

// TemperatureBucket rounds a temperature down to its bucket base, so the
// bucket for 21..24 is 20 and the bucket for -3 is -5.
func TemperatureBucket(temp float64) int {
	return int(math.Floor(temp/TemperatureBucketWidth)) * TemperatureBucketWidth
}

// dayToken returns the stable three-letter day token used in keys.
func dayToken(day time.Weekday) string {
	return strings.ToLower(day.String()[:3])
}

// normalizeToken lowercases a free-form label and strips the key separator so
// ad hoc condition strings cannot corrupt the wire format.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, " ", "-")
	if s == "" {
		return "unknown"
	}
	return s
}
