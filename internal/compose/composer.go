// Package compose turns a user profile and a wake context into one composite
// spoken message, resolving each segment through the segment cache and
// falling back to the synthesis gateway on miss.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"wakeaudio/internal/cache"
	"wakeaudio/internal/core"
	"wakeaudio/internal/synth"
)

// Hooks receives composition events for observability. Implementations must
// be safe for concurrent use.
type Hooks interface {
	SegmentResolved(segmentType core.SegmentType, cacheHit bool, cost float64)
	CompositionFinished(failed bool)
}

type nopHooks struct{}

func (nopHooks) SegmentResolved(core.SegmentType, bool, float64) {}
func (nopHooks) CompositionFinished(bool)                        {}

// Composer runs the linear composition pipeline. It holds no per-request
// state: concurrent compositions share only the segment cache, which owns
// its own synchronization.
type Composer struct {
	cache     *cache.SegmentCache
	synth     synth.Synthesizer
	templates TemplateProvider
	hooks     Hooks
	logger    *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithHooks attaches observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(c *Composer) {
		if hooks != nil {
			c.hooks = hooks
		}
	}
}

// WithLogger overrides the composer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Composer. Cache and synthesizer are required; a nil template
// provider uses the shipped in-memory tables.
func New(segmentCache *cache.SegmentCache, synthesizer synth.Synthesizer, templates TemplateProvider, opts ...Option) (*Composer, error) {
	if segmentCache == nil {
		return nil, fmt.Errorf("segment cache is required")
	}
	if synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if templates == nil {
		templates = NewMemoryTemplates()
	}

	c := &Composer{
		cache:     segmentCache,
		synth:     synthesizer,
		templates: templates,
		hooks:     nopHooks{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// plannedSegment is one step of the pipeline: a segment type with its derived
// cache key, template variant and interpolation variables.
type plannedSegment struct {
	Type    core.SegmentType
	Key     cache.Key
	Variant string
	Vars    map[string]string
	TTL     string
}

// Compose resolves all required segments for the wake moment and assembles
// them in order. Total cost counts misses only: cache hits contribute zero
// marginal synthesis cost. A composition either fully succeeds or fails with
// a SegmentUnavailableError; it never returns partial audio.
//
// Compose is not transactional under cancellation: a segment synthesized
// before the context was cancelled stays in the cache, which is desirable
// since the work is not wasted.
func (c *Composer) Compose(ctx context.Context, user core.UserProfile, wake core.WakeContext) (*core.CompositeAudio, error) {
	if wake.Hour < 0 || wake.Hour > 23 || wake.Minute < 0 || wake.Minute > 59 {
		return nil, core.NewInvalidRequestError(
			fmt.Sprintf("invalid wake time %02d:%02d", wake.Hour, wake.Minute), nil)
	}

	language := normalizeLanguage(user.Language)
	if language == "" {
		language = DefaultLanguage
	}

	plan := c.plan(language, user, wake)

	composite := &core.CompositeAudio{
		URL:      "composite://" + uuid.NewString(),
		Segments: make([]core.AudioSegment, 0, len(plan)),
	}

	for _, p := range plan {
		segment, err := c.resolve(ctx, language, p)
		if err != nil {
			c.hooks.CompositionFinished(true)
			return nil, err
		}
		c.hooks.SegmentResolved(segment.SegmentType, segment.WasCacheHit, segment.Cost)

		composite.Segments = append(composite.Segments, segment)
		composite.TotalDurationMs += segment.DurationMs
		composite.TotalSynthesisCost += segment.Cost
	}

	c.hooks.CompositionFinished(false)
	c.logger.Info("composed wake message",
		"language", language,
		"segments", len(composite.Segments),
		"duration_ms", composite.TotalDurationMs,
		"cost", composite.TotalSynthesisCost,
	)

	return composite, nil
}

// plan resolves the ordered segment list for this context: greeting always,
// weather only with entitlement and data, habits only when due, motivation
// always last.
func (c *Composer) plan(language string, user core.UserProfile, wake core.WakeContext) []plannedSegment {
	day := dayName(language, int(wake.Day))
	plan := []plannedSegment{{
		Type:    core.SegmentGreeting,
		Key:     cache.GreetingKey(language, wake.Day, wake.Hour),
		Variant: fmt.Sprintf("%s-h%02d", strings.ToLower(wake.Day.String()[:3]), wake.Hour),
		Vars: map[string]string{
			"name": user.FirstName,
			"time": timeLabel(language, wake.Hour),
			"day":  day,
		},
		TTL: cache.DefaultTTL(core.SegmentGreeting),
	}}

	if user.IncludesWeather() && wake.Weather != nil {
		w := wake.Weather
		plan = append(plan, plannedSegment{
			Type:    core.SegmentWeather,
			Key:     cache.WeatherKey(language, w.TempMax, w.Condition),
			Variant: w.Condition,
			Vars: map[string]string{
				"condition": w.Condition,
				"tempMax":   strconv.Itoa(cache.TemperatureBucket(w.TempMax)),
			},
			TTL: cache.DefaultTTL(core.SegmentWeather),
		})
	}

	if len(wake.Habits) > 0 {
		names := make([]string, len(wake.Habits))
		for i, h := range wake.Habits {
			names[i] = h.Name
		}
		plan = append(plan, plannedSegment{
			Type:    core.SegmentHabitsSummary,
			Key:     cache.HabitsKey(language, wake.Habits),
			Variant: fmt.Sprintf("%d habits", len(names)),
			Vars: map[string]string{
				"count":  strconv.Itoa(len(names)),
				"habits": strings.Join(names, ", "),
			},
			TTL: cache.DefaultTTL(core.SegmentHabitsSummary),
		})
	}

	variant := MotivationVariant(wake.Day, wake.Hour)
	plan = append(plan, plannedSegment{
		Type:    core.SegmentMotivation,
		Key:     cache.MotivationKey(language, variant),
		Variant: variant,
		Vars:    map[string]string{"name": user.FirstName, "day": day},
		TTL:     cache.DefaultTTL(core.SegmentMotivation),
	})

	return plan
}

// resolve returns the playable segment for one plan step: cache hit, or
// render-synthesize-populate on miss.
func (c *Composer) resolve(ctx context.Context, language string, p plannedSegment) (core.AudioSegment, error) {
	entry, found, err := c.cache.Get(ctx, p.Key)
	if err != nil {
		return core.AudioSegment{}, core.NewSegmentUnavailableError(p.Type, err)
	}
	if found {
		return core.AudioSegment{
			ID:          uuid.NewString(),
			URL:         entry.AudioURL,
			DurationMs:  int64(math.Round(entry.DurationSeconds * 1000)),
			SegmentType: p.Type,
			WasCacheHit: true,
		}, nil
	}

	text, err := c.renderText(language, p)
	if err != nil {
		return core.AudioSegment{}, core.NewSegmentUnavailableError(p.Type, err)
	}

	speech, err := c.synth.Synthesize(ctx, synth.SpeechRequest{Text: text, Language: language})
	if err != nil {
		return core.AudioSegment{}, core.NewSegmentUnavailableError(p.Type, err)
	}

	newEntry := &cache.Entry{
		AudioURL:        speech.URL,
		DurationSeconds: float64(speech.DurationMs) / 1000,
		SourceText:      text,
		Language:        language,
		SegmentType:     p.Type,
		Variant:         p.Variant,
		SynthesisCost:   speech.Cost,
		UsageCount:      1,
	}
	if err := c.cache.Set(ctx, p.Key, newEntry, p.TTL); err != nil {
		return core.AudioSegment{}, core.NewSegmentUnavailableError(p.Type, err)
	}

	return core.AudioSegment{
		ID:          uuid.NewString(),
		URL:         speech.URL,
		DurationMs:  speech.DurationMs,
		SegmentType: p.Type,
		WasCacheHit: false,
		Cost:        speech.Cost,
	}, nil
}

// renderText looks up the segment template, falling back to the default
// language, and interpolates the plan variables.
func (c *Composer) renderText(language string, p plannedSegment) (string, error) {
	variant := p.Variant
	if p.Type != core.SegmentMotivation {
		variant = variantDefault
	}

	tmpl, ok := c.templates.Lookup(p.Type, language, variant)
	if !ok && language != DefaultLanguage {
		tmpl, ok = c.templates.Lookup(p.Type, DefaultLanguage, variant)
	}
	if !ok {
		return "", core.NewTemplateGapError(p.Type, language)
	}

	return RenderTemplate(tmpl, p.Vars), nil
}
