package synth

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"wakeaudio/internal/core"
)

// wordsPerMinute is the narration speed assumed when the provider does not
// report a duration. Fixed so the estimate is deterministic.
const wordsPerMinute = 150

// Gateway implements Synthesizer over a provider Renderer. It holds no cache
// and no mutable state beyond its configuration.
type Gateway struct {
	renderer Renderer
	catalog  []Voice
	logger   *slog.Logger
}

// NewGateway creates a synthesis gateway. A nil catalog uses DefaultVoices.
func NewGateway(renderer Renderer, catalog []Voice, logger *slog.Logger) *Gateway {
	if catalog == nil {
		catalog = DefaultVoices
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{renderer: renderer, catalog: catalog, logger: logger}
}

// Synthesize renders text with the selected voice and reports the incurred
// cost back to the caller. Cost is character count at the voice's
// per-100-character rate.
func (g *Gateway) Synthesize(ctx context.Context, req SpeechRequest) (*Speech, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, core.NewInvalidRequestError("synthesis text is empty", nil)
	}

	voice, ok := SelectVoice(g.catalog, req.Language, req.VoiceHint)
	if !ok {
		return nil, core.NewSynthesisError("voice catalog is empty", nil)
	}

	started := time.Now()
	result, err := g.renderer.Render(ctx, req.Text, voice)
	if err != nil {
		return nil, core.NewSynthesisError("provider render failed", err)
	}

	durationMs := result.DurationMs
	if durationMs <= 0 {
		durationMs = EstimateDurationMs(req.Text)
	}

	cost := Cost(req.Text, voice)

	g.logger.Debug("synthesized speech",
		"voice", voice.ID,
		"chars", utf8.RuneCountInString(req.Text),
		"duration_ms", durationMs,
		"cost", cost,
		"took", time.Since(started).String(),
	)

	return &Speech{
		URL:        result.URL,
		DurationMs: durationMs,
		Cost:       cost,
		Voice:      voice.ID,
	}, nil
}

// Cost computes the synthesis cost of text at the voice's rate. Providers
// bill characters, not bytes, so multibyte text counts runes.
func Cost(text string, voice Voice) float64 {
	return float64(utf8.RuneCountInString(text)) / 100 * voice.RatePer100Chars
}

// EstimateDurationMs estimates spoken duration from word count at a fixed
// words-per-minute speed. Deterministic for a given text.
func EstimateDurationMs(text string) int64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int64(float64(words) / wordsPerMinute * 60_000)
}
