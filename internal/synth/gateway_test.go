package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"wakeaudio/internal/core"
)

// fixedRenderer returns a canned result or error.
type fixedRenderer struct {
	result *RenderResult
	err    error
	voice  Voice
	text   string
}

func (r *fixedRenderer) Render(_ context.Context, text string, voice Voice) (*RenderResult, error) {
	r.text = text
	r.voice = voice
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func TestGatewaySynthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		renderer := &fixedRenderer{result: &RenderResult{URL: "https://cdn/audio.mp3", DurationMs: 3200}}
		g := NewGateway(renderer, nil, nil)

		speech, err := g.Synthesize(ctx, SpeechRequest{Text: "Good morning!", Language: "en"})
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if speech.URL != "https://cdn/audio.mp3" {
			t.Errorf("expected provider url, got %q", speech.URL)
		}
		if speech.DurationMs != 3200 {
			t.Errorf("expected provider duration, got %d", speech.DurationMs)
		}
		if speech.Voice != "en-neural-amber" {
			t.Errorf("expected neural english voice, got %q", speech.Voice)
		}
		// 13 chars at the neural rate.
		if want := 13.0 / 100 * RateNeuralPer100; !floatsClose(speech.Cost, want) {
			t.Errorf("expected cost %v, got %v", want, speech.Cost)
		}
	})

	t.Run("empty text is rejected before the provider", func(t *testing.T) {
		renderer := &fixedRenderer{result: &RenderResult{URL: "https://cdn/audio.mp3"}}
		g := NewGateway(renderer, nil, nil)

		_, err := g.Synthesize(ctx, SpeechRequest{Text: "   ", Language: "en"})
		if err == nil {
			t.Fatal("expected error for empty text")
		}
		var ee *core.EngineError
		if !errors.As(err, &ee) || ee.Type != core.ErrorTypeInvalidRequest {
			t.Errorf("expected invalid_request_error, got %v", err)
		}
		if renderer.text != "" {
			t.Error("provider was called for empty text")
		}
	})

	t.Run("provider failure is a synthesis error", func(t *testing.T) {
		renderer := &fixedRenderer{err: errors.New("quota exhausted")}
		g := NewGateway(renderer, nil, nil)

		_, err := g.Synthesize(ctx, SpeechRequest{Text: "Good morning!", Language: "en"})
		var ee *core.EngineError
		if !errors.As(err, &ee) || ee.Type != core.ErrorTypeSynthesis {
			t.Errorf("expected synthesis_error, got %v", err)
		}
	})

	t.Run("missing provider duration uses the estimate", func(t *testing.T) {
		renderer := &fixedRenderer{result: &RenderResult{URL: "https://cdn/audio.mp3"}}
		g := NewGateway(renderer, nil, nil)

		text := "Good morning it is seven"
		speech, err := g.Synthesize(ctx, SpeechRequest{Text: text, Language: "en"})
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if speech.DurationMs != EstimateDurationMs(text) {
			t.Errorf("expected estimated duration %d, got %d", EstimateDurationMs(text), speech.DurationMs)
		}
	})

	t.Run("voice hint is honored for cost", func(t *testing.T) {
		renderer := &fixedRenderer{result: &RenderResult{URL: "https://cdn/audio.mp3", DurationMs: 100}}
		g := NewGateway(renderer, nil, nil)

		text := strings.Repeat("a", 100)
		speech, err := g.Synthesize(ctx, SpeechRequest{Text: text, Language: "en", VoiceHint: "en-standard-brian"})
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if !floatsClose(speech.Cost, RateStandardPer100) {
			t.Errorf("expected standard rate %v for 100 chars, got %v", RateStandardPer100, speech.Cost)
		}
	})
}

func TestEstimateDurationMs(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		text := "Good morning! It's around 7 o'clock on Tuesday."
		a := EstimateDurationMs(text)
		b := EstimateDurationMs(text)
		if a != b {
			t.Errorf("estimate not deterministic: %d vs %d", a, b)
		}
	})

	t.Run("scales with word count", func(t *testing.T) {
		// 150 words at 150 wpm is exactly one minute.
		text := strings.TrimSpace(strings.Repeat("word ", 150))
		if got := EstimateDurationMs(text); got != 60_000 {
			t.Errorf("expected 60000ms for 150 words, got %d", got)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if got := EstimateDurationMs(""); got != 0 {
			t.Errorf("expected 0 for empty text, got %d", got)
		}
	})
}

func TestCost(t *testing.T) {
	voice := Voice{ID: "v", RatePer100Chars: RateStandardPer100}
	tests := []struct {
		chars int
		want  float64
	}{
		{0, 0},
		{50, 0.0004},
		{100, 0.0008},
		{250, 0.002},
	}
	for _, tt := range tests {
		text := strings.Repeat("a", tt.chars)
		if got := Cost(text, voice); !floatsClose(got, tt.want) {
			t.Errorf("Cost(%d chars) = %v, want %v", tt.chars, got, tt.want)
		}
	}

	t.Run("multibyte text is billed per character", func(t *testing.T) {
		// 100 umlauts are 200 bytes but 100 billable characters.
		text := strings.Repeat("ä", 100)
		if got := Cost(text, voice); !floatsClose(got, RateStandardPer100) {
			t.Errorf("Cost(100 runes) = %v, want %v", got, RateStandardPer100)
		}
	})
}

func floatsClose(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-12
}
