// Package synth wraps a text-to-speech provider behind a stateless gateway.
// It owns voice selection and per-character cost tables; caching is the
// segment cache's sole responsibility, which keeps this package swappable.
package synth

import "context"

// SpeechRequest describes one synthesis call.
type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	// VoiceHint optionally names a specific voice. When empty, the gateway
	// picks the highest-quality tier available for the language.
	VoiceHint string `json:"voice_hint,omitempty"`
}

// Speech is one rendered audio asset.
type Speech struct {
	URL        string  `json:"url"`
	DurationMs int64   `json:"duration_ms"`
	Cost       float64 `json:"cost"`
	Voice      string  `json:"voice"`
}

// Synthesizer renders text into an audio asset. Implementations must be
// stateless and safe for concurrent use.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (*Speech, error)
}

// RenderResult is what the provider transport hands back. DurationMs is zero
// when the provider does not report it; the gateway then estimates.
type RenderResult struct {
	URL        string
	DurationMs int64
}

// Renderer is the narrow provider transport behind the gateway.
type Renderer interface {
	Render(ctx context.Context, text string, voice Voice) (*RenderResult, error)
}
