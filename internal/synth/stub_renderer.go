package synth

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// StubRenderer produces deterministic asset URLs without calling a provider.
// Used for local development and tests: the same text and voice always yield
// the same URL, and no duration is reported so the gateway's estimate kicks in.
type StubRenderer struct{}

// NewStubRenderer creates a stub renderer.
func NewStubRenderer() *StubRenderer {
	return &StubRenderer{}
}

// Render returns a synthetic audio URL derived from the input.
func (r *StubRenderer) Render(_ context.Context, text string, voice Voice) (*RenderResult, error) {
	h := xxhash.New()
	_, _ = h.WriteString(voice.ID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(text)

	return &RenderResult{
		URL: fmt.Sprintf("stub://audio/%s/%016x.mp3", voice.ID, h.Sum64()),
	}, nil
}
