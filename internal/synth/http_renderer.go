package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"wakeaudio/internal/httpclient"
)

// HTTPRendererConfig holds the provider endpoint configuration.
type HTTPRendererConfig struct {
	// BaseURL is the provider base URL; the renderer posts to
	// BaseURL + "/v1/synthesize".
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string
}

// HTTPRenderer renders speech through a JSON TTS service.
//
// Request body: {"text": ..., "voice": ..., "language": ...}
// Response body: {"audio_url": ..., "duration_ms": ...} — duration_ms is
// optional; providers that omit it get the gateway's estimate instead.
type HTTPRenderer struct {
	cfg    HTTPRendererConfig
	client *http.Client
}

// NewHTTPRenderer creates a renderer against a remote TTS service.
// If client is nil, a pooled default client is used.
func NewHTTPRenderer(cfg HTTPRendererConfig, client *http.Client) (*HTTPRenderer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tts provider base URL is required")
	}
	if client == nil {
		client = httpclient.NewDefault()
	}
	return &HTTPRenderer{cfg: cfg, client: client}, nil
}

// Render posts one synthesis request and extracts the asset fields from the
// response. Parsing is lenient: only audio_url is required.
func (r *HTTPRenderer) Render(ctx context.Context, text string, voice Voice) (*RenderResult, error) {
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"voice":    voice.ID,
		"language": voice.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.BaseURL+"/v1/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = string(body)
		}
		return nil, fmt.Errorf("tts provider returned status %d: %s", resp.StatusCode, msg)
	}

	url := gjson.GetBytes(body, "audio_url").String()
	if url == "" {
		return nil, fmt.Errorf("tts provider response missing audio_url")
	}

	return &RenderResult{
		URL:        url,
		DurationMs: gjson.GetBytes(body, "duration_ms").Int(),
	}, nil
}
