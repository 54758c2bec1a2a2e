package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"wakeaudio/internal/core"
)

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := NewPrometheusHooks(reg)

	hooks.SegmentResolved(core.SegmentGreeting, false, 0.0008)
	hooks.SegmentResolved(core.SegmentGreeting, true, 0)
	hooks.SegmentResolved(core.SegmentMotivation, false, 0.0016)
	hooks.CompositionFinished(false)
	hooks.CompositionFinished(true)

	if got := testutil.ToFloat64(hooks.cacheHits.WithLabelValues("greeting")); got != 1 {
		t.Errorf("expected 1 greeting hit, got %v", got)
	}
	if got := testutil.ToFloat64(hooks.cacheMisses.WithLabelValues("greeting")); got != 1 {
		t.Errorf("expected 1 greeting miss, got %v", got)
	}
	if got := testutil.ToFloat64(hooks.synthesisCost); got < 0.00239 || got > 0.00241 {
		t.Errorf("expected cost 0.0024, got %v", got)
	}
	if got := testutil.ToFloat64(hooks.compositions); got != 1 {
		t.Errorf("expected 1 completed composition, got %v", got)
	}
	if got := testutil.ToFloat64(hooks.failures); got != 1 {
		t.Errorf("expected 1 failed composition, got %v", got)
	}

	// Metric names are part of the dashboard contract.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{
		"wakeaudio_segment_cache_hits_total",
		"wakeaudio_segment_cache_misses_total",
		"wakeaudio_synthesis_cost_total",
		"wakeaudio_compositions_total",
		"wakeaudio_composition_failures_total",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("metric %s not registered (got %s)", want, joined)
		}
	}
}
