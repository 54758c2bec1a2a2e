// Package observability provides Prometheus metrics for the audio engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wakeaudio/internal/core"
)

// PrometheusHooks implements compose.Hooks, recording cache effectiveness and
// synthesis spend per segment type.
type PrometheusHooks struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	synthesisCost prometheus.Counter
	compositions  prometheus.Counter
	failures      prometheus.Counter
}

// NewPrometheusHooks registers the engine metrics on the given registerer.
// A nil registerer uses the default registry.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusHooks{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wakeaudio_segment_cache_hits_total",
			Help: "Segment cache hits by segment type.",
		}, []string{"segment_type"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wakeaudio_segment_cache_misses_total",
			Help: "Segment cache misses (paid synthesis calls) by segment type.",
		}, []string{"segment_type"}),
		synthesisCost: factory.NewCounter(prometheus.CounterOpts{
			Name: "wakeaudio_synthesis_cost_total",
			Help: "Cumulative synthesis spend across all compositions.",
		}),
		compositions: factory.NewCounter(prometheus.CounterOpts{
			Name: "wakeaudio_compositions_total",
			Help: "Completed compositions.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "wakeaudio_composition_failures_total",
			Help: "Compositions that failed with an unavailable segment.",
		}),
	}
}

// SegmentResolved records one segment resolution.
func (h *PrometheusHooks) SegmentResolved(segmentType core.SegmentType, cacheHit bool, cost float64) {
	if cacheHit {
		h.cacheHits.WithLabelValues(string(segmentType)).Inc()
	} else {
		h.cacheMisses.WithLabelValues(string(segmentType)).Inc()
		h.synthesisCost.Add(cost)
	}
}

// CompositionFinished records one composition outcome.
func (h *PrometheusHooks) CompositionFinished(failed bool) {
	if failed {
		h.failures.Inc()
	} else {
		h.compositions.Inc()
	}
}
