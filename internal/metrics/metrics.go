// Package metrics exposes Prometheus counters for the pipeline's
// degradation behavior. All methods are safe on a nil receiver so tests
// can pass nil without wiring a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts how often the pipeline had to degrade.
type Metrics struct {
	recommendStage   *prometheus.CounterVec
	filterRelaxation *prometheus.CounterVec
	searchBackfill   prometheus.Counter
	heroCache        *prometheus.CounterVec
}

// New registers the pipeline counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recommendStage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibelist",
			Name:      "recommend_stage_total",
			Help:      "Recommendation fallback chain stages that yielded tracks.",
		}, []string{"stage"}),
		filterRelaxation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibelist",
			Name:      "filter_relaxation_total",
			Help:      "Content filter relaxation stages applied.",
		}, []string{"stage"}),
		searchBackfill: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vibelist",
			Name:      "search_backfill_total",
			Help:      "Requests that needed the text-search backfill.",
		}),
		heroCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibelist",
			Name:      "genre_hero_cache_total",
			Help:      "Genre hero cache lookups by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.recommendStage, m.filterRelaxation, m.searchBackfill, m.heroCache)
	return m
}

// RecommendStage records the fallback stage that produced tracks.
func (m *Metrics) RecommendStage(stage string) {
	if m == nil {
		return
	}
	m.recommendStage.WithLabelValues(stage).Inc()
}

// FilterRelaxation records an applied relaxation stage.
func (m *Metrics) FilterRelaxation(stage string) {
	if m == nil {
		return
	}
	m.filterRelaxation.WithLabelValues(stage).Inc()
}

// SearchBackfill records one use of the text-search backfill.
func (m *Metrics) SearchBackfill() {
	if m == nil {
		return
	}
	m.searchBackfill.Inc()
}

// HeroCache records a genre hero cache hit or miss.
func (m *Metrics) HeroCache(outcome string) {
	if m == nil {
		return
	}
	m.heroCache.WithLabelValues(outcome).Inc()
}
