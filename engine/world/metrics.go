package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes streaming counters and gauges as Prometheus collectors.
// A nil *Metrics is valid and records nothing, so worlds without a metrics
// registry skip all bookkeeping.
type Metrics struct {
	chunksGenerated prometheus.Counter
	chunksLoaded    prometheus.Counter
	chunksRestored  prometheus.Counter
	chunksEvicted   prometheus.Counter

	activeChunks  prometheus.Gauge
	cachedChunks  prometheus.Gauge
	pendingChunks prometheus.Gauge
	sceneNodes    prometheus.Gauge
	tier          prometheus.Gauge
}

// NewMetrics creates the world metrics and registers them with reg. If reg is
// nil the collectors are created but not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		chunksGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "chunks_generated_total",
			Help: "Number of chunk manifests generated from the seed.",
		}),
		chunksLoaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "chunks_loaded_total",
			Help: "Number of chunk manifests loaded from the provider.",
		}),
		chunksRestored: f.NewCounter(prometheus.CounterOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "chunks_restored_total",
			Help: "Number of chunk manifests restored from a surroundings snapshot.",
		}),
		chunksEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "chunks_evicted_total",
			Help: "Number of chunk manifests evicted from the cache.",
		}),
		activeChunks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "active_chunks",
			Help: "Number of chunks currently attached to the scene.",
		}),
		cachedChunks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "cached_chunks",
			Help: "Number of chunk manifests resident in the cache.",
		}),
		pendingChunks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "pending_chunks",
			Help: "Number of chunks queued for activation.",
		}),
		sceneNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "scene_nodes",
			Help: "Number of scene nodes attached across all active chunks.",
		}),
		tier: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "emberfell", Subsystem: "world", Name: "performance_tier",
			Help: "Current performance tier, from 0 (minimal) to 4 (ultra).",
		}),
	}
}

// ChunkGenerated counts a chunk generated from the seed.
func (m *Metrics) ChunkGenerated() {
	if m == nil {
		return
	}
	m.chunksGenerated.Inc()
}

// ChunkLoaded counts a chunk loaded from the provider.
func (m *Metrics) ChunkLoaded() {
	if m == nil {
		return
	}
	m.chunksLoaded.Inc()
}

// ChunkRestored counts a chunk restored from a surroundings snapshot.
func (m *Metrics) ChunkRestored() {
	if m == nil {
		return
	}
	m.chunksRestored.Inc()
}

// ChunkEvicted counts a chunk evicted from the cache.
func (m *Metrics) ChunkEvicted() {
	if m == nil {
		return
	}
	m.chunksEvicted.Inc()
}

// Observe stores the current streaming gauges.
func (m *Metrics) Observe(active, cached, pending, nodes int) {
	if m == nil {
		return
	}
	m.activeChunks.Set(float64(active))
	m.cachedChunks.Set(float64(cached))
	m.pendingChunks.Set(float64(pending))
	m.sceneNodes.Set(float64(nodes))
}

// SetTier stores the current performance tier.
func (m *Metrics) SetTier(t Tier) {
	if m == nil {
		return
	}
	m.tier.Set(float64(t))
}
