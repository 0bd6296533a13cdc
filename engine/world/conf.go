package world

import (
	"log/slog"
)

// Config may be used to create a new World. It holds a variety of fields that
// influence the World.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages
	// to. If set to nil, Log is set to slog.Default().
	Log *slog.Logger
	// Seed is the seed of the World. All chunk generation is derived from it
	// deterministically. If the Provider holds a previously stored seed,
	// that seed takes precedence over Seed.
	Seed int64
	// Generator is the Generator implementation used to build the manifests
	// of chunks never generated before. If set to nil, Generator is set to
	// NopGenerator, which produces flat, empty chunks.
	Generator Generator
	// Provider is the Provider implementation used to read and write chunk
	// manifests and world settings. If set to nil, Provider is set to
	// NopProvider, which does not store anything: all chunks are then
	// regenerated from the seed every session.
	Provider Provider
	// Scene is the Scene implementation the world attaches chunk content to.
	// If set to nil, Scene is set to NopScene.
	Scene Scene
	// Metrics collects streaming counters and gauges. If set to nil, no
	// metrics are recorded.
	Metrics *Metrics
	// StreamRadius is the radius, in chunks, of the desired region around
	// the observer at the balanced tier. The governor scales the effective
	// radius with the performance tier. Defaults to 4.
	StreamRadius int
	// ChunksPerStep is the maximum number of chunk activations performed in
	// a single streaming step at the balanced tier. Defaults to 4.
	ChunksPerStep int
	// CacheCeiling is the maximum number of chunk manifests kept in memory
	// at the balanced tier. Defaults to 256.
	CacheCeiling int
	// SnapshotRadius is the radius, in chunks, around the observer included
	// in a surroundings snapshot. Defaults to 5.
	SnapshotRadius int
	// ReadOnly specifies if the World should be read-only, not storing any
	// chunks or settings to the Provider.
	ReadOnly bool
	// RelevanceScale, if set, is polled for an additional multiplier applied
	// to the effective streaming radius and cache ceiling. Hosts use it to
	// shrink the streamed region when the world is not the player's focus,
	// for example during cutscenes or menus. Returned values are clamped to
	// the range [0.25, 2].
	RelevanceScale func() float64
	// Governor holds the tuning of the performance governor. Zero values are
	// replaced by defaults.
	Governor GovernorConfig
}

// New creates a World using the Config conf. The World may be used right
// away. OnObserverMoved drives all streaming work; until it is called for the
// first time no chunks are generated or activated.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	if conf.Scene == nil {
		conf.Scene = NopScene{}
	}
	if conf.StreamRadius <= 0 {
		conf.StreamRadius = 4
	}
	if conf.ChunksPerStep <= 0 {
		conf.ChunksPerStep = 4
	}
	if conf.CacheCeiling <= 0 {
		conf.CacheCeiling = 256
	}
	if conf.SnapshotRadius <= 0 {
		conf.SnapshotRadius = 5
	}

	set := defaultSettings()
	set.Seed = conf.Seed
	conf.Provider.Settings(set)
	if set.Seed != conf.Seed {
		conf.Log.Debug("world seed loaded from provider", "seed", set.Seed)
	}

	w := &World{
		conf:     conf,
		set:      set,
		gov:      newGovernor(conf.Governor),
		tracker:  newRegionTracker(),
		registry: newObjectRegistry(conf.Scene),
	}
	w.cache = newChunkCache(conf.CacheCeiling, conf.Log, w.tearDownChunk)
	var h Handler = NopHandler{}
	w.handler.Store(&h)
	conf.Metrics.SetTier(w.gov.Tier())
	return w
}
