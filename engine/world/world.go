package world

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hallowdale/emberfell/engine/internal/mathutil"
)

// World implements a procedurally generated open world streamed around a
// single observer. It decides which chunks should exist, generates or loads
// their manifests, attaches their content to the host's scene and drops far
// terrain again, all inside a bounded slice of each frame.
//
// A World is driven from one goroutine, the host's main loop: every method
// except Handle must be called from it, and no method spawns work that
// outlives the call. This keeps the streaming pipeline free of locks and
// makes every step reproducible.
type World struct {
	conf Config
	set  *Settings

	o sync.Once

	handler atomic.Pointer[Handler]

	gov      *governor
	cache    *chunkCache
	tracker  *regionTracker
	registry *objectRegistry

	observer      mgl64.Vec3
	observerChunk ChunkPos
	hasObserver   bool
	// regionDirty forces a region recompute on the next streaming step even
	// if the observer did not cross a chunk boundary, typically after a tier
	// change altered the effective radius.
	regionDirty bool

	lastSaturationWarn time.Time
	saturationCount    int
}

// saturationFactor is the multiple of the per-step budget the activation
// queue may reach before the world warns that streaming cannot keep up.
const saturationFactor = 8

// Handle changes the current Handler of the world. As a result, events called
// by the world will call the handlers of the Handler passed. Handle sets the
// world's Handler to NopHandler if nil is passed.
func (w *World) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	w.handler.Store(&h)
}

// Handler returns the Handler of the world.
func (w *World) Handler() Handler {
	return *w.handler.Load()
}

// Seed returns the seed all chunk generation of the world is derived from.
func (w *World) Seed() int64 {
	return w.set.Seed
}

// WorldID returns the unique identity of the world instance.
func (w *World) WorldID() uuid.UUID {
	return w.set.WorldID
}

// Tier returns the performance tier the world currently runs at.
func (w *World) Tier() Tier {
	return w.gov.Tier()
}

// CurrentTick returns the number of streaming steps the world has run.
func (w *World) CurrentTick() int64 {
	return w.set.CurrentTick
}

// Observer returns the last observer position passed to OnObserverMoved. The
// second return value is false if the observer was never placed.
func (w *World) Observer() (mgl64.Vec3, bool) {
	return w.observer, w.hasObserver
}

// Chunk returns the manifest of the chunk at the position passed, if it is
// resident in the cache.
func (w *World) Chunk(pos ChunkPos) (*ChunkManifest, bool) {
	return w.cache.Get(pos)
}

// Active checks if the chunk at the position passed is part of the live
// scene.
func (w *World) Active(pos ChunkPos) bool {
	return w.tracker.Active(pos)
}

// LoadedChunkCount returns the number of chunk manifests resident in the
// cache.
func (w *World) LoadedChunkCount() int {
	return w.cache.Len()
}

// ActiveChunkCount returns the number of chunks attached to the scene.
func (w *World) ActiveChunkCount() int {
	return w.tracker.ActiveCount()
}

// PendingActivationCount returns the number of chunks queued for activation.
func (w *World) PendingActivationCount() int {
	return w.tracker.PendingCount()
}

// SceneNodeCount returns the number of scene nodes attached across all
// active chunks.
func (w *World) SceneNodeCount() int {
	return w.registry.InstanceCount()
}

// OnObserverMoved runs one streaming step for the observer position passed.
// If the observer crossed a chunk boundary since the last step, the desired
// region is recomputed: chunks that left it are detached from the scene
// immediately and chunks that entered it are queued. The step then activates
// queued chunks up to the per-step budget, nearest first. Activation work
// left over stays queued for the following steps, so a fast-moving observer
// costs bounded time per frame.
func (w *World) OnObserverMoved(pos mgl64.Vec3) {
	centre := chunkPosFromVec3(pos)
	w.observer = pos

	if !w.hasObserver || centre != w.observerChunk || w.regionDirty {
		w.hasObserver = true
		w.observerChunk = centre
		w.regionDirty = false

		radius := w.effectiveRadius()
		w.cache.SetCeiling(w.effectiveCeiling(radius), centre)
		for _, p := range w.tracker.Recompute(centre, radius) {
			w.deactivateChunk(p)
		}
	}

	w.set.CurrentTick++
	w.activatePending(w.effectiveBudget())
	w.conf.Metrics.Observe(w.tracker.ActiveCount(), w.cache.Len(), w.tracker.PendingCount(), w.registry.InstanceCount())
}

// Sample feeds one frame time and memory usage measurement to the
// performance governor and returns the tier the world runs at afterwards.
// Hosts call it once per frame, after OnObserverMoved. A tier change takes
// effect on the next streaming step.
func (w *World) Sample(frameTime time.Duration, memoryMB float64) Tier {
	before, after := w.gov.Sample(frameTime, memoryMB)
	if before != after {
		w.conf.Log.Debug("performance tier changed", "before", before.String(), "after", after.String())
		w.conf.Metrics.SetTier(after)
		w.regionDirty = true
		w.Handler().HandleTierChange(before, after)
	}
	return after
}

// activatePending activates up to budget queued chunks, nearest first.
func (w *World) activatePending(budget int) {
	for i := 0; i < budget; i++ {
		pos, ok := w.tracker.Next()
		if !ok {
			return
		}
		m := w.chunkFor(pos)
		w.tracker.MarkActive(pos)
		w.registry.Activate(pos, m)
		w.Handler().HandleChunkActivate(pos, m)
	}
	if w.tracker.PendingCount() > budget*saturationFactor {
		w.warnSaturation(budget)
	}
}

// chunkFor returns the manifest of the chunk at the position passed, loading
// or generating it if it is not resident. The manifest is cached before it is
// returned. chunkFor never fails: a broken provider or generator degrades to
// a flat chunk so the region around the observer always fills in.
func (w *World) chunkFor(pos ChunkPos) *ChunkManifest {
	if m, ok := w.cache.Get(pos); ok {
		return m
	}
	m, err := w.conf.Provider.LoadChunk(pos)
	switch {
	case err == nil:
		w.conf.Metrics.ChunkLoaded()
	case errors.Is(err, ErrChunkNotFound):
		m = w.generate(pos)
	default:
		w.conf.Log.Error("load chunk: "+err.Error(), "X", pos[0], "Z", pos[1])
		m = w.generate(pos)
	}
	w.cache.Put(pos, m, w.observerChunk)
	return m
}

// generate builds the manifest of the chunk at the position passed from the
// world seed. A generator panic or a malformed manifest is logged and
// replaced by a flat chunk, so one bad chunk cannot take the session down.
func (w *World) generate(pos ChunkPos) (m *ChunkManifest) {
	defer func() {
		if r := recover(); r != nil {
			w.conf.Log.Error(
				"generate chunk: panic",
				"error", fmt.Sprint(r),
				"X", pos[0],
				"Z", pos[1],
			)
			m = FlatManifest(pos)
		}
	}()
	m = w.conf.Generator.GenerateChunk(pos)
	if m == nil || m.Pos != pos || len(m.Heights) != HeightSampleCount {
		w.conf.Log.Error("generate chunk: malformed manifest", "X", pos[0], "Z", pos[1])
		m = FlatManifest(pos)
	}
	w.conf.Metrics.ChunkGenerated()
	w.Handler().HandleChunkGenerate(pos)
	return m
}

// deactivateChunk detaches the scene content of the chunk at the position
// passed. The manifest stays cached, so the chunk reactivates without
// generation work if the observer returns.
func (w *World) deactivateChunk(pos ChunkPos) {
	if w.registry.Deactivate(pos) > 0 {
		w.Handler().HandleChunkDeactivate(pos)
	}
}

// tearDownChunk is called by the cache right before a chunk is evicted. The
// chunk's scene content is detached synchronously and the manifest is stored
// to the provider, so eviction never loses state and never leaves orphaned
// scene nodes behind.
func (w *World) tearDownChunk(pos ChunkPos, m *ChunkManifest) {
	if w.registry.Active(pos) {
		w.deactivateChunk(pos)
	}
	w.tracker.Forget(pos)
	w.saveChunk(pos, m)
	w.conf.Metrics.ChunkEvicted()
	w.Handler().HandleChunkEvict(pos)
}

// saveChunk stores the manifest of the chunk at the position passed to the
// provider, unless the world is read-only.
func (w *World) saveChunk(pos ChunkPos, m *ChunkManifest) {
	if w.conf.ReadOnly {
		return
	}
	if err := w.conf.Provider.StoreChunk(pos, m); err != nil {
		w.conf.Log.Error("save chunk: "+err.Error(), "X", pos[0], "Z", pos[1])
	}
}

// Save saves all resident chunks and the settings of the world to the
// provider.
func (w *World) Save() {
	if w.conf.ReadOnly {
		return
	}
	w.conf.Log.Debug("Saving chunks in memory to disk...")
	for pos, m := range w.cache.All() {
		w.saveChunk(pos, m)
	}
	w.conf.Log.Debug("Updating world settings...")
	w.set.LastSave = w.observer
	w.conf.Provider.SaveSettings(w.set)
}

// Close closes the world. It detaches all remaining scene content, saves all
// resident chunks and closes the provider. Close always returns nil and may
// be called multiple times, but no other methods may be called after it.
func (w *World) Close() error {
	w.o.Do(w.close)
	return nil
}

func (w *World) close() {
	// A negative radius yields an empty desired region, so every active
	// chunk comes back for deactivation and the queue empties.
	for _, p := range w.tracker.Recompute(w.observerChunk, -1) {
		w.deactivateChunk(p)
	}
	w.Save()
	w.conf.Log.Debug("Closing provider...")
	if err := w.conf.Provider.Close(); err != nil {
		w.conf.Log.Error("close world provider: " + err.Error())
	}
}

// warnSaturation emits a throttled warning when the activation queue grows
// far beyond the per-step budget, which means streaming cannot keep up with
// observer movement at the current tier.
func (w *World) warnSaturation(budget int) {
	w.saturationCount++
	if now := time.Now(); now.Sub(w.lastSaturationWarn) > time.Minute {
		w.lastSaturationWarn = now
		w.conf.Log.Warn(
			"chunk activation queue saturated: streaming backlog detected.",
			"queued", w.tracker.PendingCount(),
			"budget", budget,
			"tier", w.gov.Tier().String(),
			"occurrences", w.saturationCount,
		)
		w.saturationCount = 0
	}
}

// relevance returns the host-provided relevance multiplier, clamped to a
// sane range.
func (w *World) relevance() float64 {
	if w.conf.RelevanceScale == nil {
		return 1
	}
	return mathutil.Clamp(w.conf.RelevanceScale(), 0.25, 2)
}

// effectiveRadius returns the streaming radius in chunks after tier and
// relevance scaling.
func (w *World) effectiveRadius() int32 {
	r := int(math.Round(float64(w.conf.StreamRadius) * w.gov.Tier().RadiusScale() * w.relevance()))
	return int32(mathutil.Clamp(r, 1, 2*w.conf.StreamRadius))
}

// effectiveBudget returns the per-step activation budget after tier scaling.
func (w *World) effectiveBudget() int {
	b := int(math.Round(float64(w.conf.ChunksPerStep) * w.gov.Tier().BudgetScale()))
	return mathutil.Clamp(b, 1, 4*w.conf.ChunksPerStep)
}

// effectiveCeiling returns the cache ceiling after tier and relevance
// scaling. Tier scaling never pushes the ceiling under the area of the
// desired region, so a tier drop does not evict the chunks under the
// observer's feet. A configured ceiling smaller than the region is honoured
// as-is: memory stays bounded and the region simply stops filling in.
func (w *World) effectiveCeiling(radius int32) int {
	area := int(2*radius+1) * int(2*radius+1)
	c := int(math.Round(float64(w.conf.CacheCeiling) * w.gov.Tier().CeilingScale() * w.relevance()))
	return mathutil.Clamp(c, min(area, w.conf.CacheCeiling), 2*w.conf.CacheCeiling)
}
