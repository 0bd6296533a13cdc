package world_test

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hallowdale/emberfell/engine/world"
	"github.com/hallowdale/emberfell/engine/world/terra"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// trackingGenerator wraps a Generator and counts how many chunks it was asked
// to generate.
type trackingGenerator struct {
	gen   world.Generator
	calls int
}

func (g *trackingGenerator) GenerateChunk(pos world.ChunkPos) *world.ChunkManifest {
	g.calls++
	return g.gen.GenerateChunk(pos)
}

// streamedWorld creates a terra-generated world and runs one streaming step
// with a budget large enough to activate the whole region.
func streamedWorld(t *testing.T, seed int64) *world.World {
	w := world.Config{
		Log:           testLogger(),
		Seed:          seed,
		Generator:     terra.New(seed),
		StreamRadius:  2,
		ChunksPerStep: 25,
	}.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})
	w.OnObserverMoved(mgl64.Vec3{32, 0, 32})
	return w
}

// TestTerraWorldsWithEqualSeedsMatch ensures two worlds created from the same
// seed stream identical chunk manifests through the full pipeline.
func TestTerraWorldsWithEqualSeedsMatch(t *testing.T) {
	a := streamedWorld(t, 42)
	b := streamedWorld(t, 42)

	for _, pos := range []world.ChunkPos{{0, 0}, {-1, 2}, {2, -2}} {
		ma, ok := a.Chunk(pos)
		if !ok {
			t.Fatalf("chunk %v not resident in the first world", pos)
		}
		mb, ok := b.Chunk(pos)
		if !ok {
			t.Fatalf("chunk %v not resident in the second world", pos)
		}
		if !reflect.DeepEqual(ma, mb) {
			t.Fatalf("chunk %v differs between two worlds with the same seed", pos)
		}
	}

	c := streamedWorld(t, 43)
	ma, _ := a.Chunk(world.ChunkPos{0, 0})
	mc, ok := c.Chunk(world.ChunkPos{0, 0})
	if !ok {
		t.Fatalf("chunk {0 0} not resident in the third world")
	}
	if reflect.DeepEqual(ma.Heights, mc.Heights) {
		t.Fatalf("chunk {0 0} is identical across different seeds")
	}
}

// TestSnapshotRoundTrip ensures a surroundings snapshot restores into a fresh
// world with the same seed, leaves the restored chunks inactive and spares the
// next streaming step all generation work.
func TestSnapshotRoundTrip(t *testing.T) {
	a := streamedWorld(t, 42)
	blob, err := a.SaveSnapshot()
	if err != nil {
		t.Fatalf("failed saving snapshot: %v", err)
	}
	if len(blob) == 0 {
		t.Fatalf("snapshot blob is empty")
	}

	gen := &trackingGenerator{gen: terra.New(42)}
	b := world.Config{
		Log:           testLogger(),
		Seed:          42,
		Generator:     gen,
		StreamRadius:  2,
		ChunksPerStep: 25,
	}.New()
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})

	restored := b.LoadSnapshot(blob)
	if restored != a.LoadedChunkCount() {
		t.Fatalf("restored %v chunks, want all %v resident ones", restored, a.LoadedChunkCount())
	}
	if n := b.ActiveChunkCount(); n != 0 {
		t.Fatalf("%v chunks active right after restoring, want 0", n)
	}
	ma, _ := a.Chunk(world.ChunkPos{1, 1})
	mb, ok := b.Chunk(world.ChunkPos{1, 1})
	if !ok {
		t.Fatalf("chunk {1 1} not restored")
	}
	if !reflect.DeepEqual(ma.Heights, mb.Heights) {
		t.Fatalf("restored chunk {1 1} differs from the original")
	}

	b.OnObserverMoved(mgl64.Vec3{32, 0, 32})
	if gen.calls != 0 {
		t.Fatalf("%v chunks generated after restoring a snapshot of the region, want 0", gen.calls)
	}
	if n := b.ActiveChunkCount(); n != 25 {
		t.Fatalf("%v chunks active after the first step, want 25", n)
	}
}

// TestSnapshotBoundsRadius ensures a snapshot only carries the chunks around
// the observer, not the whole cache.
func TestSnapshotBoundsRadius(t *testing.T) {
	w := world.Config{
		Log:            testLogger(),
		Seed:           42,
		Generator:      terra.New(42),
		StreamRadius:   2,
		ChunksPerStep:  25,
		SnapshotRadius: 1,
	}.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})
	w.OnObserverMoved(mgl64.Vec3{32, 0, 32})
	if n := w.LoadedChunkCount(); n != 25 {
		t.Fatalf("cache holds %v chunks before snapshotting, want 25", n)
	}

	blob, err := w.SaveSnapshot()
	if err != nil {
		t.Fatalf("failed saving snapshot: %v", err)
	}

	b := world.Config{Log: testLogger(), Seed: 42, Generator: terra.New(42)}.New()
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})
	if restored := b.LoadSnapshot(blob); restored != 9 {
		t.Fatalf("restored %v chunks, want the 9 within the snapshot radius", restored)
	}
	if _, ok := b.Chunk(world.ChunkPos{2, 2}); ok {
		t.Fatalf("chunk outside the snapshot radius was carried in the blob")
	}
	if _, ok := b.Chunk(world.ChunkPos{1, 1}); !ok {
		t.Fatalf("chunk inside the snapshot radius is missing")
	}
}

// TestSnapshotRejectsSeedMismatch ensures a snapshot from a world with another
// seed is ignored instead of poisoning the cache with foreign terrain.
func TestSnapshotRejectsSeedMismatch(t *testing.T) {
	a := streamedWorld(t, 42)
	blob, err := a.SaveSnapshot()
	if err != nil {
		t.Fatalf("failed saving snapshot: %v", err)
	}

	b := world.Config{Log: testLogger(), Seed: 43, Generator: terra.New(43)}.New()
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})

	if restored := b.LoadSnapshot(blob); restored != 0 {
		t.Fatalf("restored %v chunks from a foreign snapshot, want 0", restored)
	}
	if n := b.LoadedChunkCount(); n != 0 {
		t.Fatalf("cache holds %v chunks after a rejected snapshot, want 0", n)
	}
}

// TestSnapshotRejectsCorruption ensures flipped bytes and truncation are
// detected and ignored.
func TestSnapshotRejectsCorruption(t *testing.T) {
	a := streamedWorld(t, 42)
	blob, err := a.SaveSnapshot()
	if err != nil {
		t.Fatalf("failed saving snapshot: %v", err)
	}

	b := world.Config{Log: testLogger(), Seed: 42, Generator: terra.New(42)}.New()
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})

	flipped := append([]byte(nil), blob...)
	flipped[len(flipped)/2] ^= 0xff
	if restored := b.LoadSnapshot(flipped); restored != 0 {
		t.Fatalf("restored %v chunks from a corrupted snapshot, want 0", restored)
	}
	if restored := b.LoadSnapshot(blob[:5]); restored != 0 {
		t.Fatalf("restored %v chunks from a truncated snapshot, want 0", restored)
	}
	if restored := b.LoadSnapshot(nil); restored != 0 {
		t.Fatalf("restored %v chunks from an empty snapshot, want 0", restored)
	}
	// Rejected blobs leave the world exactly as an empty one would.
	if n := b.LoadedChunkCount(); n != 0 {
		t.Fatalf("cache holds %v chunks after rejected snapshots, want 0", n)
	}
}

// TestTerraStreamingSoak walks an observer across dozens of chunks and checks
// the streaming bounds hold at every step: the active region never exceeds its
// area, the cache never exceeds its ceiling and the terrain under the observer
// matches the generator exactly.
func TestTerraStreamingSoak(t *testing.T) {
	gen := terra.New(7)
	w := world.Config{
		Log:           testLogger(),
		Seed:          7,
		Generator:     gen,
		StreamRadius:  2,
		ChunksPerStep: 4,
		CacheCeiling:  40,
	}.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("world close: %v", err)
		}
	})

	for i := 0; i < 120; i++ {
		pos := mgl64.Vec3{float64(i) * 16, 0, 32}
		w.OnObserverMoved(pos)

		if n := w.ActiveChunkCount(); n > 25 {
			t.Fatalf("step %v: %v chunks active, want at most the region's 25", i, n)
		}
		if n := w.LoadedChunkCount(); n > 40 {
			t.Fatalf("step %v: cache holds %v chunks, over its ceiling of 40", i, n)
		}
		got := w.QueryHeight(pos[0], pos[2])
		want := gen.HeightAt(pos[0], pos[2])
		if got < want-0.01 || got > want+0.01 {
			t.Fatalf("step %v: height under the observer is %v, generator says %v", i, got, want)
		}
	}
}
