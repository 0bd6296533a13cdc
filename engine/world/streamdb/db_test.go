package streamdb

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hallowdale/emberfell/engine/world"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}.Open(dir)
	if err != nil {
		t.Fatalf("failed opening db: %v", err)
	}
	return db
}

func testManifest(pos world.ChunkPos) *world.ChunkManifest {
	m := &world.ChunkManifest{Pos: pos, Seed: 1234, Heights: make([]float32, world.HeightSampleCount)}
	for i := range m.Heights {
		m.Heights[i] = float32(i) * 0.5
	}
	m.Structures = []world.PlacedObject{
		{Kind: world.KindRuin, Pos: mgl64.Vec3{12.5, 3.25, 40}, Chunk: pos},
		{Kind: world.KindWaypoint, Pos: mgl64.Vec3{60, -1.75, 2}, Chunk: pos},
	}
	m.Decorations = []world.PlacedObject{
		{Kind: world.KindTree, Pos: mgl64.Vec3{30, 8, 30}, Chunk: pos},
	}
	return m
}

func TestDBChunkRoundTrip(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed closing db: %v", err)
		}
	})

	pos := world.ChunkPos{-3, 7}
	m := testManifest(pos)
	if err := db.StoreChunk(pos, m); err != nil {
		t.Fatalf("failed storing chunk: %v", err)
	}

	got, err := db.LoadChunk(pos)
	if err != nil {
		t.Fatalf("failed loading chunk: %v", err)
	}
	if got.Pos != pos || got.Seed != m.Seed {
		t.Fatalf("loaded chunk has pos %v seed %v, want %v and %v", got.Pos, got.Seed, pos, m.Seed)
	}
	if !reflect.DeepEqual(got.Heights, m.Heights) {
		t.Fatalf("loaded heights differ from the stored ones")
	}
	if !reflect.DeepEqual(got.Structures, m.Structures) {
		t.Fatalf("loaded structures are %v, want %v", got.Structures, m.Structures)
	}
	if !reflect.DeepEqual(got.Decorations, m.Decorations) {
		t.Fatalf("loaded decorations are %v, want %v", got.Decorations, m.Decorations)
	}
}

func TestDBLoadMissingChunk(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed closing db: %v", err)
		}
	})

	if _, err := db.LoadChunk(world.ChunkPos{9, 9}); !errors.Is(err, world.ErrChunkNotFound) {
		t.Fatalf("loading a missing chunk returned %v, want world.ErrChunkNotFound", err)
	}
}

func TestDBSettingsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)

	// A fresh database must leave the settings passed untouched.
	set := world.Settings{Seed: 5}
	db.Settings(&set)
	if set.Seed != 5 {
		t.Fatalf("fresh database overwrote the seed with %v", set.Seed)
	}

	saved := world.Settings{
		WorldID:     uuid.New(),
		Seed:        77,
		LastSave:    mgl64.Vec3{1, 2, 3},
		CurrentTick: 99,
	}
	db.SaveSettings(&saved)
	if err := db.Close(); err != nil {
		t.Fatalf("failed closing db: %v", err)
	}

	db = openTestDB(t, dir)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed closing db: %v", err)
		}
	})
	var got world.Settings
	db.Settings(&got)
	if got != saved {
		t.Fatalf("settings after reopening are %+v, want %+v", got, saved)
	}
}

func TestDBChunksSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)

	pos := world.ChunkPos{0, 0}
	if err := db.StoreChunk(pos, testManifest(pos)); err != nil {
		t.Fatalf("failed storing chunk: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed closing db: %v", err)
	}

	db = openTestDB(t, dir)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("failed closing db: %v", err)
		}
	})
	if _, err := db.LoadChunk(pos); err != nil {
		t.Fatalf("failed loading chunk after reopening: %v", err)
	}
}

func TestDecodeManifestRejectsCorruption(t *testing.T) {
	pos := world.ChunkPos{1, 1}
	valid := encodeManifest(testManifest(pos))

	wrongVersion := append([]byte(nil), valid...)
	wrongVersion[0] = 9
	if _, err := decodeManifest(pos, wrongVersion); err == nil {
		t.Fatalf("decoding a manifest with an unknown version succeeded")
	}

	if _, err := decodeManifest(pos, valid[:10]); err == nil {
		t.Fatalf("decoding a truncated manifest succeeded")
	}

	// A corrupt length prefix must not make decode allocate endlessly.
	empty := &world.ChunkManifest{Pos: pos, Heights: make([]float32, world.HeightSampleCount)}
	bomb := encodeManifest(empty)
	bomb = bomb[:len(bomb)-2]
	bomb = binary.AppendUvarint(bomb, 1<<40)
	if _, err := decodeManifest(pos, bomb); err == nil {
		t.Fatalf("decoding a manifest with an oversized object count succeeded")
	}
}
