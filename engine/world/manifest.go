package world

import (
	"iter"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies the type of an object placed in the world. The kind of an
// object decides both its minimum separation from objects of the same kind
// and the class of scene node created for it.
type Kind uint8

const (
	// KindTerrain is reserved for the terrain patch of a chunk itself. It is
	// never found in a manifest's placement lists.
	KindTerrain Kind = iota
	KindRuin
	KindShrine
	KindCamp
	KindTree
	KindRock
	KindBush
	KindWaypoint
	KindStash
)

// Class groups kinds into the broad categories the engine treats differently
// when building manifests and scene content.
type Class uint8

const (
	ClassTerrain Class = iota
	ClassStructure
	ClassDecoration
	ClassPointOfInterest
)

// DefaultMinSeparation is the minimum separation, in world units, between two
// same-kind objects whose kind does not specify its own threshold.
const DefaultMinSeparation = 20.0

// Class returns the class of the kind.
func (k Kind) Class() Class {
	switch k {
	case KindRuin, KindShrine, KindCamp:
		return ClassStructure
	case KindTree, KindRock, KindBush:
		return ClassDecoration
	case KindWaypoint, KindStash:
		return ClassPointOfInterest
	}
	return ClassTerrain
}

// MinSeparation returns the minimum distance, in world units, that must lie
// between two objects of this kind in the horizontal plane. Thresholds never
// exceed ChunkSize: the placement filter only consults directly adjacent
// chunks for conflicts, which covers every pair closer than ChunkSize.
func (k Kind) MinSeparation() float64 {
	switch k {
	case KindRuin:
		return 48
	case KindShrine:
		return 32
	case KindCamp:
		return 40
	case KindTree:
		return 10
	case KindRock:
		return 8
	case KindBush:
		return 6
	case KindWaypoint:
		return 64
	case KindStash:
		return 24
	}
	return DefaultMinSeparation
}

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindRuin:
		return "ruin"
	case KindShrine:
		return "shrine"
	case KindCamp:
		return "camp"
	case KindTree:
		return "tree"
	case KindRock:
		return "rock"
	case KindBush:
		return "bush"
	case KindWaypoint:
		return "waypoint"
	case KindStash:
		return "stash"
	}
	return "unknown"
}

// PlacedObject describes a single object placed in a chunk: a structure, a
// decoration or a point of interest. Placed objects are plain values: the
// engine itself holds no mutable per-object state, so hosts that need any
// (looted chests, cleared camps) key it on the object's position.
type PlacedObject struct {
	// Kind is the type of the object.
	Kind Kind
	// Pos is the world position of the object. The Y value is the terrain
	// height at the object's footprint at generation time.
	Pos mgl64.Vec3
	// Chunk is the position of the chunk that owns the object.
	Chunk ChunkPos
}

// ChunkManifest is the full description of one generated chunk: its height
// field and everything placed in it. Manifests are immutable once built.
// Regenerating a chunk from the same world seed yields a byte-identical
// manifest, which is what allows far chunks to be evicted and rebuilt on
// demand.
type ChunkManifest struct {
	// Pos is the position of the chunk the manifest describes.
	Pos ChunkPos
	// Seed is the chunk-local seed the chunk was generated from, derived
	// from the world seed and the chunk position.
	Seed int64
	// Heights holds HeightSampleCount terrain height samples in row-major
	// order, HeightStep world units apart. Edge samples are shared exactly
	// with neighbouring chunks.
	Heights []float32
	// Structures holds the structures and points of interest of the chunk.
	Structures []PlacedObject
	// Decorations holds the small scatter objects of the chunk.
	Decorations []PlacedObject
}

// HeightSample returns the height sample at lattice position (i, j), with
// both indices in the range [0, HeightSamples).
func (m *ChunkManifest) HeightSample(i, j int) float64 {
	return float64(m.Heights[j*HeightSamples+i])
}

// Objects returns an iterator over all objects placed in the chunk,
// structures first.
func (m *ChunkManifest) Objects() iter.Seq[PlacedObject] {
	return func(yield func(PlacedObject) bool) {
		for _, obj := range m.Structures {
			if !yield(obj) {
				return
			}
		}
		for _, obj := range m.Decorations {
			if !yield(obj) {
				return
			}
		}
	}
}

// FlatManifest returns a manifest for the chunk position passed with level
// terrain at height zero and no objects. It is used as the fallback when a
// generator fails.
func FlatManifest(pos ChunkPos) *ChunkManifest {
	return &ChunkManifest{Pos: pos, Heights: make([]float32, HeightSampleCount)}
}
