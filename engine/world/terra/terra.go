// Package terra implements the default terrain and placement generator of
// emberfell worlds. Chunks are pure functions of the world seed and their
// position: the height field comes from octave value noise sampled at world
// coordinates and all placements come from a chunk-local random stream, so a
// chunk can be dropped and rebuilt at any time without changing the world.
package terra

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hallowdale/emberfell/engine/world"
	"github.com/segmentio/fasthash/fnv1a"
)

const (
	// heightFrequency is the base noise frequency of the height field. The
	// dominant terrain features end up roughly 160 world units wide.
	heightFrequency = 1.0 / 160
	// heightAmplitude scales the noise into terrain heights, with the level
	// shifted so part of the terrain dips below height zero.
	heightAmplitude = 28.0
	heightLevel     = 0.35

	// baseCandidates and candidateJitter bound the number of placement
	// candidates rolled per chunk before conflict resolution.
	baseCandidates  = 14
	candidateJitter = 6

	// neighbourRadius is the radius, in chunks, of the neighbourhood
	// consulted for placement conflicts. A radius of 1 covers every possible
	// conflict because no kind's minimum separation exceeds ChunkSize.
	neighbourRadius = 1

	// placementSalt separates the placement random stream from other uses of
	// the chunk seed.
	placementSalt = 0xdeadbeef
)

var (
	structureKinds  = []world.Kind{world.KindRuin, world.KindShrine, world.KindCamp}
	decorationKinds = []world.Kind{world.KindTree, world.KindRock, world.KindBush}
	poiKinds        = []world.Kind{world.KindWaypoint, world.KindStash}
)

// Generator generates chunk manifests from a world seed.
type Generator struct {
	seed   int64
	height *octaveNoise
}

// Compile time check to make sure Generator implements world.Generator.
var _ world.Generator = (*Generator)(nil)

// New creates a Generator for the world seed passed.
func New(seed int64) *Generator {
	return &Generator{seed: seed, height: newOctaveNoise(seed, 4, heightFrequency)}
}

// HeightAt returns the terrain height at the world position passed.
func (g *Generator) HeightAt(x, z float64) float64 {
	return (g.height.at(x, z) - heightLevel) * heightAmplitude
}

// GenerateChunk builds the manifest of the chunk at the position passed. The
// height field is sampled at world coordinates, so edge samples agree exactly
// with those of neighbouring chunks. Placement conflicts with neighbours are
// resolved against the neighbours' candidate lists, which each chunk can
// reproduce locally without the neighbour ever having been generated.
func (g *Generator) GenerateChunk(pos world.ChunkPos) *world.ChunkManifest {
	m := &world.ChunkManifest{
		Pos:     pos,
		Seed:    chunkSeed(g.seed, pos),
		Heights: make([]float32, 0, world.HeightSampleCount),
	}
	origin := pos.Origin()
	for j := 0; j < world.HeightSamples; j++ {
		for i := 0; i < world.HeightSamples; i++ {
			x := origin[0] + float64(i)*world.HeightStep
			z := origin[2] + float64(j)*world.HeightStep
			m.Heights = append(m.Heights, float32(g.HeightAt(x, z)))
		}
	}

	for _, obj := range FilterPlacements(g.candidates(pos), g.neighbourCandidates(pos)) {
		if obj.Kind.Class() == world.ClassDecoration {
			m.Decorations = append(m.Decorations, obj)
		} else {
			m.Structures = append(m.Structures, obj)
		}
	}
	return m
}

// candidates rolls the placement candidates of the chunk at the position
// passed, before any conflict resolution. The list is a pure function of the
// chunk position and the world seed and its order decides precedence between
// candidates of the same chunk.
func (g *Generator) candidates(pos world.ChunkPos) []world.PlacedObject {
	seed := uint64(chunkSeed(g.seed, pos))
	r := rand.New(rand.NewPCG(seed, seed^placementSalt))

	n := baseCandidates + r.IntN(candidateJitter)
	origin := pos.Origin()
	objs := make([]world.PlacedObject, 0, n)
	for i := 0; i < n; i++ {
		x := origin[0] + r.Float64()*world.ChunkSize
		z := origin[2] + r.Float64()*world.ChunkSize
		objs = append(objs, world.PlacedObject{
			Kind:  pickKind(r),
			Pos:   mgl64.Vec3{x, g.HeightAt(x, z), z},
			Chunk: pos,
		})
	}
	return objs
}

// neighbourCandidates collects the candidates of all neighbouring chunks that
// outrank the chunk at the position passed. A neighbour outranks the chunk if
// its position is lexicographically smaller: the lower-ranked side of every
// cross-chunk conflict yields, no matter which chunk generates first.
func (g *Generator) neighbourCandidates(pos world.ChunkPos) []world.PlacedObject {
	var nearby []world.PlacedObject
	for dx := int32(-neighbourRadius); dx <= neighbourRadius; dx++ {
		for dz := int32(-neighbourRadius); dz <= neighbourRadius; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			n := world.ChunkPos{pos[0] + dx, pos[1] + dz}
			if outranks(n, pos) {
				nearby = append(nearby, g.candidates(n)...)
			}
		}
	}
	return nearby
}

// outranks checks if chunk a takes precedence over chunk b in placement
// conflicts.
func outranks(a, b world.ChunkPos) bool {
	return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
}

// pickKind rolls the kind of one placement candidate. Decorations dominate,
// structures are uncommon and points of interest rare.
func pickKind(r *rand.Rand) world.Kind {
	switch roll := r.Float64(); {
	case roll < 0.22:
		return structureKinds[r.IntN(len(structureKinds))]
	case roll < 0.88:
		return decorationKinds[r.IntN(len(decorationKinds))]
	default:
		return poiKinds[r.IntN(len(poiKinds))]
	}
}

// chunkSeed derives the seed of the chunk at the position passed from the
// world seed.
func chunkSeed(worldSeed int64, pos world.ChunkPos) int64 {
	h := fnv1a.Init64
	h = fnv1a.AddUint64(h, uint64(worldSeed))
	h = fnv1a.AddUint64(h, uint64(uint32(pos[0])))
	h = fnv1a.AddUint64(h, uint64(uint32(pos[1])))
	return int64(h)
}
