package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// chunkShift is the base-2 logarithm of ChunkSize. World coordinates are
	// converted to chunk coordinates using an arithmetic shift so that
	// negative coordinates floor correctly.
	chunkShift = 6
	// ChunkSize is the width and depth of a chunk in world units.
	ChunkSize = 1 << chunkShift

	// HeightGridCells is the number of height field cells along one side of a
	// chunk. The sample lattice has one more sample than cells per side so
	// that a chunk's edge samples coincide exactly with those of its
	// neighbours.
	HeightGridCells = 16
	// HeightStep is the distance in world units between two adjacent height
	// samples.
	HeightStep = float64(ChunkSize) / HeightGridCells
	// HeightSamples is the side length of the height sample lattice.
	HeightSamples = HeightGridCells + 1
	// HeightSampleCount is the total number of height samples in a chunk.
	HeightSampleCount = HeightSamples * HeightSamples
)

// ChunkPos holds the position of a chunk. The first value is the X
// coordinate, the second the Z coordinate. A chunk covers the world area
// [X*ChunkSize, (X+1)*ChunkSize) x [Z*ChunkSize, (Z+1)*ChunkSize).
type ChunkPos [2]int32

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 {
	return p[0]
}

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 {
	return p[1]
}

// Pack packs the chunk position into a single int64, suitable as a key in
// integer-keyed indices.
func (p ChunkPos) Pack() int64 {
	return int64(p[0])<<32 | int64(uint32(p[1]))
}

// Origin returns the world position of the minimum corner of the chunk, at
// height 0.
func (p ChunkPos) Origin() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]) * ChunkSize, 0, float64(p[1]) * ChunkSize}
}

// chunkPosFromVec3 returns the position of the chunk that contains the world
// position passed.
func chunkPosFromVec3(vec mgl64.Vec3) ChunkPos {
	return ChunkPos{
		int32(math.Floor(vec[0])) >> chunkShift,
		int32(math.Floor(vec[2])) >> chunkShift,
	}
}

// chunkDistSq returns the squared distance between two chunk positions,
// measured in chunks.
func chunkDistSq(a, b ChunkPos) int64 {
	dx, dz := int64(a[0])-int64(b[0]), int64(a[1])-int64(b[1])
	return dx*dx + dz*dz
}
