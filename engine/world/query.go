package world

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hallowdale/emberfell/engine/internal/mathutil"
)

// DefaultHeight is the terrain height QueryHeight reports for positions whose
// chunk is not resident in memory.
const DefaultHeight = 0.0

// QueryHeight returns the terrain height at the world position passed,
// bilinearly interpolated from the height field of the chunk that contains
// it. Any resident chunk answers, active or not. If the chunk is not resident
// the query does not trigger generation: gameplay height lookups must stay
// cheap, so DefaultHeight is returned instead.
func (w *World) QueryHeight(x, z float64) float64 {
	pos := chunkPosFromVec3(mgl64.Vec3{x, 0, z})
	m, ok := w.cache.Get(pos)
	if !ok {
		return DefaultHeight
	}

	fx := (x - float64(pos[0])*ChunkSize) / HeightStep
	fz := (z - float64(pos[1])*ChunkSize) / HeightStep
	i := mathutil.Clamp(int(fx), 0, HeightGridCells-1)
	j := mathutil.Clamp(int(fz), 0, HeightGridCells-1)
	tx := mathutil.Clamp(fx-float64(i), 0, 1)
	tz := mathutil.Clamp(fz-float64(j), 0, 1)

	low := mathutil.Lerp(m.HeightSample(i, j), m.HeightSample(i+1, j), tx)
	high := mathutil.Lerp(m.HeightSample(i, j+1), m.HeightSample(i+1, j+1), tx)
	return mathutil.Lerp(low, high, tz)
}

// NearbyInteractables returns all placed objects of active chunks within
// radius world units of the position passed, nearest first. Objects of
// chunks that are cached but not part of the live scene are not reported:
// what cannot be seen cannot be interacted with.
func (w *World) NearbyInteractables(pos mgl64.Vec3, radius float64) []PlacedObject {
	if radius <= 0 {
		return nil
	}
	lo := chunkPosFromVec3(pos.Sub(mgl64.Vec3{radius, 0, radius}))
	hi := chunkPosFromVec3(pos.Add(mgl64.Vec3{radius, 0, radius}))

	var found []PlacedObject
	for cx := lo[0]; cx <= hi[0]; cx++ {
		for cz := lo[1]; cz <= hi[1]; cz++ {
			p := ChunkPos{cx, cz}
			if !w.tracker.Active(p) {
				continue
			}
			m, ok := w.cache.Get(p)
			if !ok {
				continue
			}
			for obj := range m.Objects() {
				if obj.Pos.Sub(pos).Len() <= radius {
					found = append(found, obj)
				}
			}
		}
	}
	slices.SortFunc(found, func(a, b PlacedObject) int {
		da, db := a.Pos.Sub(pos).LenSqr(), b.Pos.Sub(pos).LenSqr()
		if da != db {
			if da < db {
				return -1
			}
			return 1
		}
		return int(a.Kind) - int(b.Kind)
	})
	return found
}
