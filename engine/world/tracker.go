package world

import (
	"slices"

	"github.com/hallowdale/emberfell/engine/internal/sliceutil"
)

// regionTracker keeps the set of chunks that are currently part of the live
// scene and the queue of chunks waiting to join it. The desired region is the
// square of chunks within the streaming radius of the observer's chunk;
// whenever the observer crosses a chunk boundary the tracker diffs the new
// desired region against what is active and queued. The tracker is accessed
// only from the goroutine driving the world, so it holds no locks.
type regionTracker struct {
	// active holds the chunks whose content is attached to the scene. It is
	// only ever changed by Recompute, MarkActive and Forget.
	active map[ChunkPos]struct{}
	// pending is the activation queue, ordered nearest-first to the last
	// recompute centre. queued mirrors it for membership checks.
	pending []ChunkPos
	queued  map[ChunkPos]struct{}

	centre ChunkPos
	radius int32
	seeded bool
}

func newRegionTracker() *regionTracker {
	return &regionTracker{
		active: make(map[ChunkPos]struct{}),
		queued: make(map[ChunkPos]struct{}),
	}
}

// Recompute diffs the desired region around centre against the current state
// of the tracker. Chunks that became desired are queued for activation,
// queued chunks that fell out of the region are cancelled and active chunks
// that fell out of the region are removed from the active set and returned
// for teardown, ordered farthest-first.
func (t *regionTracker) Recompute(centre ChunkPos, radius int32) (deactivate []ChunkPos) {
	t.centre, t.radius, t.seeded = centre, radius, true

	desired := make(map[ChunkPos]struct{}, (2*radius+1)*(2*radius+1))
	for x := centre[0] - radius; x <= centre[0]+radius; x++ {
		for z := centre[1] - radius; z <= centre[1]+radius; z++ {
			desired[ChunkPos{x, z}] = struct{}{}
		}
	}

	// Queued chunks outside the new region will not be visible: cancel them
	// before any work is spent on them.
	t.pending = sliceutil.Filter(t.pending, func(pos ChunkPos) bool {
		if _, ok := desired[pos]; ok {
			return true
		}
		delete(t.queued, pos)
		return false
	})

	for pos := range desired {
		if _, ok := t.active[pos]; ok {
			continue
		}
		if _, ok := t.queued[pos]; ok {
			continue
		}
		t.queued[pos] = struct{}{}
		t.pending = append(t.pending, pos)
	}
	// Activate nearest chunks first so the ground under the observer wins
	// over scenery at the region edge. The tie-break keeps the order
	// independent of map iteration.
	slices.SortFunc(t.pending, func(a, b ChunkPos) int {
		if d := chunkDistSq(a, centre) - chunkDistSq(b, centre); d != 0 {
			return int(d)
		}
		return comparePos(a, b)
	})

	for pos := range t.active {
		if _, ok := desired[pos]; !ok {
			deactivate = append(deactivate, pos)
		}
	}
	slices.SortFunc(deactivate, func(a, b ChunkPos) int {
		if d := chunkDistSq(b, centre) - chunkDistSq(a, centre); d != 0 {
			return int(d)
		}
		return comparePos(a, b)
	})
	for _, pos := range deactivate {
		delete(t.active, pos)
	}
	return deactivate
}

// Next pops the next chunk to activate off the queue.
func (t *regionTracker) Next() (ChunkPos, bool) {
	if len(t.pending) == 0 {
		return ChunkPos{}, false
	}
	pos := t.pending[0]
	t.pending = t.pending[1:]
	delete(t.queued, pos)
	return pos, true
}

// MarkActive records that the chunk at the position passed finished
// activating.
func (t *regionTracker) MarkActive(pos ChunkPos) {
	t.active[pos] = struct{}{}
}

// Active checks if the chunk at the position passed is part of the live
// scene.
func (t *regionTracker) Active(pos ChunkPos) bool {
	_, ok := t.active[pos]
	return ok
}

// Forget removes the chunk at the position passed from the active set and the
// activation queue, whichever it is in. It is called for chunks that are
// evicted out from under the tracker.
func (t *regionTracker) Forget(pos ChunkPos) {
	delete(t.active, pos)
	if _, ok := t.queued[pos]; ok {
		delete(t.queued, pos)
		t.pending = sliceutil.DeleteVal(t.pending, pos)
	}
}

// ActiveCount returns the number of chunks in the live scene.
func (t *regionTracker) ActiveCount() int {
	return len(t.active)
}

// PendingCount returns the number of chunks waiting to activate.
func (t *regionTracker) PendingCount() int {
	return len(t.pending)
}

// comparePos orders chunk positions lexicographically by X, then Z.
func comparePos(a, b ChunkPos) int {
	if a[0] != b[0] {
		return int(a[0]) - int(b[0])
	}
	return int(a[1]) - int(b[1])
}
