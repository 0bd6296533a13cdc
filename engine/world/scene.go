package world

import "github.com/go-gl/mathgl/mgl64"

// Handle identifies one node attached to a Scene. Handles are opaque to the
// engine: it stores the handle returned by Scene.Attach and passes it back to
// Scene.Detach when the node's chunk leaves the active region.
type Handle uint64

// SceneObject describes one node for the host's scene graph, either the
// terrain patch of a chunk or a single placed object.
type SceneObject struct {
	// Chunk is the position of the chunk the node belongs to.
	Chunk ChunkPos
	// Kind is the kind of the node. KindTerrain marks the terrain patch of
	// the chunk, any other kind a placed object.
	Kind Kind
	// Pos is the world position of the node. For terrain patches this is the
	// minimum corner of the chunk at height zero.
	Pos mgl64.Vec3
	// Heights is the height field of the chunk for terrain patches and nil
	// for placed objects. The slice is shared with the chunk's manifest and
	// must not be modified.
	Heights []float32
}

// Scene is implemented by hosts to materialise chunk content. Attach is
// called once for every node of a chunk when it activates and Detach once for
// every node when it deactivates. Both are called from the goroutine driving
// the world and must not retain the SceneObject's Heights slice beyond the
// matching Detach.
type Scene interface {
	// Attach adds a node to the scene and returns a handle for it.
	Attach(obj SceneObject) Handle
	// Detach removes a node previously returned by Attach. Detach returns
	// only once the node is fully removed: the engine frees the chunk's
	// manifest immediately afterwards.
	Detach(handle Handle)
}

// NopScene implements the Scene interface and does nothing when chunk content
// is attached or detached.
type NopScene struct{}

// Compile time check to make sure NopScene implements Scene.
var _ Scene = NopScene{}

func (NopScene) Attach(SceneObject) Handle { return 0 }
func (NopScene) Detach(Handle)             {}
