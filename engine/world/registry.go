package world

// objectRegistry tracks the scene nodes created for active chunks, so that a
// chunk leaving the active region can take exactly the nodes it created with
// it. It is accessed only from the goroutine driving the world, so it holds
// no locks.
type objectRegistry struct {
	scene Scene
	// instances maps an active chunk to the handles of its scene nodes, in
	// attach order with the terrain patch first.
	instances map[ChunkPos][]Handle
	count     int
}

func newObjectRegistry(scene Scene) *objectRegistry {
	return &objectRegistry{scene: scene, instances: make(map[ChunkPos][]Handle)}
}

// Activate attaches the terrain patch and all placed objects of the manifest
// passed to the scene and returns the number of nodes created. Activating a
// chunk that is already active does nothing.
func (r *objectRegistry) Activate(pos ChunkPos, m *ChunkManifest) int {
	if _, ok := r.instances[pos]; ok {
		return 0
	}
	handles := make([]Handle, 0, 1+len(m.Structures)+len(m.Decorations))
	handles = append(handles, r.scene.Attach(SceneObject{
		Chunk:   pos,
		Kind:    KindTerrain,
		Pos:     pos.Origin(),
		Heights: m.Heights,
	}))
	for obj := range m.Objects() {
		handles = append(handles, r.scene.Attach(SceneObject{
			Chunk: pos,
			Kind:  obj.Kind,
			Pos:   obj.Pos,
		}))
	}
	r.instances[pos] = handles
	r.count += len(handles)
	return len(handles)
}

// Deactivate detaches all scene nodes of the chunk at the position passed and
// returns the number of nodes removed. Nodes are detached in reverse attach
// order, leaving the terrain patch last. Deactivating a chunk that is not
// active does nothing.
func (r *objectRegistry) Deactivate(pos ChunkPos) int {
	handles, ok := r.instances[pos]
	if !ok {
		return 0
	}
	for i := len(handles) - 1; i >= 0; i-- {
		r.scene.Detach(handles[i])
	}
	delete(r.instances, pos)
	r.count -= len(handles)
	return len(handles)
}

// Active checks if the chunk at the position passed has scene nodes attached.
func (r *objectRegistry) Active(pos ChunkPos) bool {
	_, ok := r.instances[pos]
	return ok
}

// InstanceCount returns the total number of scene nodes attached across all
// active chunks.
func (r *objectRegistry) InstanceCount() int {
	return r.count
}
