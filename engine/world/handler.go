package world

// Handler handles events that happen in the world. Hosts implement Handler to
// run game logic off the back of streaming events, such as revealing map
// regions on first generation or pausing effects while the performance tier
// is lowered.
type Handler interface {
	// HandleChunkGenerate handles a chunk being generated for the first time
	// this session. It is not called when a chunk is restored from the
	// provider or from a snapshot.
	HandleChunkGenerate(pos ChunkPos)
	// HandleChunkActivate handles a chunk entering the active region, after
	// its content has been attached to the scene.
	HandleChunkActivate(pos ChunkPos, m *ChunkManifest)
	// HandleChunkDeactivate handles a chunk leaving the active region, after
	// its content has been detached from the scene.
	HandleChunkDeactivate(pos ChunkPos)
	// HandleChunkEvict handles a chunk manifest being dropped from the cache
	// entirely. A chunk that was active is deactivated first.
	HandleChunkEvict(pos ChunkPos)
	// HandleTierChange handles the resource governor moving the world to a
	// different performance tier.
	HandleTierChange(before, after Tier)
}

// NopHandler implements the Handler interface but does not execute any code
// when an event is called. The default Handler of worlds is NopHandler.
type NopHandler struct{}

// Compile time check to make sure NopHandler implements Handler.
var _ Handler = NopHandler{}

func (NopHandler) HandleChunkGenerate(ChunkPos)                 {}
func (NopHandler) HandleChunkActivate(ChunkPos, *ChunkManifest) {}
func (NopHandler) HandleChunkDeactivate(ChunkPos)               {}
func (NopHandler) HandleChunkEvict(ChunkPos)                    {}
func (NopHandler) HandleTierChange(Tier, Tier)                  {}
