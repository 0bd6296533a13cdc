package world

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Settings holds the identity and bookkeeping state of a world that must
// survive between sessions.
type Settings struct {
	// WorldID uniquely identifies the world instance. It is generated when a
	// world is created for the first time and never changes afterwards.
	WorldID uuid.UUID
	// Seed is the seed all chunk generation of the world is derived from.
	Seed int64
	// LastSave is the observer position at the time of the last save. It
	// becomes the centre of the surroundings snapshot.
	LastSave mgl64.Vec3
	// CurrentTick is the number of streaming steps the world has run.
	CurrentTick int64
}

// defaultSettings returns the default settings of a newly created world.
func defaultSettings() *Settings {
	return &Settings{WorldID: uuid.New()}
}

// ErrChunkNotFound is returned by a Provider when a chunk was not yet stored,
// signalling the world to generate it instead.
var ErrChunkNotFound = errors.New("chunk not found")

// Provider implements storing and loading of chunk manifests and world
// settings, so that generated terrain does not have to be rebuilt between
// sessions.
type Provider interface {
	// Settings loads the settings of the world into the Settings value
	// passed. Fields of worlds stored for the first time are left untouched.
	Settings(set *Settings)
	// SaveSettings saves the settings of the world.
	SaveSettings(set *Settings)
	// LoadChunk loads the manifest of the chunk at the position passed. If
	// the chunk was never stored, LoadChunk returns an error wrapping
	// ErrChunkNotFound.
	LoadChunk(pos ChunkPos) (*ChunkManifest, error)
	// StoreChunk stores the manifest of the chunk at the position passed.
	StoreChunk(pos ChunkPos, m *ChunkManifest) error
	// Close closes the provider. No methods may be called after Close.
	Close() error
}

// NopProvider is a Provider implementation that does not store any data to
// disk. Chunks of worlds with a NopProvider are regenerated every session.
type NopProvider struct {
	// Set holds the settings the provider returns, so tests and hosts can
	// preset world identity and seed.
	Set Settings
}

// Compile time check to make sure NopProvider implements Provider.
var _ Provider = NopProvider{}

func (n NopProvider) Settings(set *Settings) {
	if n.Set.WorldID != (uuid.UUID{}) {
		*set = n.Set
	}
}
func (NopProvider) SaveSettings(*Settings) {}
func (NopProvider) LoadChunk(pos ChunkPos) (*ChunkManifest, error) {
	return nil, ErrChunkNotFound
}
func (NopProvider) StoreChunk(ChunkPos, *ChunkManifest) error { return nil }
func (NopProvider) Close() error                              { return nil }

// Generator is implemented by terrain generators: GenerateChunk builds the
// full manifest of one chunk from nothing but the chunk position and the
// seeds the generator was created with.
type Generator interface {
	// GenerateChunk generates the manifest of the chunk at the position
	// passed. Implementations must be pure: the same position must always
	// yield an identical manifest.
	GenerateChunk(pos ChunkPos) *ChunkManifest
}

// NopGenerator is the default generator of worlds. It generates completely
// flat, empty chunks.
type NopGenerator struct{}

// Compile time check to make sure NopGenerator implements Generator.
var _ Generator = NopGenerator{}

func (NopGenerator) GenerateChunk(pos ChunkPos) *ChunkManifest {
	return FlatManifest(pos)
}
