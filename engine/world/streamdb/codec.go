package streamdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hallowdale/emberfell/engine/world"
)

const (
	// manifestVersion is the version byte leading every stored manifest.
	manifestVersion = 1
	// settingsVersion is the version byte leading the stored settings.
	settingsVersion = 1
	// maxStoredObjects bounds the object count read from a stored manifest,
	// guarding decode against a corrupt length prefix.
	maxStoredObjects = 4096
)

// keySettings is the database key the world settings are stored under.
var keySettings = []byte("settings")

// chunkKey returns the database key of the chunk at the position passed.
func chunkKey(pos world.ChunkPos) []byte {
	k := make([]byte, 9)
	k[0] = 'c'
	binary.LittleEndian.PutUint32(k[1:], uint32(pos[0]))
	binary.LittleEndian.PutUint32(k[5:], uint32(pos[1]))
	return k
}

// encodeManifest serialises a chunk manifest to its stored form: a version
// byte, the chunk seed, the full height field and both placement lists.
func encodeManifest(m *world.ChunkManifest) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 16+4*world.HeightSampleCount+32*(len(m.Structures)+len(m.Decorations))))
	buf.WriteByte(manifestVersion)
	_ = binary.Write(buf, binary.LittleEndian, m.Seed)
	_ = binary.Write(buf, binary.LittleEndian, m.Heights)
	writeObjects(buf, m.Structures)
	writeObjects(buf, m.Decorations)
	return buf.Bytes()
}

// decodeManifest parses the stored form of the manifest of the chunk at the
// position passed.
func decodeManifest(pos world.ChunkPos, data []byte) (*world.ChunkManifest, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if version != manifestVersion {
		return nil, fmt.Errorf("decode manifest: unsupported version %v", version)
	}
	m := &world.ChunkManifest{Pos: pos, Heights: make([]float32, world.HeightSampleCount)}
	if err := binary.Read(r, binary.LittleEndian, &m.Seed); err != nil {
		return nil, fmt.Errorf("decode manifest: seed: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, m.Heights); err != nil {
		return nil, fmt.Errorf("decode manifest: heights: %w", err)
	}
	if m.Structures, err = readObjects(r, pos); err != nil {
		return nil, fmt.Errorf("decode manifest: structures: %w", err)
	}
	if m.Decorations, err = readObjects(r, pos); err != nil {
		return nil, fmt.Errorf("decode manifest: decorations: %w", err)
	}
	return m, nil
}

// writeObjects appends a placement list as a count followed by a kind byte
// and position per object. The owning chunk is not stored: it is implied by
// the key the manifest is stored under.
func writeObjects(buf *bytes.Buffer, objs []world.PlacedObject) {
	var scratch [binary.MaxVarintLen64]byte
	buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(objs)))])
	for _, obj := range objs {
		buf.WriteByte(byte(obj.Kind))
		_ = binary.Write(buf, binary.LittleEndian, obj.Pos)
	}
}

// readObjects parses a placement list written by writeObjects.
func readObjects(r *bytes.Reader, pos world.ChunkPos) ([]world.PlacedObject, error) {
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if count > maxStoredObjects {
		return nil, fmt.Errorf("object count %v out of range", count)
	}
	objs := make([]world.PlacedObject, 0, count)
	for i := uint64(0); i < count; i++ {
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var p mgl64.Vec3
		if err := binary.Read(r, binary.LittleEndian, &p); err != nil {
			return nil, err
		}
		objs = append(objs, world.PlacedObject{Kind: world.Kind(kind), Pos: p, Chunk: pos})
	}
	return objs, nil
}

// encodeSettings serialises the world settings to their stored form.
func encodeSettings(set *world.Settings) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	buf.WriteByte(settingsVersion)
	buf.Write(set.WorldID[:])
	_ = binary.Write(buf, binary.LittleEndian, set.Seed)
	_ = binary.Write(buf, binary.LittleEndian, set.LastSave)
	_ = binary.Write(buf, binary.LittleEndian, set.CurrentTick)
	return buf.Bytes()
}

// decodeSettings parses the stored form of the world settings.
func decodeSettings(data []byte) (world.Settings, error) {
	var set world.Settings
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return set, fmt.Errorf("decode settings: %w", err)
	}
	if version != settingsVersion {
		return set, fmt.Errorf("decode settings: unsupported version %v", version)
	}
	var id uuid.UUID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return set, fmt.Errorf("decode settings: world id: %w", err)
	}
	set.WorldID = id
	if err := binary.Read(r, binary.LittleEndian, &set.Seed); err != nil {
		return set, fmt.Errorf("decode settings: seed: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &set.LastSave); err != nil {
		return set, fmt.Errorf("decode settings: last save: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &set.CurrentTick); err != nil {
		return set, fmt.Errorf("decode settings: tick: %w", err)
	}
	return set, nil
}
