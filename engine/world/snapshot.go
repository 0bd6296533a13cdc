package world

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/hallowdale/emberfell/engine/internal/mathutil"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/mod/semver"
)

// Version is the engine version stamped into surroundings snapshots. Blobs
// written by a different major version are rejected on load.
const Version = "v1.2.0"

// snapshotHeader identifies a surroundings snapshot and the world it was
// taken from.
type snapshotHeader struct {
	Version string
	WorldID uuid.UUID
	Seed    int64
	Tick    int64
	SavedAt time.Time
	Origin  ChunkPos
	Radius  int32
}

// snapshotChunk is the stored form of one chunk manifest.
type snapshotChunk struct {
	Pos         ChunkPos
	Seed        int64
	Heights     []float32
	Structures  []PlacedObject
	Decorations []PlacedObject
}

type snapshotBody struct {
	Header snapshotHeader
	Chunks []snapshotChunk
}

// SaveSnapshot serialises the chunks within SnapshotRadius of the observer
// into a compact blob the host can store wherever it keeps save games. Far
// chunks are deliberately left out: they are rebuilt from the seed on demand,
// so only the player's surroundings are worth the bytes. The blob is
// compressed and carries a checksum footer.
func (w *World) SaveSnapshot() ([]byte, error) {
	origin := w.observerChunk
	radius := int32(w.conf.SnapshotRadius)
	body := snapshotBody{Header: snapshotHeader{
		Version: Version,
		WorldID: w.set.WorldID,
		Seed:    w.set.Seed,
		Tick:    w.set.CurrentTick,
		SavedAt: time.Now(),
		Origin:  origin,
		Radius:  radius,
	}}
	for pos, m := range w.cache.All() {
		if mathutil.Abs(pos[0]-origin[0]) > radius || mathutil.Abs(pos[1]-origin[1]) > radius {
			continue
		}
		body.Chunks = append(body.Chunks, snapshotChunk{
			Pos:         pos,
			Seed:        m.Seed,
			Heights:     m.Heights,
			Structures:  m.Structures,
			Decorations: m.Decorations,
		})
	}
	// Cache iteration order depends on eviction history: sort so identical
	// worlds produce identical blobs.
	slices.SortFunc(body.Chunks, func(a, b snapshotChunk) int {
		return comparePos(a.Pos, b.Pos)
	})

	buf := new(bytes.Buffer)
	enc, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(body); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("save snapshot: gob encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return binary.BigEndian.AppendUint64(buf.Bytes(), xxhash.Sum64(buf.Bytes())), nil
}

// LoadSnapshot restores the chunk manifests of a blob written by SaveSnapshot
// into the cache and returns the number of chunks restored. Restored chunks
// are not activated: the next streaming step picks them up without any
// generation work. A corrupt blob, a blob from a different engine major
// version or a blob from a world with another seed is logged and ignored,
// never failing the session: the world it belongs to can always be rebuilt
// from the seed.
func (w *World) LoadSnapshot(blob []byte) int {
	if len(blob) == 0 {
		return 0
	}
	if len(blob) <= 8 {
		w.conf.Log.Error("load snapshot: blob truncated", "size", len(blob))
		return 0
	}
	payload, footer := blob[:len(blob)-8], blob[len(blob)-8:]
	if xxhash.Sum64(payload) != binary.BigEndian.Uint64(footer) {
		w.conf.Log.Error("load snapshot: checksum mismatch")
		return 0
	}
	dec, err := zstd.NewReader(bytes.NewReader(payload))
	if err != nil {
		w.conf.Log.Error("load snapshot: " + err.Error())
		return 0
	}
	defer dec.Close()
	var body snapshotBody
	if err := gob.NewDecoder(dec).Decode(&body); err != nil {
		w.conf.Log.Error("load snapshot: gob decode: " + err.Error())
		return 0
	}

	h := body.Header
	if semver.Major(h.Version) != semver.Major(Version) {
		w.conf.Log.Warn("load snapshot: incompatible engine version", "snapshot", h.Version, "engine", Version)
		return 0
	}
	if h.Seed != w.set.Seed {
		w.conf.Log.Warn("load snapshot: seed mismatch", "snapshot", h.Seed, "world", w.set.Seed)
		return 0
	}
	if h.WorldID != w.set.WorldID {
		// Same seed, different instance: the content is still valid, the
		// host probably copied a save between installs.
		w.conf.Log.Debug("load snapshot: snapshot from other world instance", "snapshot", h.WorldID.String(), "world", w.set.WorldID.String())
	}

	centre := h.Origin
	if w.hasObserver {
		centre = w.observerChunk
	}
	restored := 0
	for _, sc := range body.Chunks {
		if len(sc.Heights) != HeightSampleCount {
			w.conf.Log.Error("load snapshot: malformed chunk skipped", "X", sc.Pos[0], "Z", sc.Pos[1])
			continue
		}
		if _, ok := w.cache.Get(sc.Pos); ok {
			continue
		}
		w.cache.Put(sc.Pos, &ChunkManifest{
			Pos:         sc.Pos,
			Seed:        sc.Seed,
			Heights:     sc.Heights,
			Structures:  sc.Structures,
			Decorations: sc.Decorations,
		}, centre)
		w.conf.Metrics.ChunkRestored()
		restored++
	}
	return restored
}
