// Package streamdb implements a world provider backed by a leveldb database,
// storing chunk manifests and world settings between sessions.
package streamdb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/hallowdale/emberfell/engine/world"
)

// Config holds the optional parameters of a DB.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages
	// to. If set to nil, Log is set to slog.Default().
	Log *slog.Logger
	// Compression specifies the compression to use for compressing new data
	// in the database. Defaults to opt.FlateCompression.
	Compression opt.Compression
	// BlockSize specifies the size of blocks to be compressed. The default
	// block size, 16KiB, is normally sufficient.
	BlockSize int
}

// Open creates a new DB reading and writing from/to files under the path
// passed using default options. If the path did not exist yet, a new world
// database is initialised there.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.BlockSize == 0 {
		conf.BlockSize = 16 * opt.KiB
	}
	if conf.Compression == opt.DefaultCompression {
		conf.Compression = opt.FlateCompression
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ldb, err := leveldb.OpenFile(filepath.Join(dir, "db"), &opt.Options{
		Compression: conf.Compression,
		BlockSize:   conf.BlockSize,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: leveldb: %w", err)
	}
	db := &DB{conf: conf, ldb: ldb, dir: dir}
	if err := db.loadSettings(); err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// DB implements a world provider for chunk manifests and settings stored in a
// leveldb database.
type DB struct {
	conf Config
	ldb  *leveldb.DB
	dir  string

	set    world.Settings
	hasSet bool
}

// Compile time check to make sure DB implements world.Provider.
var _ world.Provider = (*DB)(nil)

// Settings loads the settings of the world into the Settings value passed.
// If the database was newly created, the settings are left untouched.
func (db *DB) Settings(set *world.Settings) {
	if db.hasSet {
		*set = db.set
	}
}

// SaveSettings saves the settings of the world to the database. Errors are
// logged rather than returned: settings are saved again on the next save.
func (db *DB) SaveSettings(set *world.Settings) {
	db.set, db.hasSet = *set, true
	if err := db.ldb.Put(keySettings, encodeSettings(set), nil); err != nil {
		db.conf.Log.Error("save settings: " + err.Error())
	}
}

// LoadChunk loads the manifest of the chunk at the position passed from the
// database. If the chunk was never stored, world.ErrChunkNotFound is
// returned.
func (db *DB) LoadChunk(pos world.ChunkPos) (*world.ChunkManifest, error) {
	data, err := db.ldb.Get(chunkKey(pos), nil)
	switch {
	case err == nil:
		m, err := decodeManifest(pos, data)
		if err != nil {
			return nil, fmt.Errorf("load chunk %v: %w", pos, err)
		}
		return m, nil
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, world.ErrChunkNotFound
	default:
		return nil, fmt.Errorf("load chunk %v: %w", pos, err)
	}
}

// StoreChunk stores the manifest of the chunk at the position passed to the
// database.
func (db *DB) StoreChunk(pos world.ChunkPos, m *world.ChunkManifest) error {
	if err := db.ldb.Put(chunkKey(pos), encodeManifest(m), nil); err != nil {
		return fmt.Errorf("store chunk %v: %w", pos, err)
	}
	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

// loadSettings reads the stored world settings into memory. A database
// without stored settings is a fresh world and not an error.
func (db *DB) loadSettings() error {
	data, err := db.ldb.Get(keySettings, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	set, err := decodeSettings(data)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	db.set, db.hasSet = set, true
	return nil
}
