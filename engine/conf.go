// Package engine wires an emberfell world together from a user
// configuration: the terrain generator, the on-disk chunk store and the
// performance governor, leaving the host to supply a scene and drive the
// world from its main loop.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hallowdale/emberfell/engine/world"
	"github.com/hallowdale/emberfell/engine/world/streamdb"
	"github.com/hallowdale/emberfell/engine/world/terra"
	"github.com/pelletier/go-toml"
)

// UserConfig is the user configuration of an emberfell world, usually read
// from a TOML file with LoadConfig.
type UserConfig struct {
	World struct {
		// SaveData controls whether world data is saved and loaded. If true,
		// the default leveldb provider stores chunks under Folder and if
		// false, every session regenerates all chunks from the seed.
		SaveData bool
		// Folder is the folder that the data of the world resides in.
		Folder string
		// Seed controls the procedural generation of the world. A stored
		// world keeps the seed it was created with, ignoring this value.
		Seed int64
		// ReadOnly stops the world from writing any data to Folder.
		ReadOnly bool
	}
	Streaming struct {
		// Radius is the streaming radius around the observer in chunks, at
		// the balanced performance tier.
		Radius int
		// ChunksPerStep caps how many chunks may activate in one streaming
		// step at the balanced performance tier.
		ChunksPerStep int
		// CacheCeiling is the maximum number of chunk manifests kept in
		// memory at the balanced performance tier.
		CacheCeiling int
		// SnapshotRadius is the radius in chunks around the observer stored
		// in surroundings snapshots.
		SnapshotRadius int
	}
	Performance struct {
		// TargetFrameTimeMs is the frame time in milliseconds the governor
		// steers towards.
		TargetFrameTimeMs int
		// MemoryLimitMB is the memory ceiling in megabytes; one sample above
		// it lowers the performance tier immediately.
		MemoryLimitMB int
		// SampleWindow is the number of recent frames averaged by the
		// governor.
		SampleWindow int
		// ChecksToRaise and ChecksToLower are the consecutive governor
		// checks required before the tier is raised or lowered.
		ChecksToRaise int
		ChecksToLower int
		// InitialTier is the tier the world starts at. Valid values are
		// "minimal", "low", "balanced", "high" and "ultra".
		InitialTier string
	}
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.World.SaveData = true
	c.World.Folder = "world"
	c.World.Seed = 0
	c.Streaming.Radius = 4
	c.Streaming.ChunksPerStep = 4
	c.Streaming.CacheCeiling = 256
	c.Streaming.SnapshotRadius = 5
	c.Performance.TargetFrameTimeMs = 33
	c.Performance.MemoryLimitMB = 1024
	c.Performance.SampleWindow = 60
	c.Performance.ChecksToRaise = 10
	c.Performance.ChecksToLower = 5
	c.Performance.InitialTier = "balanced"
	return c
}

// LoadConfig reads a UserConfig from the TOML file at the path passed. If the
// file does not exist yet, it is created holding the default configuration.
func LoadConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		encoded, err := toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Config converts the UserConfig to a world.Config, opening the world
// database if saving is enabled. The returned config can be further adjusted,
// typically by setting a Scene and Metrics, before world.Config.New is
// called.
func (uc UserConfig) Config(log *slog.Logger) (world.Config, error) {
	if log == nil {
		log = slog.Default()
	}
	tier := world.TierBalanced
	if name := strings.TrimSpace(strings.ToLower(uc.Performance.InitialTier)); name != "" {
		if parsed, ok := world.TierByName(name); ok {
			tier = parsed
		} else {
			log.Warn("Unknown performance tier, using balanced.", "value", uc.Performance.InitialTier)
		}
	}
	conf := world.Config{
		Log:            log,
		Seed:           uc.World.Seed,
		ReadOnly:       uc.World.ReadOnly,
		StreamRadius:   uc.Streaming.Radius,
		ChunksPerStep:  uc.Streaming.ChunksPerStep,
		CacheCeiling:   uc.Streaming.CacheCeiling,
		SnapshotRadius: uc.Streaming.SnapshotRadius,
		Governor: world.GovernorConfig{
			TargetFrameTime: time.Duration(uc.Performance.TargetFrameTimeMs) * time.Millisecond,
			MemoryLimitMB:   float64(uc.Performance.MemoryLimitMB),
			SampleWindow:    uc.Performance.SampleWindow,
			ChecksToRaise:   uc.Performance.ChecksToRaise,
			ChecksToLower:   uc.Performance.ChecksToLower,
			InitialTier:     tier,
		},
	}
	if uc.World.SaveData {
		prov, err := streamdb.Config{Log: log}.Open(uc.World.Folder)
		if err != nil {
			return conf, fmt.Errorf("create world provider: %w", err)
		}
		conf.Provider = prov
	}
	// A stored world keeps its original seed: the generator must be built
	// from it, not from the configured one, or chunk regeneration would no
	// longer reproduce the stored terrain.
	set := world.Settings{Seed: uc.World.Seed}
	if conf.Provider != nil {
		conf.Provider.Settings(&set)
	}
	conf.Seed = set.Seed
	conf.Generator = terra.New(set.Seed)
	return conf, nil
}
