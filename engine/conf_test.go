package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hallowdale/emberfell/engine/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed loading config: %v", err)
	}
	if c != DefaultConfig() {
		t.Fatalf("first load returned %+v, want the defaults", c)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not created: %v", err)
	}

	// The created file must parse back to the same configuration.
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed reloading config: %v", err)
	}
	if again != c {
		t.Fatalf("reload returned %+v, want %+v", again, c)
	}
}

func TestLoadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[World]\nSeed = 77\n\n[Streaming]\nRadius = 9\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed writing config: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed loading config: %v", err)
	}
	if c.World.Seed != 77 || c.Streaming.Radius != 9 {
		t.Fatalf("configured values not applied: seed %v, radius %v", c.World.Seed, c.Streaming.Radius)
	}
	if c.Streaming.CacheCeiling != 256 || c.Performance.InitialTier != "balanced" {
		t.Fatalf("missing fields lost their defaults: %+v", c)
	}
}

func TestUserConfigBuildsWorldConfig(t *testing.T) {
	uc := DefaultConfig()
	uc.World.SaveData = false
	uc.World.Seed = 42
	uc.Streaming.Radius = 6
	uc.Performance.InitialTier = "ultra"

	conf, err := uc.Config(testLogger())
	if err != nil {
		t.Fatalf("failed building world config: %v", err)
	}
	if conf.Seed != 42 || conf.StreamRadius != 6 {
		t.Fatalf("config not mapped: seed %v, radius %v", conf.Seed, conf.StreamRadius)
	}
	if conf.Provider != nil {
		t.Fatalf("a provider was created with saving disabled")
	}
	if conf.Generator == nil {
		t.Fatalf("no generator was created")
	}

	w := conf.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})
	if w.Seed() != 42 {
		t.Fatalf("world seed is %v, want 42", w.Seed())
	}
	if w.Tier() != world.TierUltra {
		t.Fatalf("world starts at tier %v, want %v", w.Tier(), world.TierUltra)
	}
}

func TestUserConfigUnknownTierFallsBack(t *testing.T) {
	uc := DefaultConfig()
	uc.World.SaveData = false
	uc.Performance.InitialTier = "potato"

	conf, err := uc.Config(testLogger())
	if err != nil {
		t.Fatalf("failed building world config: %v", err)
	}
	if conf.Governor.InitialTier != world.TierBalanced {
		t.Fatalf("initial tier is %v, want the balanced fallback", conf.Governor.InitialTier)
	}
}

func TestUserConfigStoredSeedWins(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "world")

	uc := DefaultConfig()
	uc.World.Folder = folder
	uc.World.Seed = 1

	conf, err := uc.Config(testLogger())
	if err != nil {
		t.Fatalf("failed building world config: %v", err)
	}
	w := conf.New()
	w.Save()
	if err := w.Close(); err != nil {
		t.Fatalf("failed closing world: %v", err)
	}

	// Reopening the same folder with another configured seed must keep the
	// stored one, or regeneration would no longer match the stored terrain.
	uc.World.Seed = 999
	conf, err = uc.Config(testLogger())
	if err != nil {
		t.Fatalf("failed building world config: %v", err)
	}
	if conf.Seed != 1 {
		t.Fatalf("config seed is %v, want the stored 1", conf.Seed)
	}
	w = conf.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})
	if w.Seed() != 1 {
		t.Fatalf("world seed is %v, want the stored 1", w.Seed())
	}
}
