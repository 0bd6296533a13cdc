package world

import (
	"time"
)

// Tier is one of the five performance tiers a world runs at. The tier scales
// the streaming radius, the per-step activation budget and the cache ceiling,
// so that the world sheds work before the host misses frames.
type Tier int

const (
	TierMinimal Tier = iota
	TierLow
	TierBalanced
	TierHigh
	TierUltra
)

// RadiusScale returns the factor applied to the configured streaming radius
// at this tier.
func (t Tier) RadiusScale() float64 {
	switch t {
	case TierMinimal:
		return 0.5
	case TierLow:
		return 0.75
	case TierHigh:
		return 1.25
	case TierUltra:
		return 1.5
	}
	return 1
}

// BudgetScale returns the factor applied to the configured per-step
// activation budget at this tier.
func (t Tier) BudgetScale() float64 {
	switch t {
	case TierMinimal:
		return 0.5
	case TierLow:
		return 0.75
	case TierHigh:
		return 1.5
	case TierUltra:
		return 2
	}
	return 1
}

// CeilingScale returns the factor applied to the configured cache ceiling at
// this tier.
func (t Tier) CeilingScale() float64 {
	switch t {
	case TierMinimal:
		return 0.5
	case TierLow:
		return 0.75
	case TierHigh:
		return 1.25
	case TierUltra:
		return 1.5
	}
	return 1
}

// String returns the name of the tier.
func (t Tier) String() string {
	switch t {
	case TierMinimal:
		return "minimal"
	case TierLow:
		return "low"
	case TierBalanced:
		return "balanced"
	case TierHigh:
		return "high"
	case TierUltra:
		return "ultra"
	}
	return "unknown"
}

// TierByName returns the tier with the name passed. If the name is not a
// known tier name, false is returned.
func TierByName(name string) (Tier, bool) {
	for t := TierMinimal; t <= TierUltra; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return TierBalanced, false
}

// raiseFraction is the fraction of the target frame time the rolling average
// must stay under before the governor considers raising the tier. The gap
// between it and the demotion threshold keeps the tier from oscillating when
// frame times hover around the target.
const raiseFraction = 0.75

// GovernorConfig holds the tuning of the resource governor of a World.
type GovernorConfig struct {
	// TargetFrameTime is the frame duration the governor steers towards.
	// Defaults to 33ms, roughly 30 frames per second.
	TargetFrameTime time.Duration
	// MemoryLimitMB is the memory ceiling in megabytes. A single sample
	// above it lowers the tier immediately, without waiting for the rolling
	// average. Defaults to 1024.
	MemoryLimitMB float64
	// SampleWindow is the number of recent samples the rolling averages are
	// computed over. Defaults to 60.
	SampleWindow int
	// ChecksToRaise is the number of consecutive samples whose rolling
	// average is comfortably under target before the tier is raised one
	// step. Defaults to 10.
	ChecksToRaise int
	// ChecksToLower is the number of consecutive samples whose rolling
	// average is over target before the tier is lowered one step. It
	// defaults to 5, deliberately lower than ChecksToRaise: the governor
	// backs off quickly and recovers carefully.
	ChecksToLower int
	// InitialTier is the tier the world starts at. Defaults to
	// TierBalanced.
	InitialTier Tier
}

// withDefaults returns the config with all zero values replaced by their
// defaults.
func (conf GovernorConfig) withDefaults() GovernorConfig {
	if conf.TargetFrameTime <= 0 {
		conf.TargetFrameTime = 33 * time.Millisecond
	}
	if conf.MemoryLimitMB <= 0 {
		conf.MemoryLimitMB = 1024
	}
	if conf.SampleWindow <= 0 {
		conf.SampleWindow = 60
	}
	if conf.ChecksToRaise <= 0 {
		conf.ChecksToRaise = 10
	}
	if conf.ChecksToLower <= 0 {
		conf.ChecksToLower = 5
	}
	if conf.InitialTier < TierMinimal || conf.InitialTier > TierUltra {
		conf.InitialTier = TierBalanced
	}
	return conf
}

// performanceSample is one frame time and memory usage measurement fed to the
// governor.
type performanceSample struct {
	frame time.Duration
	memMB float64
}

// governor keeps a ring of recent performance samples and decides the
// performance tier of the world. It is accessed only from the goroutine
// driving the world, so it holds no locks.
type governor struct {
	conf    GovernorConfig
	samples []performanceSample
	head    int
	filled  int

	tier        Tier
	raiseStreak int
	lowerStreak int
}

// newGovernor creates a governor with the config passed, filling in defaults
// for zero values.
func newGovernor(conf GovernorConfig) *governor {
	conf = conf.withDefaults()
	return &governor{
		conf:    conf,
		samples: make([]performanceSample, conf.SampleWindow),
		tier:    conf.InitialTier,
	}
}

// Tier returns the current performance tier.
func (g *governor) Tier() Tier {
	return g.tier
}

// Averages returns the rolling average frame time and memory usage over the
// sample window. Both are zero while no samples were recorded yet.
func (g *governor) Averages() (time.Duration, float64) {
	if g.filled == 0 {
		return 0, 0
	}
	var frame time.Duration
	var mem float64
	for i := 0; i < g.filled; i++ {
		frame += g.samples[i].frame
		mem += g.samples[i].memMB
	}
	return frame / time.Duration(g.filled), mem / float64(g.filled)
}

// Sample records one frame time and memory usage measurement, runs one tier
// check against the rolling averages and returns the tier before and after
// the check. The returned tiers are equal if the tier did not change.
func (g *governor) Sample(frame time.Duration, memMB float64) (before, after Tier) {
	g.samples[g.head] = performanceSample{frame: frame, memMB: memMB}
	g.head = (g.head + 1) % len(g.samples)
	if g.filled < len(g.samples) {
		g.filled++
	}
	before = g.tier

	// Memory pressure is acted on per sample rather than on the average: by
	// the time a rolling average crosses a memory limit the host may already
	// be paging.
	if memMB > g.conf.MemoryLimitMB {
		g.lowerTier()
		return before, g.tier
	}

	avgFrame, _ := g.Averages()
	switch {
	case avgFrame > g.conf.TargetFrameTime:
		g.raiseStreak = 0
		g.lowerStreak++
		if g.lowerStreak >= g.conf.ChecksToLower {
			g.lowerTier()
		}
	case avgFrame < time.Duration(float64(g.conf.TargetFrameTime)*raiseFraction):
		g.lowerStreak = 0
		g.raiseStreak++
		if g.raiseStreak >= g.conf.ChecksToRaise {
			g.raiseTier()
		}
	default:
		g.raiseStreak = 0
		g.lowerStreak = 0
	}
	return before, g.tier
}

// lowerTier moves the governor one tier down, unless it is already at
// TierMinimal, and resets both streaks.
func (g *governor) lowerTier() {
	if g.tier > TierMinimal {
		g.tier--
	}
	g.raiseStreak, g.lowerStreak = 0, 0
}

// raiseTier moves the governor one tier up, unless it is already at
// TierUltra, and resets both streaks.
func (g *governor) raiseTier() {
	if g.tier < TierUltra {
		g.tier++
	}
	g.raiseStreak, g.lowerStreak = 0, 0
}
