package terra

import (
	"math"

	"github.com/segmentio/fasthash/fnv1a"
)

// octaveNoise is deterministic 2D value noise with multiple octaves. Lattice
// values are derived by hashing the lattice coordinates with the seed, so the
// field is stable across runs and sessions for the same seed.
type octaveNoise struct {
	seed        int64
	octaves     int
	frequency   float64
	persistence float64
	lacunarity  float64
}

func newOctaveNoise(seed int64, octaves int, frequency float64) *octaveNoise {
	return &octaveNoise{
		seed:        seed,
		octaves:     octaves,
		frequency:   frequency,
		persistence: 0.5,
		lacunarity:  2,
	}
}

// at samples the noise field at the world position passed and returns a value
// in the range [0, 1]. Sampling happens in world space, never in chunk-local
// space: two chunks sampling the same world position get the same value,
// which is what keeps chunk seams invisible.
func (n *octaveNoise) at(x, z float64) float64 {
	amplitude, frequency := 1.0, n.frequency
	var sum, norm float64
	for i := 0; i < n.octaves; i++ {
		sum += valueNoise(x*frequency, z*frequency, n.seed+int64(i)*131) * amplitude
		norm += amplitude
		amplitude *= n.persistence
		frequency *= n.lacunarity
	}
	return sum / norm
}

// valueNoise samples single-octave value noise at the position passed,
// interpolating between the four surrounding lattice values.
func valueNoise(x, z float64, seed int64) float64 {
	x0, z0 := math.Floor(x), math.Floor(z)
	fx, fz := fade(x-x0), fade(z-z0)

	v00 := lattice(int64(x0), int64(z0), seed)
	v10 := lattice(int64(x0)+1, int64(z0), seed)
	v01 := lattice(int64(x0), int64(z0)+1, seed)
	v11 := lattice(int64(x0)+1, int64(z0)+1, seed)

	low := v00 + (v10-v00)*fx
	high := v01 + (v11-v01)*fx
	return low + (high-low)*fz
}

// lattice returns the noise value in [0, 1] at an integer lattice point.
func lattice(x, z int64, seed int64) float64 {
	h := fnv1a.Init64
	h = fnv1a.AddUint64(h, uint64(x))
	h = fnv1a.AddUint64(h, uint64(z))
	h = fnv1a.AddUint64(h, uint64(seed))
	return float64(h>>11) / float64(1<<53)
}

// fade smooths an interpolation weight with the 6t^5-15t^4+10t^3 curve, so
// the noise has no visible lattice creases.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}
