package core

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceParams are the immutable procedural parameters of one trail particle.
type InstanceParams struct {
	Life        float32    // [0, LifeRange)
	SpeedFactor float32    // [SpeedMin, SpeedMax)
	Offset      mgl32.Vec3 // each component in [OffsetMin, OffsetMax)
}

type ParamRanges struct {
	LifeRange float32
	SpeedMin  float32
	SpeedMax  float32
	OffsetMin float32
	OffsetMax float32
}

func DefaultParamRanges() ParamRanges {
	return ParamRanges{
		LifeRange: 0.2,
		SpeedMin:  0.5,
		SpeedMax:  2.0,
		OffsetMin: -1,
		OffsetMax: 1,
	}
}

// randomIn samples [lo, hi) and never returns hi, even after float32 rounding.
func randomIn(rng *rand.Rand, lo, hi float32) float32 {
	if hi <= lo {
		return lo
	}
	v := float32(float64(lo) + rng.Float64()*(float64(hi)-float64(lo)))
	if v >= hi {
		v = math.Nextafter32(hi, lo)
	}
	if v < lo {
		v = lo
	}
	return v
}

// InstanceParamsAt derives the parameters of instance index from seed alone.
// The same (seed, index) pair always yields the same values.
func InstanceParamsAt(index int, seed uint64, r ParamRanges) InstanceParams {
	rng := rand.New(rand.NewPCG(seed, uint64(index)))

	var p InstanceParams
	p.Life = randomIn(rng, 0, r.LifeRange)
	p.SpeedFactor = randomIn(rng, r.SpeedMin, r.SpeedMax)
	p.Offset = mgl32.Vec3{
		randomIn(rng, r.OffsetMin, r.OffsetMax),
		randomIn(rng, r.OffsetMin, r.OffsetMax),
		randomIn(rng, r.OffsetMin, r.OffsetMax),
	}
	return p
}

// GenerateInstanceParams builds the parameter table for n instances.
func GenerateInstanceParams(n int, seed uint64, r ParamRanges) []InstanceParams {
	out := make([]InstanceParams, n)
	for i := range out {
		out[i] = InstanceParamsAt(i, seed, r)
	}
	return out
}
