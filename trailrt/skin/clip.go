package skin

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Track animates one bone. Times are ascending seconds; a nil channel keeps the rest value.
type Track struct {
	Bone         int
	Times        []float32
	Translations []mgl32.Vec3
	Rotations    []mgl32.Quat
	Scales       []mgl32.Vec3
}

type Clip struct {
	Name     string
	Duration float32
	Loop     bool
	Tracks   []Track
}

// LocalTime maps t onto the clip timeline (wrapping when looping, clamping otherwise).
func (c *Clip) LocalTime(t float32) float32 {
	if c.Duration <= 0 {
		return 0
	}
	if c.Loop {
		lt := float32(math.Mod(float64(t), float64(c.Duration)))
		if lt < 0 {
			lt += c.Duration
		}
		return lt
	}
	return mgl32.Clamp(t, 0, c.Duration)
}

// keySpan returns the bracketing key indices and the blend factor for time t.
func keySpan(times []float32, t float32) (int, int, float32) {
	n := len(times)
	if n == 1 || t <= times[0] {
		return 0, 0, 0
	}
	if t >= times[n-1] {
		return n - 1, n - 1, 0
	}
	hi := sort.Search(n, func(i int) bool { return times[i] > t })
	lo := hi - 1
	span := times[hi] - times[lo]
	if span <= 0 {
		return lo, lo, 0
	}
	return lo, hi, (t - times[lo]) / span
}

// Sample writes the clip pose at time t over the skeleton's rest pose.
func (c *Clip) Sample(t float32, s *Skeleton, dst []BoneTransform) {
	s.RestPose(dst)
	lt := c.LocalTime(t)
	for _, tr := range c.Tracks {
		if tr.Bone < 0 || tr.Bone >= len(dst) || len(tr.Times) == 0 {
			continue
		}
		lo, hi, f := keySpan(tr.Times, lt)
		bt := dst[tr.Bone]
		if len(tr.Translations) == len(tr.Times) {
			a, b := tr.Translations[lo], tr.Translations[hi]
			bt.Translation = a.Add(b.Sub(a).Mul(f))
		}
		if len(tr.Rotations) == len(tr.Times) {
			bt.Rotation = mgl32.QuatSlerp(tr.Rotations[lo], tr.Rotations[hi], f)
		}
		if len(tr.Scales) == len(tr.Times) {
			a, b := tr.Scales[lo], tr.Scales[hi]
			bt.Scale = a.Add(b.Sub(a).Mul(f))
		}
		dst[tr.Bone] = bt
	}
}
