package skin

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ColumnOptions shapes the procedural character used when no asset pipeline is present.
// Units are centimetres, so the usual 0.02 root scale applies.
type ColumnOptions struct {
	Height   float32
	Radius   float32
	Rings    int
	Segments int
	Bones    int

	// SwayDegrees is the peak bend per bone, SwayPeriod the clip duration in seconds.
	SwayDegrees float32
	SwayPeriod  float32
}

func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{
		Height:      180,
		Radius:      18,
		Rings:       24,
		Segments:    16,
		Bones:       4,
		SwayDegrees: 25,
		SwayPeriod:  2,
	}
}

// NewBendingColumn builds a skinned cylinder along +Y, a chain of bones up its axis
// and a looping sway clip that bends every joint around Z.
func NewBendingColumn(opts ColumnOptions) (*Skinner, error) {
	if opts.Rings < 2 || opts.Segments < 3 || opts.Bones < 1 {
		return nil, fmt.Errorf("column needs >= 2 rings, >= 3 segments and >= 1 bone, got %d/%d/%d",
			opts.Rings, opts.Segments, opts.Bones)
	}

	boneLen := opts.Height / float32(opts.Bones)
	bones := make([]Bone, opts.Bones)
	for i := range bones {
		rest := IdentityBoneTransform()
		if i > 0 {
			rest.Translation = mgl32.Vec3{0, boneLen, 0}
		}
		bones[i] = Bone{
			Name:   fmt.Sprintf("spine_%d", i),
			Parent: i - 1,
			Rest:   rest,
		}
	}
	skel, err := NewSkeleton(bones)
	if err != nil {
		return nil, err
	}
	skel.BindInverses()

	n := opts.Rings * opts.Segments
	positions := make([]mgl32.Vec3, 0, n)
	joints := make([][4]uint16, 0, n)
	weights := make([][4]float32, 0, n)

	for r := 0; r < opts.Rings; r++ {
		y := opts.Height * float32(r) / float32(opts.Rings-1)

		// Blend between the bone the ring sits in and the next one up.
		f := y / boneLen
		b0 := min(int(f), opts.Bones-1)
		b1 := min(b0+1, opts.Bones-1)
		w1 := mgl32.Clamp(f-float32(b0), 0, 1)
		if b0 == b1 {
			w1 = 0
		}

		for s := 0; s < opts.Segments; s++ {
			a := 2 * math.Pi * float64(s) / float64(opts.Segments)
			positions = append(positions, mgl32.Vec3{
				opts.Radius * float32(math.Cos(a)),
				y,
				opts.Radius * float32(math.Sin(a)),
			})
			joints = append(joints, [4]uint16{uint16(b0), uint16(b1), 0, 0})
			weights = append(weights, [4]float32{1 - w1, w1, 0, 0})
		}
	}

	s := &Skinner{
		Skeleton:      skel,
		Clip:          swayClip(opts),
		BindPositions: positions,
		Joints:        joints,
		Weights:       weights,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func swayClip(opts ColumnOptions) *Clip {
	const keys = 9
	clip := &Clip{
		Name:     "Sway",
		Duration: opts.SwayPeriod,
		Loop:     true,
	}
	for b := 0; b < opts.Bones; b++ {
		tr := Track{Bone: b}
		for k := 0; k < keys; k++ {
			phase := float64(k) / float64(keys-1)
			t := float32(phase) * opts.SwayPeriod
			// Each joint lags the one below it, so the column whips.
			angle := mgl32.DegToRad(opts.SwayDegrees) * float32(math.Sin(2*math.Pi*phase-float64(b)*0.6))
			tr.Times = append(tr.Times, t)
			tr.Rotations = append(tr.Rotations, mgl32.QuatRotate(angle, mgl32.Vec3{0, 0, 1}))
		}
		clip.Tracks = append(clip.Tracks, tr)
	}
	return clip
}
