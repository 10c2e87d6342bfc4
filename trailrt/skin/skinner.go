package skin

import (
	"errors"
	"fmt"

	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// SkinningSampler yields the skinned local-space position of every vertex at animation time t.
// Implementations return core.ErrMissingSkeleton when no pose can be produced.
type SkinningSampler interface {
	VertexCount() int
	Sample(t float32, dst []mgl32.Vec3) error
}

// ErrInvalidBinding means the per-vertex joints or weights do not fit the mesh or the skeleton.
var ErrInvalidBinding = errors.New("invalid skin binding")

// Skinner is a CPU linear-blend skinning sampler with up to four influences per vertex.
type Skinner struct {
	Skeleton *Skeleton
	Clip     *Clip

	BindPositions []mgl32.Vec3
	Joints        [][4]uint16
	Weights       [][4]float32

	local  []BoneTransform
	matrix []mgl32.Mat4
	// bound is the bone count the binding was last validated against, 0 if never.
	bound int
}

var _ SkinningSampler = (*Skinner)(nil)

func (s *Skinner) VertexCount() int {
	return len(s.BindPositions)
}

// Validate checks that every vertex has joints and weights and that every
// weighted joint exists in the skeleton.
func (s *Skinner) Validate() error {
	if s.Skeleton == nil || len(s.Skeleton.Bones) == 0 {
		return core.ErrMissingSkeleton
	}
	n := len(s.BindPositions)
	if len(s.Joints) != n || len(s.Weights) != n {
		return fmt.Errorf("%d vertices, %d joints, %d weights: %w", n, len(s.Joints), len(s.Weights), ErrInvalidBinding)
	}
	bones := len(s.Skeleton.Bones)
	for i := range n {
		for k := 0; k < 4; k++ {
			if s.Weights[i][k] != 0 && int(s.Joints[i][k]) >= bones {
				return fmt.Errorf("vertex %d uses joint %d of %d: %w", i, s.Joints[i][k], bones, ErrInvalidBinding)
			}
		}
	}
	return nil
}

func (s *Skinner) ensureScratch() error {
	n := len(s.Skeleton.Bones)
	if s.bound != n || len(s.Joints) != len(s.BindPositions) || len(s.Weights) != len(s.BindPositions) {
		if err := s.Validate(); err != nil {
			s.bound = 0
			return err
		}
		s.bound = n
	}
	if len(s.local) != n {
		s.local = make([]BoneTransform, n)
		s.matrix = make([]mgl32.Mat4, n)
	}
	return nil
}

// Sample evaluates the clip (or the rest pose without one) and skins every vertex.
func (s *Skinner) Sample(t float32, dst []mgl32.Vec3) error {
	if s.Skeleton == nil || len(s.Skeleton.Bones) == 0 {
		return core.ErrMissingSkeleton
	}
	if len(dst) != len(s.BindPositions) {
		return fmt.Errorf("sample into %d slots for %d vertices: %w", len(dst), len(s.BindPositions), core.ErrDimensionMismatch)
	}
	if err := s.ensureScratch(); err != nil {
		return err
	}

	if s.Clip != nil {
		s.Clip.Sample(t, s.Skeleton, s.local)
	} else {
		s.Skeleton.RestPose(s.local)
	}
	s.Skeleton.SkinMatrices(s.local, s.matrix)

	for i, p := range s.BindPositions {
		var acc mgl32.Vec3
		var total float32
		for k := 0; k < 4; k++ {
			w := s.Weights[i][k]
			if w == 0 {
				continue
			}
			j := int(s.Joints[i][k])
			acc = acc.Add(core.TransformPoint(s.matrix[j], p).Mul(w))
			total += w
		}
		if total == 0 {
			dst[i] = p
			continue
		}
		dst[i] = acc.Mul(1 / total)
	}
	return nil
}

// SamplerFunc adapts a function to SkinningSampler.
type SamplerFunc struct {
	Count int
	Fn    func(t float32, dst []mgl32.Vec3) error
}

func (f SamplerFunc) VertexCount() int { return f.Count }

func (f SamplerFunc) Sample(t float32, dst []mgl32.Vec3) error {
	if f.Fn == nil {
		return core.ErrMissingSkeleton
	}
	return f.Fn(t, dst)
}
