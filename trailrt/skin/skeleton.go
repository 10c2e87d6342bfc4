package skin

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BoneTransform is a local translation / rotation / scale relative to the parent bone.
type BoneTransform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

func IdentityBoneTransform() BoneTransform {
	return BoneTransform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (b BoneTransform) Mat4() mgl32.Mat4 {
	t := mgl32.Translate3D(b.Translation.X(), b.Translation.Y(), b.Translation.Z())
	r := b.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(b.Scale.X(), b.Scale.Y(), b.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

type Bone struct {
	Name   string
	Parent int // -1 for roots
	// InverseBind maps mesh space into this bone's bind space.
	InverseBind mgl32.Mat4
	Rest        BoneTransform
}

// Skeleton holds bones ordered so that every parent precedes its children.
type Skeleton struct {
	Bones []Bone
}

func NewSkeleton(bones []Bone) (*Skeleton, error) {
	for i, b := range bones {
		if b.Parent >= i {
			return nil, fmt.Errorf("bone %d (%s): parent %d must precede it", i, b.Name, b.Parent)
		}
		if b.Parent < -1 {
			return nil, fmt.Errorf("bone %d (%s): invalid parent %d", i, b.Name, b.Parent)
		}
	}
	return &Skeleton{Bones: bones}, nil
}

// BindInverses fills InverseBind from the rest pose, so the rest pose skins to the bind mesh.
func (s *Skeleton) BindInverses() {
	rest := make([]BoneTransform, len(s.Bones))
	for i, b := range s.Bones {
		rest[i] = b.Rest
	}
	global := make([]mgl32.Mat4, len(s.Bones))
	s.globalMatrices(rest, global)
	for i := range s.Bones {
		s.Bones[i].InverseBind = global[i].Inv()
	}
}

func (s *Skeleton) RestPose(dst []BoneTransform) {
	for i, b := range s.Bones {
		dst[i] = b.Rest
	}
}

func (s *Skeleton) globalMatrices(local []BoneTransform, dst []mgl32.Mat4) {
	for i, b := range s.Bones {
		m := local[i].Mat4()
		if b.Parent >= 0 {
			m = dst[b.Parent].Mul4(m)
		}
		dst[i] = m
	}
}

// SkinMatrices computes global * inverseBind for each bone.
func (s *Skeleton) SkinMatrices(local []BoneTransform, dst []mgl32.Mat4) {
	s.globalMatrices(local, dst)
	for i, b := range s.Bones {
		dst[i] = dst[i].Mul4(b.InverseBind)
	}
}
