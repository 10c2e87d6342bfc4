package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EmissionModel projects a committed VertexStateBuffer into renderable point sprites.
// It never writes to the buffer.
type EmissionModel struct {
	// StaticColor is used at zero speed, FastColor once the scaled speed reaches 1.
	StaticColor mgl32.Vec3
	FastColor   mgl32.Vec3

	// VelocityScale multiplies the speed before it is saturated into a blend factor.
	VelocityScale float32

	// Size = exp(speed) * SizeScale + MinSize
	SizeScale float32
	MinSize   float32

	// Feather is the half-width of the soft edge of the circular sprite mask,
	// in squared-radius units. Zero gives a hard edge.
	Feather float32
}

func DefaultEmissionModel() EmissionModel {
	return EmissionModel{
		StaticColor:   ColorFromHex(0xff0044),
		FastColor:     ColorFromHex(0x550000),
		VelocityScale: 1,
		SizeScale:     1,
		MinSize:       1,
		Feather:       0.05,
	}
}

// ColorFromHex converts 0xRRGGBB into linear [0,1] components.
func ColorFromHex(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}

func saturate(x float32) float32 {
	if x < 0 || x != x {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// PointSize grows exponentially with speed; MinSize keeps static points visible.
func (m EmissionModel) PointSize(speed float32) float32 {
	return float32(math.Exp(float64(speed)))*m.SizeScale + m.MinSize
}

func (m EmissionModel) PointColor(speed float32) mgl32.Vec3 {
	return lerpVec3(m.StaticColor, m.FastColor, saturate(speed*m.VelocityScale))
}

// Opacity is the sprite mask at sprite-local coordinates (u, v) in [0,1]^2.
func (m EmissionModel) Opacity(u, v float32) float32 {
	return ShapeCircle(u, v, m.Feather)
}

// ShapeCircle is a circular mask: 1 inside the inscribed circle, 0 outside,
// with a smoothstep ramp of half-width feather around the rim.
func ShapeCircle(u, v, feather float32) float32 {
	x := u*2 - 1
	y := v*2 - 1
	len2 := x*x + y*y
	if feather <= 0 {
		if len2 > 1 {
			return 0
		}
		return 1
	}
	return 1 - smoothstep(1-feather, 1+feather, len2)
}

func smoothstep(e0, e1, x float32) float32 {
	t := saturate((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// RenderPosition is position + offset * speedFactor * elapsed * life.
// A zero life pins the particle to its vertex for any elapsed time.
func RenderPosition(position mgl32.Vec3, p InstanceParams, elapsed float32) mgl32.Vec3 {
	if p.Life == 0 {
		return position
	}
	return position.Add(p.Offset.Mul(p.SpeedFactor * elapsed * p.Life))
}

// Project appends one instance per vertex to dst[:0] and returns it.
// An unseeded (or nil) buffer yields an empty slice.
func (m EmissionModel) Project(buf *VertexStateBuffer, params []InstanceParams, elapsed float32, dst []ParticleInstance) ([]ParticleInstance, error) {
	dst = dst[:0]
	if buf == nil || !buf.Seeded() {
		return dst, nil
	}
	if len(params) != buf.Len() {
		return dst, fmt.Errorf("project %d params over %d vertices: %w", len(params), buf.Len(), ErrDimensionMismatch)
	}

	positions := buf.Positions()
	velocities := buf.Velocities()
	for i := range positions {
		speed := velocities[i].Len()
		pos := RenderPosition(positions[i], params[i], elapsed)
		c := m.PointColor(speed)
		dst = append(dst, ParticleInstance{
			Pos:   [3]float32{pos.X(), pos.Y(), pos.Z()},
			Size:  m.PointSize(speed),
			Color: [4]float32{c.X(), c.Y(), c.Z(), 1},
		})
	}
	return dst, nil
}
