package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededBuffer(t *testing.T) *VertexStateBuffer {
	t.Helper()
	pass := NewVelocityPass(1)
	buf := NewVertexStateBuffer(3)
	require.NoError(t, pass.Seed(buf, mgl32.Ident4(), startupPose()))
	require.NoError(t, pass.Step(buf, mgl32.Ident4(), []mgl32.Vec3{{0, 0, 1}, {1, 0, 3}, {0, 0, 0}}))
	return buf
}

func TestEmission_UnseededYieldsNothing(t *testing.T) {
	m := DefaultEmissionModel()
	out, err := m.Project(NewVertexStateBuffer(3), GenerateInstanceParams(3, 1, DefaultParamRanges()), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = m.Project(nil, nil, 1, make([]ParticleInstance, 4))
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestEmission_SizeAndColor(t *testing.T) {
	m := DefaultEmissionModel()
	buf := seededBuffer(t)
	params := make([]InstanceParams, 3)

	out, err := m.Project(buf, params, 5, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// |v| = 1
	assert.InDelta(t, math.E+1, out[0].Size, 1e-5)
	fast := m.FastColor
	for c := 0; c < 3; c++ {
		assert.InDelta(t, fast[c], out[0].Color[c], 1e-6)
	}
	assert.Equal(t, float32(1), out[0].Color[3])

	// |v| = 3 saturates to the fast color as well
	assert.InDelta(t, math.Exp(3)+1, out[1].Size, 1e-3)
	assert.Equal(t, out[0].Color, out[1].Color)

	// vertex 2 moved from x=2 back to x=0, |v| = 2
	assert.InDelta(t, math.Exp(2)+1, out[2].Size, 1e-4)
}

func TestEmission_StaticVertexUsesStaticColor(t *testing.T) {
	m := DefaultEmissionModel()
	assert.Equal(t, float32(2), m.PointSize(0))
	assert.Equal(t, m.StaticColor, m.PointColor(0))

	half := m.PointColor(0.5)
	want := m.StaticColor.Add(m.FastColor).Mul(0.5)
	assert.True(t, near(half, want, 1e-6), "got %v want %v", half, want)
}

func TestEmission_DegenerateLife(t *testing.T) {
	pos := mgl32.Vec3{0.1, 0.2, 0.3}
	p := InstanceParams{Life: 0, SpeedFactor: 1.7, Offset: mgl32.Vec3{0.9, -0.4, 0.2}}

	for _, elapsed := range []float32{0, 1, 1e6, float32(math.Inf(1))} {
		assert.Equal(t, pos, RenderPosition(pos, p, elapsed))
	}
}

func TestEmission_RenderPositionDrift(t *testing.T) {
	pos := mgl32.Vec3{1, 0, 0}
	p := InstanceParams{Life: 0.1, SpeedFactor: 2, Offset: mgl32.Vec3{1, -1, 0.5}}

	got := RenderPosition(pos, p, 3)
	want := mgl32.Vec3{1.6, -0.6, 0.3}
	assert.True(t, near(got, want, 1e-6), "got %v want %v", got, want)
}

func TestEmission_Deterministic(t *testing.T) {
	m := DefaultEmissionModel()
	params := GenerateInstanceParams(3, 99, DefaultParamRanges())

	a, err := m.Project(seededBuffer(t), params, 0.37, nil)
	require.NoError(t, err)
	b, err := m.Project(seededBuffer(t), params, 0.37, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmission_ParamMismatch(t *testing.T) {
	m := DefaultEmissionModel()
	_, err := m.Project(seededBuffer(t), make([]InstanceParams, 2), 0, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestShapeCircle(t *testing.T) {
	assert.Equal(t, float32(1), ShapeCircle(0.5, 0.5, 0.05))
	assert.Equal(t, float32(0), ShapeCircle(0, 0, 0.05))
	assert.Equal(t, float32(1), ShapeCircle(0.5, 0.99, 0))
	assert.Equal(t, float32(0), ShapeCircle(0.95, 0.95, 0))

	rim := ShapeCircle(1, 0.5, 0.05)
	assert.InDelta(t, 0.5, rim, 1e-5)
}

func TestColorFromHex(t *testing.T) {
	c := ColorFromHex(0xff0044)
	assert.Equal(t, float32(1), c.X())
	assert.Equal(t, float32(0), c.Y())
	assert.InDelta(t, 68.0/255.0, c.Z(), 1e-7)
}
