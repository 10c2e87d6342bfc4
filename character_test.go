package skintrail

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacter_Meshes(t *testing.T) {
	c := NewCharacter()
	a := c.AddMesh("a", &scriptedSampler{poses: [][]mgl32.Vec3{poseP0}})
	b := c.AddMesh("b", nil)

	assert.NotEqual(t, a.Id, b.Id)
	assert.Len(t, c.Meshes(), 2)
	assert.Equal(t, 3, a.VertexCount())
	assert.Equal(t, 0, b.VertexCount())
	assert.Same(t, b, c.Mesh(b.Id))

	assert.True(t, c.ReplaceSampler(b.Id, &scriptedSampler{poses: [][]mgl32.Vec3{poseP1}}))
	assert.Equal(t, 3, b.VertexCount())
	assert.False(t, c.ReplaceSampler("missing", nil))

	assert.True(t, c.RemoveMesh(a.Id))
	assert.False(t, c.RemoveMesh(a.Id))
	assert.Nil(t, c.Mesh(a.Id))
	require.Len(t, c.Meshes(), 1)
	assert.Equal(t, b.Id, c.Meshes()[0].Id)
}

func TestCharacter_WorldMatrix(t *testing.T) {
	c := NewCharacter()
	m := c.AddMesh("body", nil)
	m.Local.Position = mgl32.Vec3{0, 50, 0}

	world := c.WorldMatrix(m)
	p := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.True(t, near(p, mgl32.Vec3{0, -0.5, 0}, 1e-5), "got %v", p)
}
