package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexStateBuffer_WriteVisibleAfterCommit(t *testing.T) {
	buf := NewVertexStateBuffer(2)
	require.Equal(t, 2, buf.Len())

	buf.Write(1, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 1})

	pos, vel := buf.Read(1)
	assert.Equal(t, mgl32.Vec3{}, pos, "staged write must not be visible before Commit")
	assert.Equal(t, mgl32.Vec3{}, vel)

	buf.Commit()
	pos, vel = buf.Read(1)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, pos)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, vel)
	assert.Equal(t, uint64(1), buf.Generation())
}

func TestVertexStateBuffer_OutOfRangePanics(t *testing.T) {
	buf := NewVertexStateBuffer(3)

	assert.Panics(t, func() { buf.Read(3) })
	assert.Panics(t, func() { buf.Read(-1) })
	assert.Panics(t, func() { buf.Write(3, mgl32.Vec3{}, mgl32.Vec3{}) })
}

func TestVertexStateBuffer_NotSeededByDefault(t *testing.T) {
	buf := NewVertexStateBuffer(4)
	if buf.Seeded() {
		t.Errorf("new buffer should not be seeded")
	}
}
