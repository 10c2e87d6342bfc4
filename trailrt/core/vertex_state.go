package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type vertexPlane struct {
	pos []mgl32.Vec3
	vel []mgl32.Vec3
}

func newVertexPlane(n int) vertexPlane {
	return vertexPlane{
		pos: make([]mgl32.Vec3, n),
		vel: make([]mgl32.Vec3, n),
	}
}

// VertexStateBuffer stores the last world-space position and per-frame displacement
// of every vertex of one skinned mesh. It is double-buffered: Read sees the front
// plane, Write fills the back plane, and Commit publishes the back plane atomically.
// The length is fixed at allocation.
//
// One writer (the velocity pass) and any number of readers, never concurrently.
type VertexStateBuffer struct {
	front vertexPlane
	back  vertexPlane

	seeded     bool
	generation uint64
}

func NewVertexStateBuffer(vertexCount int) *VertexStateBuffer {
	if vertexCount < 0 {
		panic(fmt.Sprintf("vertex state buffer: negative vertex count %d", vertexCount))
	}
	return &VertexStateBuffer{
		front: newVertexPlane(vertexCount),
		back:  newVertexPlane(vertexCount),
	}
}

func (b *VertexStateBuffer) Len() int {
	return len(b.front.pos)
}

// Seeded reports whether the seeding pass has been committed.
func (b *VertexStateBuffer) Seeded() bool {
	return b.seeded
}

// Generation counts committed passes, seeding included.
func (b *VertexStateBuffer) Generation() uint64 {
	return b.generation
}

func (b *VertexStateBuffer) checkIndex(i int) {
	if i < 0 || i >= len(b.front.pos) {
		panic(fmt.Sprintf("vertex state buffer: index %d out of range [0, %d)", i, len(b.front.pos)))
	}
}

// Read returns the committed position and velocity of vertex i.
func (b *VertexStateBuffer) Read(i int) (position, velocity mgl32.Vec3) {
	b.checkIndex(i)
	return b.front.pos[i], b.front.vel[i]
}

// Write stages the state of vertex i. It becomes visible to Read after Commit.
func (b *VertexStateBuffer) Write(i int, position, velocity mgl32.Vec3) {
	b.checkIndex(i)
	b.back.pos[i] = position
	b.back.vel[i] = velocity
}

// Commit swaps the planes so every staged write becomes visible at once.
func (b *VertexStateBuffer) Commit() {
	b.front, b.back = b.back, b.front
	b.generation++
}

func (b *VertexStateBuffer) markSeeded() {
	b.seeded = true
}

// Positions exposes the committed positions. Callers must not mutate the slice.
func (b *VertexStateBuffer) Positions() []mgl32.Vec3 {
	return b.front.pos
}

// Velocities exposes the committed velocities. Callers must not mutate the slice.
func (b *VertexStateBuffer) Velocities() []mgl32.Vec3 {
	return b.front.vel
}

// writeRange stages positions for [start, end) from the committed plane. Used by the
// velocity pass workers; each worker owns a disjoint range.
func (b *VertexStateBuffer) writeRange(start, end int, world mgl32.Mat4, skinned []mgl32.Vec3, seed bool) {
	prev := b.front.pos
	nextPos := b.back.pos
	nextVel := b.back.vel
	for i := start; i < end; i++ {
		p := TransformPoint(world, skinned[i])
		if seed {
			nextPos[i] = p
			nextVel[i] = mgl32.Vec3{}
			continue
		}
		nextVel[i] = p.Sub(prev[i])
		nextPos[i] = p
	}
}
