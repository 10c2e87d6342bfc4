package skintrail

import (
	"slices"

	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/gekko3d/skintrail/trailrt/skin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type MeshId string

func newMeshId() MeshId {
	return MeshId(uuid.NewString())
}

// SkinnedMesh is one skinned surface of the character. Each mesh owns its own trail.
type SkinnedMesh struct {
	Id      MeshId
	Name    string
	Local   core.Transform
	Sampler skin.SkinningSampler
}

func (m *SkinnedMesh) VertexCount() int {
	if m.Sampler == nil {
		return 0
	}
	return m.Sampler.VertexCount()
}

// Character is the animated model whose vertices feed the trail. It is the only
// place meshes are registered; the trail systems reconcile their emitters with it
// every frame.
type Character struct {
	Root   core.Transform
	meshes []*SkinnedMesh
}

func NewCharacter() *Character {
	root := core.NewTransform()
	root.Position = mgl32.Vec3{0, -1.5, 0}
	root.Scale = mgl32.Vec3{0.02, 0.02, 0.02}
	return &Character{Root: root}
}

func (c *Character) AddMesh(name string, sampler skin.SkinningSampler) *SkinnedMesh {
	mesh := &SkinnedMesh{
		Id:      newMeshId(),
		Name:    name,
		Local:   core.NewTransform(),
		Sampler: sampler,
	}
	c.meshes = append(c.meshes, mesh)
	return mesh
}

// RemoveMesh disposes the mesh; its trail is torn down on the next frame.
func (c *Character) RemoveMesh(id MeshId) bool {
	idx := slices.IndexFunc(c.meshes, func(m *SkinnedMesh) bool { return m.Id == id })
	if idx < 0 {
		return false
	}
	c.meshes = slices.Delete(c.meshes, idx, idx+1)
	return true
}

// ReplaceSampler swaps the skinning source of a mesh. A different vertex count
// forces the trail to reseed.
func (c *Character) ReplaceSampler(id MeshId, sampler skin.SkinningSampler) bool {
	mesh := c.Mesh(id)
	if mesh == nil {
		return false
	}
	mesh.Sampler = sampler
	return true
}

func (c *Character) Mesh(id MeshId) *SkinnedMesh {
	for _, m := range c.meshes {
		if m.Id == id {
			return m
		}
	}
	return nil
}

func (c *Character) Meshes() []*SkinnedMesh {
	return c.meshes
}

func (c *Character) WorldMatrix(mesh *SkinnedMesh) mgl32.Mat4 {
	return c.Root.ObjectToWorld().Mul4(mesh.Local.ObjectToWorld())
}
