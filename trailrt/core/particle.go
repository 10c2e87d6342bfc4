package core

// ParticleInstance is uploaded as-is into the sprite instance buffer:
// pos at 0, size at 12, color at 16, 32 bytes per instance.
type ParticleInstance struct {
	Pos   [3]float32
	Size  float32
	Color [4]float32
}
