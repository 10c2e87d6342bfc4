package skintrail

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the view shared by every presenter.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // vertical, degrees
	Near     float32
	Far      float32
}

func DefaultCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 5},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      75,
		Near:     0.1,
		Far:      1000,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// ProjectToScreen maps a world point to pixel coordinates with the origin at the
// top left. ok is false for points behind the camera.
func ProjectToScreen(viewProj mgl32.Mat4, p mgl32.Vec3, width, height int) (x, y float32, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	x = (ndcX*0.5 + 0.5) * float32(width)
	y = (1 - (ndcY*0.5 + 0.5)) * float32(height)
	return x, y, true
}

func ensureCamera(app *App) *Camera {
	if cam, ok := Resource[Camera](app); ok {
		return cam
	}
	cam := DefaultCamera()
	app.addResources(cam)
	return cam
}
