package skintrail

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshotPresenter(t *testing.T, dir string) *snapshotPresenter {
	t.Helper()
	mod := NewSnapshotModule(dir)
	mod.Width, mod.Height = 200, 100
	mod.Every = 2
	mod.Caption = false
	p, err := newSnapshotPresenter(mod, DefaultCamera())
	require.NoError(t, err)
	return p
}

func TestProjectToScreen(t *testing.T) {
	cam := DefaultCamera()
	vp := cam.ViewProjection(200, 100)

	x, y, ok := ProjectToScreen(vp, mgl32.Vec3{0, 0, 0}, 200, 100)
	require.True(t, ok)
	assert.InDelta(t, 100, x, 1e-3)
	assert.InDelta(t, 50, y, 1e-3)

	// Up in world space is up on screen.
	_, yUp, _ := ProjectToScreen(vp, mgl32.Vec3{0, 1, 0}, 200, 100)
	assert.Less(t, yUp, y)

	_, _, ok = ProjectToScreen(vp, mgl32.Vec3{0, 0, 10}, 200, 100)
	assert.False(t, ok)
}

func TestSnapshot_RasterizesSprites(t *testing.T) {
	p := testSnapshotPresenter(t, t.TempDir())
	frame := &TrailFrame{
		State: Running,
		Batches: []TrailBatch{{
			Instances: []core.ParticleInstance{{
				Pos:   [3]float32{0, 0, 0},
				Size:  20,
				Color: [4]float32{1, 0, 0, 1},
			}},
		}},
	}

	img := p.rasterize(frame)
	center := img.RGBAAt(100, 50)
	assert.Greater(t, center.R, uint8(200))
	assert.Less(t, center.G, uint8(40))

	corner := img.RGBAAt(2, 2)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff}, corner)

	// Outside the sprite radius.
	assert.Equal(t, corner, img.RGBAAt(100+15, 50))
}

func TestSnapshot_SpriteMaskFollowsShapeCircle(t *testing.T) {
	p := testSnapshotPresenter(t, t.TempDir())
	p.shape.Feather = 0.3
	clip := image.Rect(0, 0, p.width, p.height)

	bounds, mask := p.spriteMask(clip, 100, 50, 20, 1)
	require.NotNil(t, mask)
	assert.Equal(t, image.Rect(90, 40, 110, 60), bounds)

	partial := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			u := (float32(x) + 0.5 - 90) / 20
			v := (float32(y) + 0.5 - 40) / 20
			want := to8(core.ShapeCircle(u, v, 0.3))
			got := mask.AlphaAt(x, y).A
			if got != want {
				t.Errorf("pixel (%d,%d): expected alpha %d, got %d", x, y, want, got)
			}
			if got > 0 && got < 0xff {
				partial++
			}
		}
	}
	assert.Equal(t, uint8(0xff), mask.AlphaAt(100, 50).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(90, 40).A)
	assert.Positive(t, partial, "rim should be feathered")

	// Instance alpha scales the whole mask.
	_, half := p.spriteMask(clip, 100, 50, 20, 0.5)
	assert.Equal(t, uint8(128), half.AlphaAt(100, 50).A)

	_, none := p.spriteMask(clip, 100, 50, 0, 1)
	assert.Nil(t, none)
	_, offscreen := p.spriteMask(clip, -50, 50, 20, 1)
	assert.Nil(t, offscreen)
}

func TestSnapshotModule_UsesTrailSpriteShape(t *testing.T) {
	trail := serialTrail()
	trail.SpriteFeather = 0.2
	mod := NewSnapshotModule(t.TempDir())
	mod.Caption = false

	app := NewTrailAppBuilder().UseModule(trail, mod).Build()
	slot, _ := Resource[PresenterSlot](app)
	p, ok := slot.Presenter.(*snapshotPresenter)
	require.True(t, ok)
	assert.Equal(t, float32(0.2), p.shape.Feather)
}

func TestSnapshot_ClipsAtImageEdge(t *testing.T) {
	p := testSnapshotPresenter(t, t.TempDir())
	vp := p.camera.ViewProjection(p.width, p.height)

	// A point right at the left edge must not panic.
	frame := &TrailFrame{State: Running, Batches: []TrailBatch{{
		Instances: []core.ParticleInstance{{Pos: [3]float32{-6.9, 0, 0}, Size: 40, Color: [4]float32{0, 1, 0, 1}}},
	}}}
	x, _, ok := ProjectToScreen(vp, mgl32.Vec3{-6.9, 0, 0}, p.width, p.height)
	require.True(t, ok)
	require.Less(t, x, float32(20))
	assert.NotPanics(t, func() { p.rasterize(frame) })
}

func TestSnapshot_WritesEveryNthRunningFrame(t *testing.T) {
	dir := t.TempDir()
	p := testSnapshotPresenter(t, dir)

	for f := uint64(0); f < 5; f++ {
		require.NoError(t, p.Present(&TrailFrame{Frame: f, State: Running}))
	}
	require.NoError(t, p.Present(&TrailFrame{Frame: 6, State: Uninitialized}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"trail_000000.png", "trail_000002.png", "trail_000004.png"}, names)
	assert.Equal(t, 3, p.written)
}

func TestSnapshotModule_InstallsPresenter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	mod := NewSnapshotModule(dir)
	mod.Width, mod.Height = 64, 48

	app := NewTrailAppBuilder().UseModule(serialTrail(), mod).Build()
	slot, ok := Resource[PresenterSlot](app)
	require.True(t, ok)
	assert.Equal(t, PresenterSnapshot, slot.Name)
	assert.DirExists(t, dir)

	_, ok = Resource[Camera](app)
	assert.True(t, ok)
}

func TestLoadCaptionFace(t *testing.T) {
	face, err := loadCaptionFace(13)
	require.NoError(t, err)
	assert.Positive(t, face.Metrics().Ascent.Ceil())
}
