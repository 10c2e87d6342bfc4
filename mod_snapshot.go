package skintrail

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// SnapshotModule is the headless presenter: every Every-th running frame is
// rasterized on the CPU and written to Dir as a PNG.
type SnapshotModule struct {
	Width      int
	Height     int
	Dir        string
	Every      uint64
	Background uint32
	// Feather is only used without a TrailModule; otherwise the trail's sprite shape wins.
	Feather  float32
	Caption  bool
	FontSize float64
}

func NewSnapshotModule(dir string) SnapshotModule {
	return SnapshotModule{
		Width:      800,
		Height:     600,
		Dir:        dir,
		Every:      30,
		Background: 0x101018,
		Feather:    0.05,
		Caption:    true,
		FontSize:   13,
	}
}

func (mod SnapshotModule) Install(app *App, cmd *Commands) {
	p, err := newSnapshotPresenter(mod, ensureCamera(app))
	if err != nil {
		panic(fmt.Sprintf("snapshot presenter: %v", err))
	}
	if mod.Caption {
		face, err := loadCaptionFace(mod.FontSize)
		if err != nil {
			app.Logger().Warnf("snapshot caption disabled: %v", err)
		} else {
			p.face = face
		}
	}
	if state, ok := Resource[TrailState](app); ok {
		p.shape = state.EmissionModel()
	}
	usePresenter(app, PresenterSnapshot, p)
	app.Logger().Infof("Writing %dx%d snapshots every %d frames to %s", p.width, p.height, p.every, p.dir)
}

type snapshotPresenter struct {
	width, height int
	dir           string
	every         uint64
	shape         core.EmissionModel
	background    color.RGBA
	camera        *Camera
	face          font.Face

	written int
}

func newSnapshotPresenter(mod SnapshotModule, camera *Camera) (*snapshotPresenter, error) {
	if mod.Width <= 0 || mod.Height <= 0 {
		return nil, fmt.Errorf("invalid snapshot size %dx%d", mod.Width, mod.Height)
	}
	if mod.Dir != "" {
		if err := os.MkdirAll(mod.Dir, 0o755); err != nil {
			return nil, err
		}
	}
	bg := core.ColorFromHex(mod.Background)
	shape := core.DefaultEmissionModel()
	shape.Feather = mod.Feather
	return &snapshotPresenter{
		width:      mod.Width,
		height:     mod.Height,
		dir:        mod.Dir,
		every:      max(mod.Every, 1),
		shape:      shape,
		background: color.RGBA{R: to8(bg.X()), G: to8(bg.Y()), B: to8(bg.Z()), A: 0xff},
		camera:     camera,
	}, nil
}

func loadCaptionFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

func (p *snapshotPresenter) Present(frame *TrailFrame) error {
	if frame.State != Running || frame.Frame%p.every != 0 {
		return nil
	}
	img := p.rasterize(frame)
	path := filepath.Join(p.dir, fmt.Sprintf("trail_%06d.png", frame.Frame))
	if err := writePNG(path, img); err != nil {
		return err
	}
	p.written++
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (p *snapshotPresenter) rasterize(frame *TrailFrame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.background), image.Point{}, draw.Src)

	viewProj := p.camera.ViewProjection(p.width, p.height)
	for _, batch := range frame.Batches {
		for _, inst := range batch.Instances {
			p.drawSprite(img, viewProj, inst)
		}
	}

	if p.face != nil {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: p.face,
			Dot:  fixed.P(8, 8+p.face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(fmt.Sprintf("frame %d  t=%.2f  %d particles  %.1f fps", frame.Frame, frame.Elapsed, frame.InstanceCount(), frame.FPS()))
	}
	return img
}

// drawSprite blends one screen-aligned quad of inst.Size pixels, masked by the
// emission model's opacity like the sprite fragment shader.
func (p *snapshotPresenter) drawSprite(dst *image.RGBA, viewProj mgl32.Mat4, inst core.ParticleInstance) {
	x, y, ok := ProjectToScreen(viewProj, mgl32.Vec3(inst.Pos), p.width, p.height)
	if !ok {
		return
	}
	bounds, mask := p.spriteMask(dst.Bounds(), x, y, inst.Size, inst.Color[3])
	if mask == nil {
		return
	}
	c := color.RGBA{R: to8(inst.Color[0]), G: to8(inst.Color[1]), B: to8(inst.Color[2]), A: 0xff}
	draw.DrawMask(dst, bounds, image.NewUniform(c), image.Point{}, mask, bounds.Min, draw.Over)
}

// spriteMask samples the opacity at every pixel centre of the quad centred on
// (cx, cy), clipped to clip. It returns a nil mask when nothing is visible.
func (p *snapshotPresenter) spriteMask(clip image.Rectangle, cx, cy, size, alpha float32) (image.Rectangle, *image.Alpha) {
	if !(size > 0) || math.IsInf(float64(size), 0) || alpha <= 0 {
		return image.Rectangle{}, nil
	}
	r := size * 0.5
	left, top := cx-r, cy-r
	bounds := image.Rect(
		clampPixel(math.Floor(float64(left)), clip.Min.X, clip.Max.X),
		clampPixel(math.Floor(float64(top)), clip.Min.Y, clip.Max.Y),
		clampPixel(math.Ceil(float64(cx+r)), clip.Min.X, clip.Max.X),
		clampPixel(math.Ceil(float64(cy+r)), clip.Min.Y, clip.Max.Y),
	)
	if bounds.Empty() {
		return image.Rectangle{}, nil
	}

	mask := image.NewAlpha(bounds)
	for py := bounds.Min.Y; py < bounds.Max.Y; py++ {
		v := (float32(py) + 0.5 - top) / size
		if v < 0 || v > 1 {
			continue
		}
		for px := bounds.Min.X; px < bounds.Max.X; px++ {
			u := (float32(px) + 0.5 - left) / size
			if u < 0 || u > 1 {
				continue
			}
			mask.SetAlpha(px, py, color.Alpha{A: to8(p.shape.Opacity(u, v) * alpha)})
		}
	}
	return bounds, mask
}

func clampPixel(v float64, lo, hi int) int {
	if v != v || v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}

func to8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
