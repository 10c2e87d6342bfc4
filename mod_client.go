package skintrail

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/gekko3d/skintrail/trailrt/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ClientModule opens a window and presents the trail with the wgpu sprite pass.
// Closing the window moves the app to Shutdown.
type ClientModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
	ClearColor   uint32
	// Feather is only used without a TrailModule; otherwise the trail's sprite shape wins.
	Feather float32
}

func NewClientModule(width, height int, title string) ClientModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "skintrail"
	}
	return ClientModule{
		WindowWidth:  width,
		WindowHeight: height,
		WindowTitle:  title,
		ClearColor:   0x000000,
		Feather:      0.05,
	}
}

type clientState struct {
	window    *WindowState
	gpu       *GpuState
	sprites   *gpu.SpritePass
	camera    *Camera
	clear     wgpu.Color
	feather   float32
	instances []core.ParticleInstance
}

func (mod ClientModule) Install(app *App, cmd *Commands) {
	ws, err := createWindowState(mod.WindowWidth, mod.WindowHeight, mod.WindowTitle)
	if err != nil {
		panic(fmt.Sprintf("create window: %v", err))
	}
	gs, err := createGpuState(ws)
	if err != nil {
		panic(err)
	}
	sprites, err := gpu.NewSpritePass(gs.device, gs.surfaceConfig.Format)
	if err != nil {
		panic(fmt.Sprintf("sprite pass: %v", err))
	}

	bg := core.ColorFromHex(mod.ClearColor)
	state := &clientState{
		window:  ws,
		gpu:     gs,
		sprites: sprites,
		camera:  ensureCamera(app),
		clear:   wgpu.Color{R: float64(bg.X()), G: float64(bg.Y()), B: float64(bg.Z()), A: 1},
		feather: mod.Feather,
	}
	if trail, ok := Resource[TrailState](app); ok {
		state.feather = trail.EmissionModel().Feather
	}
	cmd.AddResources(ws, gs, state)
	usePresenter(app, PresenterWGPU, state)
	app.Logger().Infof("Created window (%dx%d) '%s'", mod.WindowWidth, mod.WindowHeight, mod.WindowTitle)

	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude).
			RunAlways(),
	)
	app.UseSystem(
		System(clientTeardownSystem).
			InStage(Finale).
			InState(OnEnter(Shutdown)),
	)
}

func windowEventsSystem(cmd *Commands, state *clientState) {
	glfw.PollEvents()
	if state.window.resized {
		state.window.resized = false
		state.gpu.resize(state.window.WindowWidth, state.window.WindowHeight)
	}
	if state.window.windowGlfw.ShouldClose() && cmd.State() != Shutdown {
		cmd.Logger().Infof("window closed")
		cmd.ChangeState(Shutdown)
	}
}

func clientTeardownSystem(state *clientState) {
	state.sprites.Release()
	state.gpu.release()
	state.window.destroy()
}

func (s *clientState) Present(frame *TrailFrame) error {
	width, height := s.window.WindowWidth, s.window.WindowHeight
	if width <= 0 || height <= 0 {
		return nil // minimized
	}

	s.instances = frame.AppendInstances(s.instances[:0])
	queue := s.gpu.queue
	if err := s.sprites.Update(queue, s.instances); err != nil {
		return fmt.Errorf("upload instances: %w", err)
	}
	err := s.sprites.UpdateCamera(queue, gpu.CameraData{
		ViewProj: s.camera.ViewProjection(width, height),
		Viewport: [4]float32{float32(width), float32(height), s.feather, 0},
	})
	if err != nil {
		return fmt.Errorf("upload camera: %w", err)
	}

	nextTexture, err := s.gpu.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := s.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: s.clear,
		}},
	})
	s.sprites.Draw(pass)
	if err := pass.End(); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	queue.Submit(cmdBuf)
	s.gpu.surface.Present()
	return nil
}
