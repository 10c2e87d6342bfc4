package skintrail

import (
	"fmt"
	"time"

	"github.com/gekko3d/skintrail/trailrt/core"
)

// TrailBatch holds the instances of one mesh for the current frame. Instances is
// reused by the next frame, so presenters must consume it before returning.
type TrailBatch struct {
	Mesh      MeshId
	Instances []core.ParticleInstance
}

// TrailFrame is what the trail hands to the presenter each tick.
type TrailFrame struct {
	Frame     uint64
	Elapsed   float32
	// FrameTime is the smoothed wall-clock frame time, for display only.
	FrameTime time.Duration
	State     State
	Batches   []TrailBatch
}

// FPS is 0 until the frame time is known.
func (f *TrailFrame) FPS() float64 {
	if f.FrameTime <= 0 {
		return 0
	}
	return float64(time.Second) / float64(f.FrameTime)
}

func (f *TrailFrame) InstanceCount() int {
	n := 0
	for _, b := range f.Batches {
		n += len(b.Instances)
	}
	return n
}

// AppendInstances flattens every batch into dst.
func (f *TrailFrame) AppendInstances(dst []core.ParticleInstance) []core.ParticleInstance {
	for _, b := range f.Batches {
		dst = append(dst, b.Instances...)
	}
	return dst
}

type Presenter interface {
	Present(frame *TrailFrame) error
}

type PresenterFunc func(frame *TrailFrame) error

func (f PresenterFunc) Present(frame *TrailFrame) error {
	return f(frame)
}

// PresenterName identifies a concrete presenter module.
type PresenterName string

const (
	PresenterWGPU     PresenterName = "wgpu"
	PresenterSnapshot PresenterName = "snapshot"
)

// PresenterSlot holds the single installed presenter.
type PresenterSlot struct {
	Name      PresenterName
	Presenter Presenter

	failures onceLog
}

func ensurePresenterSlot(app *App) *PresenterSlot {
	if slot, ok := Resource[PresenterSlot](app); ok {
		return slot
	}
	slot := &PresenterSlot{}
	app.addResources(slot)
	return slot
}

// usePresenter installs p, enforcing a single presenter per app.
func usePresenter(app *App, name PresenterName, p Presenter) {
	if app == nil {
		panic("usePresenter: app is nil")
	}
	slot := ensurePresenterSlot(app)
	if slot.Presenter != nil && slot.Name != name {
		app.Logger().Errorf("Multiple presenters installed: %s and %s", slot.Name, name)
		panic(fmt.Sprintf("Multiple presenters installed: %s and %s", slot.Name, name))
	}
	slot.Name = name
	slot.Presenter = p
	app.Logger().Infof("Presenter selected: %s", name)
}

// UsePresenter installs a custom presenter, e.g. one recording frames in tests.
func (app *App) UsePresenter(name PresenterName, p Presenter) *App {
	usePresenter(app, name, p)
	return app
}

func presentSystem(frame *TrailFrame, slot *PresenterSlot, log Logger) {
	if slot.Presenter == nil {
		return
	}
	if err := slot.Presenter.Present(frame); err != nil {
		slot.failures.Warnf(log, string(slot.Name), "%s presenter: %v", slot.Name, err)
	}
}
