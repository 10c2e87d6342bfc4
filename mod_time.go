package skintrail

import (
	"time"
)

// Time is wall-clock frame timing. It never drives the animation; the trail
// only reports it next to the AnimationClock.
type Time struct {
	Now      time.Time
	Dt       time.Duration
	// Smoothed is an exponential moving average of Dt.
	Smoothed time.Duration
}

const frameTimeSmoothing = 0.1

func (t *Time) tick(now time.Time) {
	if t.Now.IsZero() {
		t.Now = now
		return
	}
	t.Dt = max(now.Sub(t.Now), 0)
	t.Now = now
	if t.Smoothed == 0 {
		t.Smoothed = t.Dt
		return
	}
	t.Smoothed += time.Duration(frameTimeSmoothing * float64(t.Dt-t.Smoothed))
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{})
	cmd.UseSystem(System(timeSystem).InStage(Prelude).RunAlways())
}

func timeSystem(t *Time) {
	t.tick(time.Now())
}

// DefaultClockStep is the animation time added per frame at speed 1.
const DefaultClockStep float32 = 0.01

// AnimationClock is the time base shared by skinning and emission. It only moves
// forward and it moves a fixed step per frame, so a run is reproducible.
type AnimationClock struct {
	Elapsed float32
	Step    float32
	Speed   float32
	Frame   uint64
}

func NewAnimationClock(step, speed float32) *AnimationClock {
	if step <= 0 {
		step = DefaultClockStep
	}
	return &AnimationClock{Step: step, Speed: max(speed, 0)}
}

func (c *AnimationClock) Advance() {
	c.Elapsed += c.Step * max(c.Speed, 0)
	c.Frame++
}

// ClockModule installs the AnimationClock and advances it at the start of every
// running frame.
type ClockModule struct {
	Step  float32
	Speed float32
}

func NewClockModule() ClockModule {
	return ClockModule{Step: DefaultClockStep, Speed: 1}
}

func (mod ClockModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAnimationClock(mod.Step, mod.Speed))
	cmd.UseSystem(
		System(clockAdvanceSystem).
			InStage(PreUpdate).
			InState(OnExecute(Running)),
	)
}

func clockAdvanceSystem(clock *AnimationClock) {
	clock.Advance()
}
