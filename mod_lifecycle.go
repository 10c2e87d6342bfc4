package skintrail

// Lifetime counts app ticks and ends the run once MaxFrames is reached.
type Lifetime struct {
	Frames    uint64
	MaxFrames uint64
}

// LifecycleModule bounds a run to MaxFrames ticks (0 runs until something else
// requests Shutdown).
type LifecycleModule struct {
	MaxFrames uint64
}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Lifetime{MaxFrames: mod.MaxFrames})
	app.UseSystem(
		System(lifetimeSystem).
			InStage(Finale).
			RunAlways(),
	)
}

func lifetimeSystem(lifetime *Lifetime, cmd *Commands, log Logger) {
	lifetime.Frames++
	if lifetime.MaxFrames == 0 || lifetime.Frames < lifetime.MaxFrames {
		return
	}
	if cmd.State() != Shutdown {
		log.Infof("frame budget of %d reached, shutting down", lifetime.MaxFrames)
		cmd.ChangeState(Shutdown)
	}
}
