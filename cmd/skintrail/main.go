package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/skintrail"
	"github.com/gekko3d/skintrail/trailrt/skin"
	"github.com/pkg/profile"
)

func init() {
	// glfw must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	headless := flag.Bool("headless", false, "Run without a window and write PNG snapshots")
	frames := flag.Uint64("frames", 0, "Stop after this many frames (0 = until the window closes; headless defaults to 300)")
	snapshotDir := flag.String("snapshot", "snapshots", "Directory for headless snapshots")
	snapshotEvery := flag.Uint64("snapshot-every", 30, "Write a snapshot every N running frames")
	debug := flag.Bool("debug", false, "Enable debug logging")
	profileMode := flag.String("profile", "", "Profile mode: cpu or mem")
	workers := flag.Int("workers", 0, "Velocity pass workers (0 = NumCPU-1)")
	seed := flag.Uint64("seed", 1, "Seed for per-particle parameters")
	speed := flag.Float64("speed", 1, "Animation speed multiplier")
	width := flag.Int("width", 1280, "Output width in pixels")
	height := flag.Int("height", 720, "Output height in pixels")
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		os.Exit(2)
	}

	column, err := skin.NewBendingColumn(skin.DefaultColumnOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	trail := skintrail.NewTrailModule()
	trail.Workers = *workers
	trail.Seed = *seed

	clock := skintrail.NewClockModule()
	clock.Speed = float32(*speed)

	budget := *frames
	if *headless && budget == 0 {
		budget = 300
	}

	var presenter skintrail.Module
	if *headless {
		snap := skintrail.NewSnapshotModule(*snapshotDir)
		snap.Width, snap.Height = *width, *height
		snap.Every = *snapshotEvery
		presenter = snap
	} else {
		client := skintrail.NewClientModule(*width, *height, "skintrail")
		presenter = client
	}

	app := skintrail.NewTrailAppBuilder().
		UseModule(
			skintrail.LoggingModule{Prefix: "skintrail", Debug: *debug},
			skintrail.TimeModule{},
			clock,
			trail,
			skintrail.LifecycleModule{MaxFrames: budget},
			presenter,
		).
		Build()

	character, _ := skintrail.Resource[skintrail.Character](app)
	character.AddMesh("column", column)

	app.Run()
}
