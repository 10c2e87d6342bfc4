package skintrail

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gekko3d/skintrail/trailrt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	Uninitialized State = iota
	Running
	Shutdown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Running:
		return "Running"
	case Shutdown:
		return "Shutdown"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TrailModule turns every mesh of the Character into a point-sprite trail.
//
// In Uninitialized the trail allocates one VertexStateBuffer per mesh and seeds
// it; the first successful seed moves the app to Running. While Running each
// frame samples the skin, runs the velocity pass, projects instances into the
// TrailFrame and hands it to the installed Presenter.
type TrailModule struct {
	// LifeRange bounds the per-particle life in [0, LifeRange).
	LifeRange float32
	Seed      uint64

	StaticColor   uint32
	FastColor     uint32
	VelocityScale float32
	SpriteFeather float32

	// Workers for the velocity pass, 0 picks from NumCPU.
	Workers           int
	ParallelThreshold int
}

func NewTrailModule() TrailModule {
	return TrailModule{
		LifeRange:         0.2,
		Seed:              1,
		StaticColor:       0xff0044,
		FastColor:         0x550000,
		VelocityScale:     1,
		SpriteFeather:     0.05,
		ParallelThreshold: core.DefaultParallelThreshold,
	}
}

func (mod TrailModule) Install(app *App, cmd *Commands) {
	if !app.stateful || app.initialState != Uninitialized || app.finalState < Running {
		panic("TrailModule needs an app built with UseStates(Uninitialized, Shutdown)")
	}
	if !app.hasResource(reflect.TypeOf(Character{})) {
		cmd.AddResources(NewCharacter())
	}
	if !app.hasResource(reflect.TypeOf(AnimationClock{})) {
		app.UseModules(NewClockModule())
	}
	if !app.hasResource(reflect.TypeOf(Time{})) {
		app.UseModules(TimeModule{})
	}
	ensurePresenterSlot(app)

	cmd.AddResources(newTrailState(mod), &TrailFrame{})

	app.UseSystem(
		System(trailResetSystem).
			InStage(Update).
			InState(OnEnter(Uninitialized)),
	)
	app.UseSystem(
		System(trailSeedSystem).
			InStage(Update).
			InState(OnExecute(Uninitialized)),
	)
	app.UseSystem(
		System(trailRunningSystem).
			InStage(Update).
			InState(OnEnter(Running)),
	)
	app.UseSystem(
		System(trailComputeSystem).
			InStage(Update).
			InState(OnExecute(Running)),
	)
	app.UseSystem(
		System(trailEmitSystem).
			InStage(Render).
			RunAlways(),
	)
	app.UseSystem(
		System(presentSystem).
			InStage(PostRender).
			RunAlways(),
	)
}

type trailEmitter struct {
	mesh      *SkinnedMesh
	buffer    *core.VertexStateBuffer
	params    []core.InstanceParams
	skinned   []mgl32.Vec3
	instances []core.ParticleInstance
	degraded  bool
}

// TrailState owns the per-mesh emitters. Only the trail systems mutate it.
type TrailState struct {
	pass   *core.VelocityPass
	model  core.EmissionModel
	ranges core.ParamRanges
	seed   uint64

	emitters map[MeshId]*trailEmitter
	warnings onceLog
	// allocated counts emitters handed out since the last reset and feeds meshSeed.
	allocated uint64

	// Reseeds counts how often a running trail had to go back to Uninitialized.
	Reseeds int
}

func newTrailState(mod TrailModule) *TrailState {
	pass := core.NewVelocityPass(mod.Workers)
	if mod.ParallelThreshold > 0 {
		pass.ParallelThreshold = mod.ParallelThreshold
	}

	model := core.DefaultEmissionModel()
	model.StaticColor = core.ColorFromHex(mod.StaticColor)
	model.FastColor = core.ColorFromHex(mod.FastColor)
	model.VelocityScale = mod.VelocityScale
	model.Feather = mod.SpriteFeather

	ranges := core.DefaultParamRanges()
	ranges.LifeRange = mod.LifeRange

	return &TrailState{
		pass:     pass,
		model:    model,
		ranges:   ranges,
		seed:     mod.Seed,
		emitters: make(map[MeshId]*trailEmitter),
	}
}

func (s *TrailState) EmissionModel() core.EmissionModel {
	return s.model
}

// Buffer exposes the committed vertex state of a mesh, nil if it has no emitter.
func (s *TrailState) Buffer(id MeshId) *core.VertexStateBuffer {
	if em, ok := s.emitters[id]; ok {
		return em.buffer
	}
	return nil
}

func (s *TrailState) Params(id MeshId) []core.InstanceParams {
	if em, ok := s.emitters[id]; ok {
		return em.params
	}
	return nil
}

func (s *TrailState) reset() {
	clear(s.emitters)
	s.warnings = onceLog{}
	s.allocated = 0
}

// meshSeed spreads the base seed so meshes do not share particle parameters.
func (s *TrailState) meshSeed(order uint64) uint64 {
	return s.seed + order*0x9e3779b97f4a7c15
}

func (s *TrailState) allocate(mesh *SkinnedMesh) *trailEmitter {
	n := mesh.VertexCount()
	order := s.allocated
	s.allocated++
	em := &trailEmitter{
		mesh:      mesh,
		buffer:    core.NewVertexStateBuffer(n),
		params:    core.GenerateInstanceParams(n, s.meshSeed(order), s.ranges),
		skinned:   make([]mgl32.Vec3, n),
		instances: make([]core.ParticleInstance, 0, n),
	}
	s.emitters[mesh.Id] = em
	return em
}

// prune tears down emitters whose mesh was removed from the character.
func (s *TrailState) prune(character *Character, log Logger) {
	for id, em := range s.emitters {
		if character.Mesh(id) == nil {
			log.Debugf("mesh %s (%s) disposed, trail released", em.mesh.Name, id)
			delete(s.emitters, id)
		}
	}
}

func sampleMesh(mesh *SkinnedMesh, t float32, dst []mgl32.Vec3) error {
	if mesh.Sampler == nil {
		return core.ErrMissingSkeleton
	}
	return mesh.Sampler.Sample(t, dst)
}

// sample fills em.skinned for time t. It returns false when the emitter has to sit
// this frame out, and an error only for a DimensionMismatch.
func (s *TrailState) sample(em *trailEmitter, t float32, log Logger) (bool, error) {
	key := "sample:" + string(em.mesh.Id)
	err := sampleMesh(em.mesh, t, em.skinned)
	switch {
	case err == nil:
		if em.degraded {
			log.Infof("mesh %s: skinning restored", em.mesh.Name)
			s.warnings.Clear(key)
		}
		em.degraded = false
		return true, nil
	case errors.Is(err, core.ErrDimensionMismatch):
		return false, err
	case errors.Is(err, core.ErrMissingSkeleton):
		s.warnings.Warnf(log, key, "mesh %s (%s): %v, trail paused", em.mesh.Name, em.mesh.Id, err)
	default:
		s.warnings.Warnf(log, key, "mesh %s (%s): skinning failed: %v", em.mesh.Name, em.mesh.Id, err)
	}
	em.degraded = true
	return false, nil
}

func (s *TrailState) reseed(cmd *Commands, log Logger, cause error) {
	log.Errorf("trail reseeding: %v", cause)
	s.reset()
	s.Reseeds++
	cmd.ChangeState(Uninitialized)
}

func trailResetSystem(state *TrailState) {
	state.reset()
}

func trailSeedSystem(cmd *Commands, state *TrailState, character *Character, clock *AnimationClock, log Logger) {
	meshes := character.Meshes()
	if len(meshes) == 0 {
		state.warnings.Warnf(log, "no-meshes", "trail waiting: character has no meshes")
		return
	}

	for _, mesh := range meshes {
		em := state.allocate(mesh)
		ok, err := state.sample(em, clock.Elapsed, log)
		if err != nil {
			state.reseed(cmd, log, fmt.Errorf("mesh %s: %w", mesh.Name, err))
			return
		}
		if !ok {
			continue
		}
		if err := state.pass.Seed(em.buffer, character.WorldMatrix(mesh), em.skinned); err != nil {
			state.reseed(cmd, log, fmt.Errorf("mesh %s: %w", mesh.Name, err))
			return
		}
	}
	cmd.ChangeState(Running)
}

func trailRunningSystem(state *TrailState, character *Character, log Logger) {
	total := 0
	for _, mesh := range character.Meshes() {
		total += mesh.VertexCount()
	}
	log.Infof("trail running: %d meshes, %d particles, %d workers", len(character.Meshes()), total, state.pass.Workers())
}

func trailComputeSystem(cmd *Commands, state *TrailState, character *Character, clock *AnimationClock, log Logger) {
	state.prune(character, log)

	for _, mesh := range character.Meshes() {
		em, ok := state.emitters[mesh.Id]
		if !ok {
			// Added after seeding; the first good sample seeds it below.
			em = state.allocate(mesh)
		}
		// A mesh without a sampler keeps its buffer; sample reports the missing skeleton.
		if n := mesh.VertexCount(); mesh.Sampler != nil && n != em.buffer.Len() {
			state.reseed(cmd, log, fmt.Errorf("mesh %s has %d vertices, trail has %d: %w",
				mesh.Name, n, em.buffer.Len(), core.ErrDimensionMismatch))
			return
		}

		ready, err := state.sample(em, clock.Elapsed, log)
		if err != nil {
			state.reseed(cmd, log, fmt.Errorf("mesh %s: %w", mesh.Name, err))
			return
		}
		if !ready {
			continue
		}

		world := character.WorldMatrix(mesh)
		if !em.buffer.Seeded() {
			err = state.pass.Seed(em.buffer, world, em.skinned)
		} else {
			err = state.pass.Step(em.buffer, world, em.skinned)
		}
		if err != nil {
			state.reseed(cmd, log, fmt.Errorf("mesh %s: %w", mesh.Name, err))
			return
		}
	}
}

// trailEmitSystem rebuilds the TrailFrame from the committed buffers. It runs in
// every state so presenters see empty batches before the first seed.
func trailEmitSystem(cmd *Commands, state *TrailState, character *Character, clock *AnimationClock, timing *Time, frame *TrailFrame, log Logger) {
	frame.Frame = clock.Frame
	frame.Elapsed = clock.Elapsed
	frame.FrameTime = timing.Smoothed
	frame.State = cmd.State()
	frame.Batches = frame.Batches[:0]

	for _, mesh := range character.Meshes() {
		batch := TrailBatch{Mesh: mesh.Id}
		if em, ok := state.emitters[mesh.Id]; ok && !em.degraded {
			instances, err := state.model.Project(em.buffer, em.params, clock.Elapsed, em.instances)
			if err != nil {
				log.Errorf("mesh %s: %v", mesh.Name, err)
			} else {
				em.instances = instances
				batch.Instances = instances
			}
		}
		frame.Batches = append(frame.Batches, batch)
	}
}
