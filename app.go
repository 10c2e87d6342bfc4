package skintrail

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type Module interface {
	Install(app *App, cmd *Commands)
}

// App drives ordered stages of systems once per tick. In stateful mode systems can
// be bound to the enter, execute or exit phase of a state; state changes requested
// during a tick are applied after the last stage.
type App struct {
	stateful           bool
	started            bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	frame              uint64

	stages           []Stage
	systems          map[string]map[State]map[statePhase][]systemFn
	systemsStateless map[string][]systemFn
	resources        map[reflect.Type]any
}

func NewApp() *App {
	app := &App{
		systems:          make(map[string]map[State]map[statePhase][]systemFn),
		systemsStateless: make(map[string][]systemFn),
		resources:        make(map[reflect.Type]any),
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.initStage(stage)
	}
	return app
}

// UseStates switches the app to stateful mode. It must be called before stateful
// systems are registered.
func (app *App) UseStates(initialState State, finalState State) *App {
	if finalState < initialState {
		panic(fmt.Sprintf("final state %v precedes initial state %v", finalState, initialState))
	}
	app.stateful = true
	app.initialState = initialState
	app.finalState = finalState
	app.state = initialState
	return app
}

func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) State() State {
	return app.state
}

// Frame is the number of completed ticks.
func (app *App) Frame() uint64 {
	return app.frame
}

// Finished reports whether a stateful app has reached its final state.
func (app *App) Finished() bool {
	return app.stateful && app.started && app.state == app.finalState
}

// Step runs a single tick. It returns false once the final state has been reached.
func (app *App) Step() bool {
	if app.Finished() {
		return false
	}
	if !app.started {
		app.started = true
		if app.stateful {
			app.callSystems(app.state, enter)
		}
	}

	app.callSystems(app.state, execute)
	app.frame++

	if app.stateful && app.stateTransitioning {
		app.stateTransitioning = false
		app.executeChangeState(app.nextState)
	}

	if app.stateful && app.state == app.finalState {
		app.callSystems(app.state, exit)
		return false
	}
	return true
}

// Run steps until the final state. A stateless app runs until the process exits.
func (app *App) Run() {
	if app.stateful {
		app.Logger().Infof("Running in stateful mode (state %v)", app.state)
	} else {
		app.Logger().Infof("Running in stateless mode")
	}
	for app.Step() {
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if !app.stateful {
			continue
		}
		if systemsInStage, ok := app.systems[stage.Name]; ok {
			if systemsInState, ok := systemsInStage[state]; ok {
				for _, system := range systemsInState[phase] {
					app.callSystem(system)
				}
			}
		}
	}
}

func (app *App) changeState(newState State) {
	if !app.stateful {
		panic("ChangeState called on a stateless app")
	}
	if newState < app.initialState || newState > app.finalState {
		panic(fmt.Sprintf("State %v doesn't exist", newState))
	}
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	if newState == app.state {
		return
	}
	app.callSystems(app.state, exit)
	app.Logger().Debugf("state %v -> %v", app.state, newState)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType == nil || resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %T must be a pointer", resource))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

func (app *App) hasResource(t reflect.Type) bool {
	_, ok := app.resources[t]
	return ok
}

// Resource returns the resource of type T, if installed.
func Resource[T any](app *App) (*T, bool) {
	res, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	typed, ok := res.(*T)
	return typed, ok
}

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfLogger   = reflect.TypeOf((*Logger)(nil)).Elem()
)

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)

		if argType == typeOfLogger {
			args[i] = reflect.ValueOf(app.Logger())
			continue
		}

		if argType.Kind() == reflect.Pointer {
			underlyingType := argType.Elem()
			if underlyingType == typeOfCommands {
				args[i] = reflect.ValueOf(&Commands{app: app})
				continue
			}
			if resource, ok := app.resources[underlyingType]; ok {
				args[i] = reflect.ValueOf(resource)
				continue
			}
		}

		msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
			runtime.FuncForPC(systemValue.Pointer()).Name(),
			fmt.Sprint(systemType),
			fmt.Sprint(argType),
		)
		panic(msg)
	}
	systemValue.Call(args)
}
