package skintrail

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := NewApp().UseStates(1, 2)

	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_changeStateOutOfRange(t *testing.T) {
	app := NewApp().UseStates(0, 2)
	require.Panics(t, func() { app.changeState(3) })

	stateless := NewApp()
	require.Panics(t, func() { stateless.changeState(0) })
}

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	require.Panics(t, func() { app.addResources(MockResource2{}) }, "non-pointer resources are rejected")

	got, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Equal(t, "Resource2", got.name)
}

func TestApp_systemInjection(t *testing.T) {
	app := NewApp()
	app.addResources(NewMockResource1("injected"))

	var seen string
	var gotCmd *Commands
	var gotLog Logger
	app.UseSystem(System(func(r *MockResource1, cmd *Commands, log Logger) {
		seen = r.name
		gotCmd = cmd
		gotLog = log
	}))

	app.Step()
	assert.Equal(t, "injected", seen)
	assert.NotNil(t, gotCmd)
	assert.NotNil(t, gotLog)
}

func TestApp_missingDependencyPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(r *MockResource2) {}))
	assert.Panics(t, func() { app.Step() })
}

func TestApp_stageOrderAndStates(t *testing.T) {
	const (
		first State = iota
		second
		last
	)
	app := NewApp().UseStates(first, last)

	var trace []string
	rec := func(s string) func() { return func() { trace = append(trace, s) } }

	app.UseSystem(System(rec("render")).InStage(Render).RunAlways())
	app.UseSystem(System(rec("prelude")).InStage(Prelude).RunAlways())
	app.UseSystem(System(rec("enter-first")).InState(OnEnter(first)))
	app.UseSystem(System(func(cmd *Commands) {
		trace = append(trace, "exec-first")
		cmd.ChangeState(second)
	}).InState(OnExecute(first)))
	app.UseSystem(System(rec("exit-first")).InState(OnExit(first)))
	app.UseSystem(System(rec("enter-second")).InState(OnEnter(second)))

	assert.True(t, app.Step())
	assert.Equal(t, []string{"enter-first", "prelude", "exec-first", "render", "exit-first", "enter-second"}, trace)
	assert.Equal(t, second, app.State())
	assert.Equal(t, uint64(1), app.Frame())

	trace = nil
	assert.True(t, app.Step())
	assert.Equal(t, []string{"prelude", "render"}, trace)
}

func TestApp_stepStopsAtFinalState(t *testing.T) {
	app := NewApp().UseStates(0, 1)
	exited := false
	app.UseSystem(System(func(cmd *Commands) { cmd.ChangeState(1) }).InState(OnExecute(0)))
	app.UseSystem(System(func() { exited = true }).InStage(Finale).InState(OnExit(1)))

	assert.False(t, app.Step())
	assert.True(t, app.Finished())
	assert.True(t, exited)
	assert.False(t, app.Step())
	assert.Equal(t, uint64(1), app.Frame())
}

func TestApp_UseStage(t *testing.T) {
	app := NewApp()
	custom := Stage{Name: "Custom"}
	app.UseStage(custom, AfterStage(Update))

	idx := -1
	for i, s := range app.stages {
		if s.Name == "Custom" {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx)
	assert.Equal(t, "Update", app.stages[idx-1].Name)

	assert.Panics(t, func() { app.UseStage(custom, BeforeStage(Render)) })
	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, BeforeStage(Stage{Name: "Nope"})) })
}

func TestApp_statefulSystemOnStatelessApp(t *testing.T) {
	app := NewApp()
	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InState(OnExecute(0)))
	})
}
