package skintrail

import "testing"

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	if app.stateful != false {
		t.Errorf("Expected stateful to be false, got %v", app.stateful)
	}
	if app.initialState != 0 {
		t.Errorf("Expected initialState to be 0, got %v", app.initialState)
	}
	if len(app.stages) != len(defaultStages) {
		t.Errorf("Expected %d stages, got %d", len(defaultStages), len(app.stages))
	}
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 10).Build()

	if app.stateful != true {
		t.Errorf("Expected stateful to be true, got %v", app.stateful)
	}
	if app.initialState != 1 {
		t.Errorf("Expected initialState to be 1, got %v", app.initialState)
	}
	if app.finalState != 10 {
		t.Errorf("Expected finalState to be 10, got %v", app.finalState)
	}
	if app.State() != 1 {
		t.Errorf("Expected state to start at 1, got %v", app.State())
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	builder.UseModule(&MockModule{})

	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	module1 := &MockModule{}
	module2 := &MockModule{}

	NewAppBuilder().UseModule(module1).UseModule(module2).Build()

	if !module1.installed {
		t.Errorf("Expected Install to be called on the module 1, but it was not")
	}
	if !module2.installed {
		t.Errorf("Expected Install to be called on the module 2, but it was not")
	}
}

func TestNewTrailAppBuilder(t *testing.T) {
	app := NewTrailAppBuilder().Build()

	if app.State() != Uninitialized {
		t.Errorf("Expected Uninitialized, got %v", app.State())
	}
	if app.finalState != Shutdown {
		t.Errorf("Expected final state Shutdown, got %v", app.finalState)
	}
}
