package skintrail

// AppBuilder defers module installation until Build so states are known before
// stateful systems are registered.
type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: NewApp()}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.UseStates(initialState, finalState)
	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	return b.app.UseModules(b.modules...)
}

// NewTrailAppBuilder returns a builder already switched to the trail lifecycle.
func NewTrailAppBuilder() *AppBuilder {
	return NewAppBuilder().UseStates(Uninitialized, Shutdown)
}
