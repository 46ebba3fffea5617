package application

// Application is a platform application resolved by its exact name.
type Application struct {
	name string
	id   int
}

// New creates an Application.
func New(name string, id int) Application {
	return Application{name: name, id: id}
}

// Name returns the application name.
func (a Application) Name() string { return a.name }

// ID returns the platform application (module) id.
func (a Application) ID() int { return a.id }
