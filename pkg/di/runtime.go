// Package di wires shared dependencies into a samber/do container used by
// the CLI commands and their tests.
package di

import "github.com/samber/do/v2"

// Injector is the dependency container handed to providers and handlers.
type Injector = do.Injector

// Module registers one or more dependencies with the injector.
type Module func(Injector) error

// Runtime owns the injector and surfaces module registration failures at
// invocation time instead of panicking during construction.
type Runtime struct {
	injector do.Injector
	err      error
}

// New constructs a Runtime and applies the given modules in order. The first
// module error is retained and returned by every subsequent Invoke.
func New(modules ...Module) *Runtime {
	runtime := &Runtime{injector: do.New()}

	for _, module := range modules {
		err := module(runtime.injector)
		if err != nil {
			runtime.err = err

			break
		}
	}

	return runtime
}

// Invoke runs handler with the runtime's injector.
func (r *Runtime) Invoke(handler func(Injector) error) error {
	if r.err != nil {
		return r.err
	}

	return handler(r.injector)
}
