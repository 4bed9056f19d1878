// Package di provides a lightweight, per-invocation dependency injection
// runtime built on samber/do/v2. Each CLI command invocation gets its own
// injector, seeded by a fixed set of base modules plus whatever extra
// modules the command needs; the injector is shut down once the command's
// handler returns.
package di

import (
	"github.com/samber/do/v2"
)

// Injector resolves and provides dependencies for the lifetime of one Invoke
// call.
type Injector = do.Injector

// Module registers one or more dependencies on an Injector.
type Module func(Injector) error

// Runtime holds the base modules applied to every injector it creates.
type Runtime struct {
	modules []Module
}

// New builds a Runtime from the given base modules. Nil modules are skipped.
func New(modules ...Module) *Runtime {
	return &Runtime{modules: modules}
}

// Invoke creates a fresh injector, applies the runtime's base modules
// followed by extraModules (in order), then calls handler with the
// resulting injector. The injector is shut down after handler returns,
// regardless of outcome.
func (r *Runtime) Invoke(handler func(Injector) error, extraModules ...Module) error {
	injector := do.New()
	defer injector.Shutdown()

	for _, module := range r.modules {
		if module == nil {
			continue
		}

		if err := module(injector); err != nil {
			return err
		}
	}

	for _, module := range extraModules {
		if module == nil {
			continue
		}

		if err := module(injector); err != nil {
			return err
		}
	}

	return handler(injector)
}
