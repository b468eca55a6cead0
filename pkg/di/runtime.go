// Package di wires rollctl's command dependencies with samber/do.
package di

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Injector is the dependency container handed to command handlers.
type Injector = do.Injector

// Module registers dependencies on an injector.
type Module func(Injector) error

// Runtime builds a fresh injector from its modules for every invocation.
type Runtime struct {
	modules []Module
}

// New creates a Runtime from modules. Nil modules are skipped.
func New(modules ...Module) *Runtime {
	return &Runtime{modules: modules}
}

// Invoke runs handler with an injector built from the runtime's modules followed
// by extraModules. The injector is shut down when handler returns.
func (r *Runtime) Invoke(handler func(Injector) error, extraModules ...Module) error {
	injector := do.New()
	defer func() {
		_ = injector.Shutdown()
	}()

	for _, module := range append(append([]Module{}, r.modules...), extraModules...) {
		if module == nil {
			continue
		}

		err := module(injector)
		if err != nil {
			return err
		}
	}

	return handler(injector)
}

// RunEWithRuntime adapts an injector-aware handler to cobra's RunE.
func RunEWithRuntime(
	runtime *Runtime,
	handler func(cmd *cobra.Command, injector Injector) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return runtime.Invoke(func(injector Injector) error {
			return handler(cmd, injector)
		})
	}
}

// RunEWithArgs is RunEWithRuntime for handlers that need the positional arguments.
func RunEWithArgs(
	runtime *Runtime,
	handler func(cmd *cobra.Command, args []string, injector Injector) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return runtime.Invoke(func(injector Injector) error {
			return handler(cmd, args, injector)
		})
	}
}
