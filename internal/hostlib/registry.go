// Package hostlib holds the standard native modules a host can offer to
// scripts through `native function` declarations.
package hostlib

import (
	"fmt"

	"hsl/internal/interop"
)

type moduleFactory func() map[string]any

var factories = []struct {
	name  string
	build moduleFactory
}{
	{"math", mathFunctions},
	{"strings", stringFunctions},
	{"arrays", arrayFunctions},
}

// Modules builds every standard module.
func Modules() ([]interop.Module, error) {
	modules := make([]interop.Module, 0, len(factories))
	for _, f := range factories {
		m, err := interop.NewModule(f.name, f.build())
		if err != nil {
			return nil, fmt.Errorf("building module %s: %w", f.name, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Module builds the standard module called name.
func Module(name string) (interop.Module, error) {
	for _, f := range factories {
		if f.name == name {
			return interop.NewModule(f.name, f.build())
		}
	}
	return nil, fmt.Errorf("no standard module named %q", name)
}

// Names lists the standard modules in registration order.
func Names() []string {
	names := make([]string, len(factories))
	for i, f := range factories {
		names[i] = f.name
	}
	return names
}
