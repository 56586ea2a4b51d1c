package interop

import (
	"fmt"
	"sort"
)

type funcModule struct {
	name      string
	functions map[string][]Executable
}

// NewModule builds a Module from Go functions keyed by the name scripts
// declare them with. A value may be a single function or a []any of
// overloads.
func NewModule(name string, functions map[string]any) (Module, error) {
	m := &funcModule{name: name, functions: make(map[string][]Executable, len(functions))}
	for fname, fn := range functions {
		candidates := []any{fn}
		if overloads, ok := fn.([]any); ok {
			candidates = overloads
		}
		for _, c := range candidates {
			e, err := FuncOf(name+"."+fname, c)
			if err != nil {
				return nil, err
			}
			m.functions[fname] = append(m.functions[fname], e)
		}
	}
	return m, nil
}

func (m *funcModule) Name() string { return m.name }

func (m *funcModule) Supports(function string) bool {
	_, ok := m.functions[function]
	return ok
}

func (m *funcModule) Call(function string, args []any) (any, error) {
	candidates, ok := m.functions[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMember, m.name, function)
	}
	e, err := Lookup(candidates, args)
	if err != nil {
		return nil, err
	}
	return e.Invoke(nil, args)
}

// Functions lists the function names a module provides, sorted.
func Functions(m Module) []string {
	fm, ok := m.(*funcModule)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(fm.functions))
	for n := range fm.functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
