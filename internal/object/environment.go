package object

import (
	"sort"
)

// VariableScope is one frame of the runtime scope chain. Frames are shared by
// the closures created inside them and live as long as any of those do.
type VariableScope struct {
	values    map[string]any
	Enclosing *VariableScope
}

// NewScope creates a root scope.
func NewScope() *VariableScope {
	return &VariableScope{values: make(map[string]any)}
}

// NewEnclosedScope creates a scope whose lookups fall back to outer.
func NewEnclosedScope(outer *VariableScope) *VariableScope {
	s := NewScope()
	s.Enclosing = outer
	return s
}

// Define binds name in this frame, replacing any earlier binding.
func (s *VariableScope) Define(name string, value any) {
	s.values[name] = value
}

func (s *VariableScope) Get(name string) (any, bool) {
	for scope := s; scope != nil; scope = scope.Enclosing {
		if v, ok := scope.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign updates the nearest existing binding of name. It reports false when
// no frame in the chain binds it.
func (s *VariableScope) Assign(name string, value any) bool {
	for scope := s; scope != nil; scope = scope.Enclosing {
		if _, ok := scope.values[name]; ok {
			scope.values[name] = value
			return true
		}
	}
	return false
}

func (s *VariableScope) Ancestor(distance int) *VariableScope {
	scope := s
	for i := 0; i < distance && scope != nil; i++ {
		scope = scope.Enclosing
	}
	return scope
}

// GetAt reads name from the frame distance hops out, as computed by the
// resolver.
func (s *VariableScope) GetAt(distance int, name string) (any, bool) {
	scope := s.Ancestor(distance)
	if scope == nil {
		return nil, false
	}
	v, ok := scope.values[name]
	return v, ok
}

func (s *VariableScope) AssignAt(distance int, name string, value any) bool {
	scope := s.Ancestor(distance)
	if scope == nil {
		return false
	}
	if _, ok := scope.values[name]; !ok {
		return false
	}
	scope.values[name] = value
	return true
}

// Names lists the bindings of this frame only, sorted.
func (s *VariableScope) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
