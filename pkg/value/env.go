package value

import (
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Env is one lexical scope. Lookups walk the parent chain outward.
// An Env is not safe for concurrent use.
type Env struct {
	vars   map[string]Value
	order  []string
	parent *Env
}

func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Value), parent: parent}
}

func (e *Env) Parent() *Env { return e.parent }

// Get resolves name in this scope or the nearest enclosing one.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Lookup is Get reporting an UndefinedVariable error for unknown names.
func (e *Env) Lookup(name string) (Value, error) {
	if v, ok := e.Get(name); ok {
		return v, nil
	}
	return nil, gerrors.Undefined(name)
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	if _, ok := e.vars[name]; !ok {
		e.order = append(e.order, name)
	}
	e.vars[name] = v
}

// Assign updates the scope where name was declared.
func (e *Env) Assign(name string, v Value) error {
	if s := e.owner(name); s != nil {
		s.vars[name] = v
		return nil
	}
	return gerrors.Undefined(name)
}

// Set assigns an existing binding or, when there is none, defines name in
// this scope. It never creates a binding in an outer scope.
func (e *Env) Set(name string, v Value) {
	if s := e.owner(name); s != nil {
		s.vars[name] = v
		return
	}
	e.Define(name, v)
}

func (e *Env) owner(name string) *Env {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			return s
		}
	}
	return nil
}

// Has reports whether name is bound in this scope only.
func (e *Env) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Names lists this scope's bindings in definition order.
func (e *Env) Names() []string {
	return append([]string(nil), e.order...)
}

// Export returns this scope's bindings as a Map, skipping built-ins.
// Imported files are bound this way.
func (e *Env) Export() *Map {
	m := NewMap()
	for _, name := range e.order {
		v := e.vars[name]
		if _, ok := v.(*Builtin); ok {
			continue
		}
		m.Set(name, v)
	}
	return m
}
