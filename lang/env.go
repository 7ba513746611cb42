package lang

import (
	"maps"
	"slices"
)

// Scope is one link of a variable-binding chain. The global scope has no
// parent; every procedure call gets a fresh frame whose parent is the global
// scope, discarded when the call returns.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewScope returns an empty scope chained to parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]Value)}
}

// Lookup finds the innermost binding of name.
func (s *Scope) Lookup(name string) (Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Bind binds name in s itself, replacing any prior binding in s.
func (s *Scope) Bind(name string, v Value) {
	s.vars[name] = v
}

// Visible returns every binding reachable from s, inner bindings shadowing
// outer ones.
func (s *Scope) Visible() map[string]Value {
	var chain []*Scope
	for ; s != nil; s = s.parent {
		chain = append(chain, s)
	}

	out := make(map[string]Value)
	for _, sc := range slices.Backward(chain) {
		maps.Copy(out, sc.vars)
	}

	return out
}

// Names returns the sorted names visible from s.
func (s *Scope) Names() []string {
	return slices.Sorted(maps.Keys(s.Visible()))
}

// Procedure is a user-defined procedure.
type Procedure struct {
	Name   string
	Params []string
	Body   []Expr
}

// Environment owns the global scope and the flat procedure table of one
// evaluator session.
type Environment struct {
	global *Scope
	procs  map[string]Procedure
}

func newEnvironment() *Environment {
	return &Environment{
		global: NewScope(nil),
		procs:  make(map[string]Procedure),
	}
}

// Global returns the global scope.
func (env *Environment) Global() *Scope { return env.global }

// Define stores p, replacing any procedure with the same name.
func (env *Environment) Define(p Procedure) {
	env.procs[p.Name] = p
}

// Procedure looks up a procedure by name.
func (env *Environment) Procedure(name string) (Procedure, bool) {
	p, ok := env.procs[name]

	return p, ok
}

// Procedures returns the sorted names of all defined procedures.
func (env *Environment) Procedures() []string {
	return slices.Sorted(maps.Keys(env.procs))
}
