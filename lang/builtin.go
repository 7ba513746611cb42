package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// Variadic is the MaxArgs of a builtin that accepts any number of
// arguments from MinArgs up.
const Variadic = -1

// BuiltinFunc implements a builtin. It receives the evaluator and the
// call's arguments, already evaluated left to right.
type BuiltinFunc func(ctx context.Context, ev *Evaluator, args []Value) (Value, error)

// Builtin is a natively implemented operation invoked by name.
type Builtin struct {
	Fn      BuiltinFunc
	Name    string
	Usage   string
	MinArgs int
	MaxArgs int
}

// checkArity fails with [ErrArityMismatch] unless n arguments are
// acceptable.
func (b Builtin) checkArity(n int) error {
	if n >= b.MinArgs && (b.MaxArgs == Variadic || n <= b.MaxArgs) {
		return nil
	}

	var expected string

	switch {
	case b.MaxArgs == Variadic:
		expected = itoa(b.MinArgs) + " or more"
	case b.MinArgs == b.MaxArgs:
		expected = itoa(b.MinArgs)
	default:
		expected = itoa(b.MinArgs) + " to " + itoa(b.MaxArgs)
	}

	return ErrArityMismatch.With(
		slog.String("builtin", b.Name),
		slog.String("expected", expected),
		slog.Int("got", n),
	)
}

// Registry maps names to builtins. It is immutable once constructed.
type Registry struct {
	byName map[string]Builtin
}

// NewRegistry builds a registry. Later builtins replace earlier ones with
// the same name.
func NewRegistry(builtins ...Builtin) *Registry {
	r := &Registry{byName: make(map[string]Builtin, len(builtins))}

	for _, b := range builtins {
		if b.Fn != nil && b.Name != "" {
			r.byName[b.Name] = b
		}
	}

	return r
}

// Lookup finds a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r.byName[name]

	return b, ok
}

// Names returns the sorted builtin names.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}

// DefaultBuiltins returns the standard builtin set.
func DefaultBuiltins() []Builtin {
	return slices.Concat(
		arithmeticBuiltins(),
		collectionBuiltins(),
		controlBuiltins(),
		systemBuiltins(),
		extensionBuiltins(),
	)
}
