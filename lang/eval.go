package lang

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Wafelack/mess/log"
)

// DefaultMaxDepth is the default maximum nesting of procedure calls and
// forced quotes.
const DefaultMaxDepth = 10_000

// previousDirVar is the variable in which cd records the directory it left.
const previousDirVar = "previous-dir"

// Evaluator walks expressions against one session's environment.
//
// An Evaluator is not safe for concurrent use. Its builtin registry is
// fixed when [New] returns.
type Evaluator struct {
	env      *Environment
	builtins *Registry
	frame    *Scope
	runner   CommandRunner
	dir      Directory
	lister   Lister
	logger   log.Logger
	extra    []Builtin
	maxDepth int
	depth    int
	strict   bool
	external bool
}

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(ev *Evaluator) {
		ev.logger = logger
	}
}

// WithRunner sets the collaborator used to run external commands.
func WithRunner(r CommandRunner) Option {
	return func(ev *Evaluator) {
		if r != nil {
			ev.runner = r
		}
	}
}

// WithDirectory sets the working-directory and environment collaborator.
func WithDirectory(d Directory) Option {
	return func(ev *Evaluator) {
		if d != nil {
			ev.dir = d
		}
	}
}

// WithLister sets the directory-listing collaborator used by ls.
func WithLister(l Lister) Option {
	return func(ev *Evaluator) {
		if l != nil {
			ev.lister = l
		}
	}
}

// WithStrictBrackets makes '[' and ']' terminate identifiers when the
// evaluator parses source text.
func WithStrictBrackets(enable bool) Option {
	return func(ev *Evaluator) {
		ev.strict = enable
	}
}

// WithExternal enables or disables the external-command fallback. When
// disabled, calls matching no builtin or procedure fail with
// [ErrUnboundProcedure].
func WithExternal(enable bool) Option {
	return func(ev *Evaluator) {
		ev.external = enable
	}
}

// WithMaxDepth sets the maximum nesting of procedure calls.
func WithMaxDepth(depth int) Option {
	return func(ev *Evaluator) {
		if depth > 0 {
			ev.maxDepth = depth
		}
	}
}

// WithBuiltins registers additional builtins. A builtin named like a
// default one replaces it.
func WithBuiltins(builtins ...Builtin) Option {
	return func(ev *Evaluator) {
		ev.extra = append(ev.extra, builtins...)
	}
}

// New creates an Evaluator with an empty environment and the default
// builtins, backed by the host process unless overridden by options.
func New(opts ...Option) *Evaluator {
	ev := &Evaluator{
		env:      newEnvironment(),
		runner:   ExecRunner{},
		dir:      OSDirectory{},
		lister:   FSLister{},
		maxDepth: DefaultMaxDepth,
		external: true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ev)
		}
	}

	ev.frame = ev.env.global
	ev.builtins = NewRegistry(append(DefaultBuiltins(), ev.extra...)...)
	ev.extra = nil

	return ev
}

// Environment returns the session environment.
func (ev *Evaluator) Environment() *Environment { return ev.env }

// Builtins returns the builtin registry.
func (ev *Evaluator) Builtins() *Registry { return ev.builtins }

// Scope returns the innermost active scope: the call frame of the running
// procedure, or the global scope at top level.
func (ev *Evaluator) Scope() *Scope { return ev.frame }

// Directory returns the working-directory collaborator.
func (ev *Evaluator) Directory() Directory { return ev.dir }

// Lister returns the directory-listing collaborator.
func (ev *Evaluator) Lister() Lister { return ev.lister }

// Logger returns the evaluator's logger.
func (ev *Evaluator) Logger() log.Logger { return ev.logger }

// Parse tokenizes and parses src with the evaluator's lexing options.
func (ev *Evaluator) Parse(ctx context.Context, src string) (Program, error) {
	return ParseString(ctx, src, ev.logger, StrictBrackets(ev.strict))
}

// EvalString parses and evaluates src, returning the value of its last
// expression.
func (ev *Evaluator) EvalString(ctx context.Context, src string) (Value, error) {
	prog, err := ev.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	return ev.EvalProgram(ctx, prog)
}

// EvalProgram evaluates each expression in order and returns the value of
// the last one. An empty program evaluates to [Unit]. The first error aborts
// the remaining expressions; bindings made before it persist.
func (ev *Evaluator) EvalProgram(ctx context.Context, prog Program) (Value, error) {
	return ev.evalSequence(ctx, prog)
}

// Eval evaluates one expression in the current scope.
func (ev *Evaluator) Eval(ctx context.Context, e Expr) (Value, error) {
	return ev.eval(ctx, e)
}

// Force evaluates the expression suspended in q within the scope q
// captured.
func (ev *Evaluator) Force(ctx context.Context, q QuoteValue) (Value, error) {
	if q.Expr == nil {
		return Unit{}, nil
	}

	saved := ev.frame
	if q.scope != nil {
		ev.frame = q.scope
	}

	defer func() { ev.frame = saved }()

	if err := ev.enter(slog.String("quote", q.Expr.Kind().String())); err != nil {
		return nil, err
	}
	defer ev.leave()

	return ev.eval(ctx, q.Expr)
}

func (ev *Evaluator) evalSequence(ctx context.Context, exprs []Expr) (Value, error) {
	if len(exprs) == 0 {
		return Unit{}, nil
	}

	last := len(exprs) - 1

	for _, e := range exprs[:last] {
		if _, err := ev.eval(ctx, e); err != nil {
			return nil, err
		}
	}

	return ev.eval(ctx, exprs[last])
}

func (ev *Evaluator) eval(ctx context.Context, e Expr) (Value, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}

	ev.logger.TraceContext(ctx, "eval",
		slog.String("kind", e.Kind().String()),
		slog.Int("depth", ev.depth))

	switch e := e.(type) {
	case StringLit:
		return String(e.Value), nil

	case NumberLit:
		return Number(e.Value), nil

	case FloatLit:
		return Float(e.Value), nil

	case UnitLit:
		return Unit{}, nil

	case Variable:
		v, ok := ev.frame.Lookup(e.Name)
		if !ok {
			return nil, ErrUnboundVariable.With(slog.String("name", e.Name))
		}

		return v, nil

	case Let:
		v, err := ev.eval(ctx, e.Value)
		if err != nil {
			return nil, err
		}

		ev.frame.Bind(e.Name, v)

		return Unit{}, nil

	case Defun:
		ev.env.Define(Procedure{Name: e.Name, Params: e.Params, Body: e.Body})

		return Unit{}, nil

	case ArrayLit:
		return ev.evalArgs(ctx, e.Elems)

	case TableLit:
		return ev.evalTable(ctx, e)

	case Quote:
		return QuoteValue{Expr: e.Inner, scope: ev.frame}, nil

	case Call:
		return ev.call(ctx, e)

	default:
		fault("unknown expression kind", slog.String("kind", e.Kind().String()))

		return nil, nil
	}
}

func (ev *Evaluator) evalArgs(ctx context.Context, exprs []Expr) (Array, error) {
	vals := make(Array, len(exprs))

	for i, e := range exprs {
		v, err := ev.eval(ctx, e)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func (ev *Evaluator) evalTable(ctx context.Context, e TableLit) (Value, error) {
	names := make([]string, len(e.Columns))
	cols := make([]Array, len(e.Columns))

	for i, c := range e.Columns {
		v, err := ev.eval(ctx, c.Value)
		if err != nil {
			return nil, err
		}

		arr, ok := v.(Array)
		if !ok {
			return nil, typeMismatch(TypeArray, v).With(slog.String("column", c.Name))
		}

		names[i], cols[i] = c.Name, arr
	}

	return tableFromColumns(names, cols)
}

// call resolves a call by builtin, then procedure, then external command.
func (ev *Evaluator) call(ctx context.Context, c Call) (Value, error) {
	if b, ok := ev.builtins.Lookup(c.Name); ok {
		if err := b.checkArity(len(c.Args)); err != nil {
			return nil, err
		}

		args, err := ev.evalArgs(ctx, c.Args)
		if err != nil {
			return nil, err
		}

		ev.logger.TraceContext(ctx, "builtin call",
			slog.String("name", c.Name),
			slog.Int("argc", len(args)))

		return b.Fn(ctx, ev, args)
	}

	if p, ok := ev.env.Procedure(c.Name); ok {
		return ev.callProcedure(ctx, p, c.Args)
	}

	if !ev.external {
		return nil, ErrUnboundProcedure.With(slog.String("name", c.Name))
	}

	return ev.callExternal(ctx, c)
}

func (ev *Evaluator) callProcedure(
	ctx context.Context,
	p Procedure,
	argExprs []Expr,
) (Value, error) {
	if len(argExprs) != len(p.Params) {
		return nil, ErrArityMismatch.With(
			slog.String("procedure", p.Name),
			slog.Int("expected", len(p.Params)),
			slog.Int("got", len(argExprs)),
		)
	}

	args, err := ev.evalArgs(ctx, argExprs)
	if err != nil {
		return nil, err
	}

	frame := NewScope(ev.env.global)
	for i, name := range p.Params {
		frame.Bind(name, args[i])
	}

	if err := ev.enter(slog.String("procedure", p.Name)); err != nil {
		return nil, err
	}
	defer ev.leave()

	saved := ev.frame
	ev.frame = frame

	defer func() { ev.frame = saved }()

	ev.logger.TraceContext(ctx, "procedure call",
		slog.String("name", p.Name),
		slog.Int("argc", len(args)))

	return ev.evalSequence(ctx, p.Body)
}

func (ev *Evaluator) callExternal(ctx context.Context, c Call) (Value, error) {
	args, err := ev.evalArgs(ctx, c.Args)
	if err != nil {
		return nil, err
	}

	argv := make([]string, len(args))
	for i, v := range args {
		argv[i] = v.String()
	}

	ev.logger.TraceContext(ctx, "external command",
		slog.String("name", c.Name),
		slog.Any("args", argv))

	fail := ErrExternalCommandFailure.With(slog.String("command", c.Name))

	out, err := ev.runner.Run(ctx, c.Name, argv)
	if err != nil {
		return nil, fail.Wrap(err)
	}

	out = strings.TrimSpace(out)
	if !utf8.ValidString(out) {
		return nil, fail.Wrap(errors.New("output is not valid UTF-8"))
	}

	return String(unescape(out)), nil
}

func (ev *Evaluator) enter(attr slog.Attr) error {
	if ev.depth >= ev.maxDepth {
		return ErrMaxDepthExceeded.With(attr, slog.Int("max", ev.maxDepth))
	}

	ev.depth++

	return nil
}

func (ev *Evaluator) leave() { ev.depth-- }

// Names returns every name a user can refer to in the current session:
// builtins, procedures and visible variables (prefixed with '#').
func (ev *Evaluator) Names() []string {
	names := ev.builtins.Names()
	names = append(names, ev.env.Procedures()...)

	for _, v := range ev.frame.Names() {
		names = append(names, "#"+v)
	}

	return names
}

func typeMismatch(expected Type, got Value) *Error {
	return ErrTypeMismatch.With(
		slog.String("expected", expected.String()),
		slog.String("got", typeName(got)),
	)
}

func typeName(v Value) string {
	if v == nil {
		return "nil"
	}

	return v.Type().String()
}

func itoa(n int) string { return strconv.Itoa(n) }
