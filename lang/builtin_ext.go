package lang

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"
)

func extensionBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "type-of", MinArgs: 1, MaxArgs: 1,
			Usage: "(type-of v) returns the type name of v",
			Fn:    typeOf,
		},
		{
			Name: "calc", MinArgs: 1, MaxArgs: 1,
			Usage: `(calc "expr") evaluates an expr-lang expression over visible variables`,
			Fn:    calc,
		},
		{
			Name: "path-prefix", MinArgs: 2, MaxArgs: Variadic,
			Usage: "(path-prefix list dir ...) prepends dirs to a path list without duplicates",
			Fn:    pathPrefix,
		},
		{
			Name: "to-yaml", MinArgs: 1, MaxArgs: 1,
			Usage: "(to-yaml v) encodes v as YAML",
			Fn:    toYAML,
		},
	}
}

func typeOf(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
	return String(typeName(args[0])), nil
}

// calc compiles and runs an expr-lang program. Variables visible from the
// calling scope are exposed under their own names.
func calc(ctx context.Context, ev *Evaluator, args []Value) (Value, error) {
	src, ok := args[0].(String)
	if !ok {
		return nil, typeMismatch(TypeString, args[0]).With(slog.String("builtin", "calc"))
	}

	visible := ev.frame.Visible()

	env := make(map[string]any, len(visible))
	for name, v := range visible {
		env[name] = ToGo(v)
	}

	fail := ErrCalcFailure.With(slog.String("source", string(src)))

	program, err := expr.Compile(string(src), expr.Env(env))
	if err != nil {
		return nil, fail.Wrap(err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fail.Wrap(err)
	}

	ev.logger.TraceContext(ctx, "calc",
		slog.String("source", string(src)),
		slog.Any("result", out))

	return FromGo(out), nil
}

func pathPrefix(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
	items := make([]string, len(args))

	for i, arg := range args {
		s, ok := arg.(String)
		if !ok {
			return nil, typeMismatch(TypeString, arg).With(
				slog.String("builtin", "path-prefix"),
				slog.Int("operand", i),
			)
		}

		items[i] = string(s)
	}

	return String(mung.Make(
		mung.WithSubjectItems(items[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items[1:]...),
	).String()), nil
}

func toYAML(ctx context.Context, _ *Evaluator, args []Value) (Value, error) {
	out, err := yaml.MarshalContext(ctx, toGo(args[0], true))
	if err != nil {
		return nil, ErrTypeMismatch.
			With(slog.String("builtin", "to-yaml")).
			Wrap(err)
	}

	return String(strings.TrimSuffix(string(out), "\n")), nil
}
