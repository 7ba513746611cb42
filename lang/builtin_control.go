package lang

import (
	"context"
	"log/slog"
)

func controlBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "if", MinArgs: 3, MaxArgs: 3,
			Usage: "(if cond 'then 'else) forces only the selected branch",
			Fn:    ifThenElse,
		},
		{
			Name: "unquote", MinArgs: 1, MaxArgs: 1,
			Usage: "(unquote 'expr) evaluates a quoted expression",
			Fn:    unquote,
		},
	}
}

// ifThenElse selects a branch by the truthiness of its condition. A quoted
// branch is forced; any other value is returned as is. The other branch is
// never forced.
func ifThenElse(ctx context.Context, ev *Evaluator, args []Value) (Value, error) {
	branch := args[2]
	if Truthy(args[0]) {
		branch = args[1]
	}

	ev.logger.TraceContext(ctx, "if",
		slog.Bool("cond", Truthy(args[0])),
		slog.String("branch", typeName(branch)))

	if q, ok := branch.(QuoteValue); ok {
		return ev.Force(ctx, q)
	}

	return branch, nil
}

func unquote(ctx context.Context, ev *Evaluator, args []Value) (Value, error) {
	q, ok := args[0].(QuoteValue)
	if !ok {
		return nil, typeMismatch(TypeQuote, args[0]).With(slog.String("builtin", "unquote"))
	}

	return ev.Force(ctx, q)
}
