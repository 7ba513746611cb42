package lang

import (
	"context"
	"log/slog"
)

func arithmeticBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "+", MinArgs: 2, MaxArgs: Variadic,
			Usage: "(+ a b ...) sums numbers of one kind",
			Fn: fold("+",
				func(a, b Number) Number { return a + b },
				func(a, b Float) Float { return a + b }),
		},
		{
			Name: "-", MinArgs: 2, MaxArgs: Variadic,
			Usage: "(- a b ...) subtracts each of b ... from a",
			Fn: fold("-",
				func(a, b Number) Number { return a - b },
				func(a, b Float) Float { return a - b }),
		},
		{
			Name: "*", MinArgs: 2, MaxArgs: Variadic,
			Usage: "(* a b ...) multiplies numbers of one kind",
			Fn: fold("*",
				func(a, b Number) Number { return a * b },
				func(a, b Float) Float { return a * b }),
		},
		{
			Name: "/", MinArgs: 2, MaxArgs: 2,
			Usage: "(/ a b) divides a by b",
			Fn:    divide,
		},
	}
}

// fold left-folds args with the operation matching the first argument's
// type. Every argument must have that type.
func fold(
	name string,
	intOp func(a, b Number) Number,
	floatOp func(a, b Float) Float,
) BuiltinFunc {
	return func(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
		switch seed := args[0].(type) {
		case Number:
			acc := seed

			for i, arg := range args[1:] {
				n, ok := arg.(Number)
				if !ok {
					return nil, operandMismatch(name, i+1, TypeNumber, arg)
				}

				acc = intOp(acc, n)
			}

			return acc, nil

		case Float:
			acc := seed

			for i, arg := range args[1:] {
				f, ok := arg.(Float)
				if !ok {
					return nil, operandMismatch(name, i+1, TypeFloat, arg)
				}

				acc = floatOp(acc, f)
			}

			return acc, nil

		default:
			return nil, ErrTypeMismatch.With(
				slog.String("builtin", name),
				slog.String("expected", "Number or Float"),
				slog.String("got", typeName(seed)),
			)
		}
	}
}

func divide(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
	switch a := args[0].(type) {
	case Number:
		b, ok := args[1].(Number)
		if !ok {
			return nil, operandMismatch("/", 1, TypeNumber, args[1])
		}

		if b == 0 {
			return nil, ErrDivisionByZero.With(slog.String("dividend", a.String()))
		}

		// Go defines MinInt32 / -1 as MinInt32, matching wrapping
		// arithmetic elsewhere.
		return a / b, nil

	case Float:
		b, ok := args[1].(Float)
		if !ok {
			return nil, operandMismatch("/", 1, TypeFloat, args[1])
		}

		return a / b, nil

	default:
		return nil, ErrTypeMismatch.With(
			slog.String("builtin", "/"),
			slog.String("expected", "Number or Float"),
			slog.String("got", typeName(a)),
		)
	}
}

func operandMismatch(name string, index int, expected Type, got Value) *Error {
	return typeMismatch(expected, got).With(
		slog.String("builtin", name),
		slog.Int("operand", index),
	)
}
