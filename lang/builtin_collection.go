package lang

import (
	"context"
	"log/slog"
)

func collectionBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "@", MinArgs: 2, MaxArgs: 2,
			Usage: "(@ collection index) indexes an array, string or table",
			Fn:    index,
		},
	}
}

// index implements @. Array and String take a Number index; Table takes a
// column name or a row Number. Missing elements yield Unit.
func index(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
	coll, key := args[0], args[1]

	switch coll := coll.(type) {
	case Array:
		i, ok := key.(Number)
		if !ok {
			return nil, typeMismatch(TypeNumber, key).With(slog.String("builtin", "@"))
		}

		if i < 0 || int(i) >= len(coll) {
			return Unit{}, nil
		}

		return coll[i], nil

	case String:
		i, ok := key.(Number)
		if !ok {
			return nil, typeMismatch(TypeNumber, key).With(slog.String("builtin", "@"))
		}

		if i < 0 {
			return Unit{}, nil
		}

		n := int(i)
		for _, r := range string(coll) {
			if n == 0 {
				return String(r), nil
			}

			n--
		}

		return Unit{}, nil

	case Table:
		switch key := key.(type) {
		case String:
			if col, ok := coll.Column(string(key)); ok {
				return col, nil
			}

			return Unit{}, nil

		case Number:
			if row, ok := coll.Row(int(key)); ok {
				return row, nil
			}

			return Unit{}, nil

		default:
			return nil, ErrTypeMismatch.With(
				slog.String("builtin", "@"),
				slog.String("expected", "String or Number"),
				slog.String("got", typeName(key)),
			)
		}

	default:
		return nil, ErrTypeMismatch.With(
			slog.String("builtin", "@"),
			slog.String("expected", "Array, String or Table"),
			slog.String("got", typeName(coll)),
		)
	}
}
