package lang

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

func systemBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "cd", MinArgs: 0, MaxArgs: 1,
			Usage: "(cd [path]) changes the process working directory",
			Fn:    changeDir,
		},
		{
			Name: "ls", MinArgs: 0, MaxArgs: Variadic,
			Usage: "(ls [-s|--show-hidden] [-m|--mode] [path]) lists a directory",
			Fn:    listDir,
		},
		{
			Name: "getenv", MinArgs: 1, MaxArgs: 1,
			Usage: "(getenv name) returns an environment variable or ()",
			Fn:    getenv,
		},
	}
}

// changeDir records the current directory in previous-dir, then changes to
// $HOME or to the given path with a leading '~' expanded to $HOME.
// The change affects the whole process.
func changeDir(ctx context.Context, ev *Evaluator, args []Value) (Value, error) {
	var target string

	if len(args) == 1 {
		path, ok := args[0].(String)
		if !ok {
			return nil, typeMismatch(TypeString, args[0]).With(slog.String("builtin", "cd"))
		}

		target = string(path)
	}

	if target == "" || strings.HasPrefix(target, "~") {
		home, ok := ev.dir.LookupEnv("HOME")
		if !ok || home == "" {
			return nil, ErrDirectoryChangeFailure.
				With(slog.String("path", target)).
				Wrap(errors.New("$HOME is not set"))
		}

		if target == "" {
			target = home
		} else {
			target = home + strings.TrimPrefix(target, "~")
		}
	}

	current, err := ev.dir.Getwd()
	if err != nil {
		return nil, ErrDirectoryChangeFailure.Wrap(err)
	}

	ev.env.global.Bind(previousDirVar, String(current))

	ev.logger.TraceContext(ctx, "cd",
		slog.String("from", current),
		slog.String("to", target))

	if err := ev.dir.Chdir(target); err != nil {
		return nil, ErrDirectoryChangeFailure.
			With(slog.String("path", target)).
			Wrap(err)
	}

	return Unit{}, nil
}

func listDir(ctx context.Context, ev *Evaluator, args []Value) (Value, error) {
	var (
		opts ListOptions
		path = "."
	)

	for _, arg := range args {
		s, ok := arg.(String)
		if !ok {
			return nil, typeMismatch(TypeString, arg).With(slog.String("builtin", "ls"))
		}

		switch s {
		case "-s", "--show-hidden":
			opts.Hidden = true
		case "-m", "--mode":
			opts.Mode = true
		default:
			path = string(s)
		}
	}

	return ev.lister.List(ctx, path, opts)
}

func getenv(_ context.Context, ev *Evaluator, args []Value) (Value, error) {
	name, ok := args[0].(String)
	if !ok {
		return nil, typeMismatch(TypeString, args[0]).With(slog.String("builtin", "getenv"))
	}

	if v, ok := ev.dir.LookupEnv(string(name)); ok {
		return String(v), nil
	}

	return Unit{}, nil
}
