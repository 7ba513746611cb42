package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Wafelack/mess/cli/cmd/repl"
	"github.com/Wafelack/mess/lang"
	"github.com/Wafelack/mess/log"
	"github.com/Wafelack/mess/pkg"
)

// Run evaluates source files and expressions in one session.
type Run struct {
	Expr  []string `help:"Evaluate expression text after the files (repeatable)." name:"expr"  short:"e"`
	Quiet bool     `help:"Do not print program values."                           short:"q"`

	Files []string `arg:"" help:"Source files or '-' for stdin." name:"file" optional:""`
}

// Run executes the run command. With neither files nor expressions it
// starts the interactive session instead.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if len(r.Files) == 0 && len(r.Expr) == 0 {
		return startRepl(ctx, interpFrom(ctx).evaluator(log.Default(), strings.NewReader("")))
	}

	ev := interpFrom(ctx).evaluator(log.Default(), os.Stdin)

	srcs, closeAll, err := openSources(r.Files)
	if err != nil {
		return err
	}
	defer closeAll()

	for i, expr := range r.Expr {
		srcs = append(srcs, source{
			name:   fmt.Sprintf("-e[%d]", i),
			Reader: strings.NewReader(expr),
		})
	}

	w := stdout(ctx)
	if r.Quiet {
		w = io.Discard
	}

	return evalSources(ctx, ev, w, srcs)
}

// Repl starts the interactive session.
type Repl struct {
	Files []string `arg:"" help:"Source files to load before the session starts." name:"file" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ev := interpFrom(ctx).evaluator(log.Default(), strings.NewReader(""))

	srcs, closeAll, err := openSources(r.Files)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := evalSources(ctx, ev, io.Discard, srcs); err != nil {
		return err
	}

	return startRepl(ctx, ev)
}

func startRepl(ctx context.Context, ev *lang.Evaluator) error {
	cache, ok := kongVar(ctx, CacheIdentifier)
	if !ok || cache == "" {
		cache = pkg.CacheDir()
	}

	return repl.Run(ctx, ev, cache, log.Default())
}

// evalSources evaluates each source in ev and writes the value of every
// program that does not evaluate to unit.
func evalSources(
	ctx context.Context,
	ev *lang.Evaluator,
	w io.Writer,
	srcs []source,
) error {
	for _, src := range srcs {
		text, err := readSource(src)
		if err != nil {
			return err
		}

		v, err := ev.EvalString(ctx, text)
		if err != nil {
			return ErrEvaluate.With(slog.String("source", src.name)).Wrap(err)
		}

		log.TraceContext(ctx, "source evaluated",
			slog.String("source", src.name),
			slog.String("type", v.Type().String()))

		if v.Type() == lang.TypeUnit {
			continue
		}

		if _, err := fmt.Fprintln(w, lang.Display(v)); err != nil {
			return err
		}
	}

	return nil
}
