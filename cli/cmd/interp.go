package cmd

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/Wafelack/mess/lang"
	"github.com/Wafelack/mess/log"
)

// Interp holds the interpreter flags shared by every command that parses or
// evaluates source.
type Interp struct {
	StrictBrackets bool `help:"End identifiers at '[' and ']'."                                negatable:""`
	External       bool `default:"true"                  help:"Run unknown calls as external commands." negatable:""`
	MaxDepth       int  `default:"${maxDepthDefault}"    help:"Maximum procedure call depth."`
}

// Vars returns the kong variables referenced by Interp's flag tags.
func (Interp) Vars() kong.Vars {
	return kong.Vars{"maxDepthDefault": strconv.Itoa(lang.DefaultMaxDepth)}
}

type interpKey struct{}

// WithInterp returns a new context.Context carrying the interpreter flags.
func WithInterp(ctx context.Context, in Interp) context.Context {
	return context.WithValue(ctx, interpKey{}, in)
}

// interpFrom returns the interpreter flags stored in ctx, or the defaults.
func interpFrom(ctx context.Context) Interp {
	if in, ok := ctx.Value(interpKey{}).(Interp); ok {
		return in
	}

	return Interp{External: true, MaxDepth: lang.DefaultMaxDepth}
}

// lexOptions returns the lexer options selected by the flags.
func (in Interp) lexOptions() []lang.LexOption {
	return []lang.LexOption{lang.StrictBrackets(in.StrictBrackets)}
}

// evaluator returns a new session configured by the flags. External
// commands read stdin, which must not be the terminal while the
// interactive session owns it.
func (in Interp) evaluator(logger log.Logger, stdin io.Reader) *lang.Evaluator {
	return lang.New(
		lang.WithLogger(logger),
		lang.WithStrictBrackets(in.StrictBrackets),
		lang.WithExternal(in.External),
		lang.WithMaxDepth(in.MaxDepth),
		lang.WithRunner(lang.ExecRunner{Stdin: stdin, Stderr: os.Stderr}),
	)
}
