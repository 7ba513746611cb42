package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/Wafelack/mess/lang"
	"github.com/Wafelack/mess/log"
	"github.com/Wafelack/mess/pkg"
)

// Fmt parses source and prints it in the chosen format without evaluating it.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical mess source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
}

// Native prints source in canonical form, one top-level expression per line.
type Native struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the native format command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, f.Source, "native")
	if err != nil {
		return err
	}

	if len(prog) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(stdout(ctx), prog.String())

	return err
}

// JSON prints the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the json format command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	var data []byte
	if j.Indent > 0 {
		data, err = json.MarshalIndent(native(prog), "", strings.Repeat(" ", j.Indent))
	} else {
		data, err = json.Marshal(native(prog))
	}

	if err != nil {
		return pkg.ErrJSONMarshal.Wrap(err)
	}

	_, err = fmt.Fprintln(stdout(ctx), string(data))

	return err
}

// YAML prints the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 for flow style)" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the yaml format command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	var opts []yaml.EncodeOption
	if y.Indent > 0 {
		opts = append(opts, yaml.Indent(y.Indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, native(prog), opts...)
	if err != nil {
		return pkg.ErrYAMLMarshal.Wrap(err)
	}

	_, err = fmt.Fprint(stdout(ctx), string(data))

	return err
}

// parseSource reads and parses a single source with the interpreter's lexing
// flags.
func parseSource(ctx context.Context, path, format string) (lang.Program, error) {
	srcs, closeAll, err := openSources([]string{path})
	if err != nil {
		return nil, err
	}
	defer closeAll()

	if len(srcs) == 0 {
		return nil, nil
	}

	text, err := readSource(srcs[0])
	if err != nil {
		return nil, err
	}

	prog, err := lang.ParseString(ctx, text, log.Default(),
		interpFrom(ctx).lexOptions()...)
	if err != nil {
		return nil, ErrFormat.
			With(slog.String("format", format), slog.String("source", srcs[0].name)).
			Wrap(err)
	}

	return prog, nil
}

// native converts every top-level expression to plain Go data.
func native(prog lang.Program) []any {
	out := make([]any, len(prog))
	for i, e := range prog {
		out[i] = lang.ToNative(e)
	}

	return out
}
