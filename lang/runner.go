package lang

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// CommandRunner runs an external command and captures its standard output.
// Run blocks until the command exits.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (string, error)
}

// CommandRunnerFunc adapts a function to [CommandRunner].
type CommandRunnerFunc func(ctx context.Context, name string, args []string) (string, error)

// Run calls f.
func (f CommandRunnerFunc) Run(
	ctx context.Context,
	name string,
	args []string,
) (string, error) {
	return f(ctx, name, args)
}

// ExecRunner runs commands as child processes. Standard input and standard
// error are inherited unless overridden.
type ExecRunner struct {
	Stdin  io.Reader
	Stderr io.Writer
}

// Run implements [CommandRunner].
func (r ExecRunner) Run(
	ctx context.Context,
	name string,
	args []string,
) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	cmd.Stdin = r.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	out, err := cmd.Output()

	return string(out), err
}
