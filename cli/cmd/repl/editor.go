package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/Wafelack/mess/lang"
	"github.com/Wafelack/mess/log"
)

const defaultEditor = "vi"

// sessionSource renders every procedure of the session as a canonical
// defun, one per line, sorted by name.
func sessionSource(ev *lang.Evaluator) string {
	env := ev.Environment()

	var b strings.Builder

	for _, name := range env.Procedures() {
		p, _ := env.Procedure(name)
		b.WriteString(lang.Defun{Name: p.Name, Params: p.Params, Body: p.Body}.String())
		b.WriteByte('\n')
	}

	return b.String()
}

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
// It writes the session's procedures to a temp file, opens the user's
// editor and parses the result. On a parse error the user is asked to edit
// again; declining fails with [ErrEditDeclined]. The parsed program is left
// in prog for the model to evaluate.
type editCommand struct {
	source  string
	parse   func(ctx context.Context, src string) (lang.Program, error)
	ctxFunc func() context.Context
	logger  log.Logger
	prog    lang.Program
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the loop. An emptied file leaves prog nil.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "mess-repl-*.mess")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.source

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		prog, parseErr := c.parse(ctx, string(data))
		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil))

		if parseErr == nil {
			c.prog = prog

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = string(data)
	}
}

// runEditor opens path in $EDITOR and returns the file's content once the
// editor exits.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	// EDITOR may carry arguments, as in "code --wait".
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	args = append(args, path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
