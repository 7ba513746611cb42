package lang

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os/exec"
	"strings"
	"testing"
)

// fakeRunner records external invocations and answers from a fixed table.
type fakeRunner struct {
	out   map[string]string
	calls []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string) (string, error) {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))

	if out, ok := r.out[name]; ok {
		return out, nil
	}

	return "", exec.ErrNotFound
}

// fakeDir is an in-memory working directory with a fixed set of existing
// directories.
type fakeDir struct {
	env    map[string]string
	dirs   map[string]bool
	cwd    string
	chdirs []string
}

func newFakeDir() *fakeDir {
	return &fakeDir{
		cwd:  "/start",
		env:  map[string]string{"HOME": "/home/user"},
		dirs: map[string]bool{"/start": true, "/home/user": true, "/a": true, "/b": true},
	}
}

func (d *fakeDir) Getwd() (string, error) { return d.cwd, nil }

func (d *fakeDir) Chdir(path string) error {
	if !d.dirs[path] {
		return &fs.PathError{Op: "chdir", Path: path, Err: fs.ErrNotExist}
	}

	d.chdirs = append(d.chdirs, path)
	d.cwd = path

	return nil
}

func (d *fakeDir) LookupEnv(name string) (string, bool) {
	v, ok := d.env[name]

	return v, ok
}

func newTestEvaluator(opts ...Option) (*Evaluator, *fakeRunner, *fakeDir) {
	runner := &fakeRunner{out: map[string]string{}}
	dir := newFakeDir()

	ev := New(append([]Option{WithRunner(runner), WithDirectory(dir)}, opts...)...)

	return ev, runner, dir
}

func mustEval(t *testing.T, ev *Evaluator, src string) Value {
	t.Helper()

	v, err := ev.EvalString(context.Background(), src)
	if err != nil {
		t.Fatalf("EvalString(%q) error = %v", src, err)
	}

	return v
}

func TestEval_Values(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"", Unit{}},
		{"()", Unit{}},
		{"42", Number(42)},
		{"2.5", Float(2.5)},
		{`"s"`, String("s")},
		{"word", String("word")},
		{"(let x 5) #x", Number(5)},
		{"(let x 5)", Unit{}},
		{"(defun (f) 1)", Unit{}},
		{"(defun (pi) 3.1415926535897932)(pi)", Float(3.1415926535897932)},
		{"[1 (+ 1 1) [3]]", Array{Number(1), Number(2), Array{Number(3)}}},
		{"(defun (nop)) (nop)", Unit{}},
		{"1 2 3", Number(3)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev, _, _ := newTestEvaluator()

			if got := mustEval(t, ev, tt.src); !Equal(got, tt.want) {
				t.Errorf("eval(%q) = %v (%s), want %v (%s)",
					tt.src, got, typeName(got), tt.want, typeName(tt.want))
			}
		})
	}
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"(+ 1 2 3)", Number(6)},
		{"(- 10 3 2)", Number(5)},
		{"(* 2 3 4)", Number(24)},
		{"(/ 10 2)", Number(5)},
		{"(/ 7 2)", Number(3)},
		{"(+ 1.5 2.5)", Float(4)},
		{"(- 1 5)", Number(-4)},
		{"(+ -1 -2)", Number(-3)},
		{"(/ 1.0 0.0)", Float(float32(math.Inf(1)))},
		{"(+ 2147483647 1)", Number(-2147483648)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev, _, _ := newTestEvaluator()

			if got := mustEval(t, ev, tt.src); !Equal(got, tt.want) {
				t.Errorf("eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEval_ArithmeticErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"(+ 1 2.0)", ErrTypeMismatch},
		{"(* 1.0 2)", ErrTypeMismatch},
		{`(+ "a" "b")`, ErrTypeMismatch},
		{"(+ 1)", ErrArityMismatch},
		{"(/ 1 2 3)", ErrArityMismatch},
		{"(/ 1 0)", ErrDivisionByZero},
		{"(/ 1 0.0)", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev, _, _ := newTestEvaluator()

			_, err := ev.EvalString(context.Background(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("eval(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestEval_Redefinition(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	mustEval(t, ev, "(let x 5)")

	if got := mustEval(t, ev, "#x"); !Equal(got, Number(5)) {
		t.Fatalf("#x = %v, want 5", got)
	}

	mustEval(t, ev, "(let x 6)")

	if got := mustEval(t, ev, "#x"); !Equal(got, Number(6)) {
		t.Fatalf("#x = %v, want 6", got)
	}

	mustEval(t, ev, "(defun (f) 1) (defun (f) 2)")

	if got := mustEval(t, ev, "(f)"); !Equal(got, Number(2)) {
		t.Fatalf("(f) = %v, want 2", got)
	}
}

func TestEval_UnboundVariable(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	_, err := ev.EvalString(context.Background(), "#nope")
	if !errors.Is(err, ErrUnboundVariable) {
		t.Fatalf("error = %v, want unbound variable", err)
	}

	if got := err.Error(); got != "unbound variable: name=nope" {
		t.Errorf("Error() = %q", got)
	}
}

func TestEval_ArityMismatch(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	_, err := ev.EvalString(context.Background(), "(defun (f a b) #a) (f 1 2 3)")
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("error = %v, want arity mismatch", err)
	}

	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("error %T is not *Error", err)
	}

	if v, _ := le.Attr("procedure"); v.String() != "f" {
		t.Errorf("procedure = %q, want f", v.String())
	}

	if v, _ := le.Attr("expected"); v.Int64() != 2 {
		t.Errorf("expected = %d, want 2", v.Int64())
	}

	if v, _ := le.Attr("got"); v.Int64() != 3 {
		t.Errorf("got = %d, want 3", v.Int64())
	}

	if got := err.Error(); got != "arity mismatch: procedure=f expected=2 got=3" {
		t.Errorf("Error() = %q", got)
	}
}

func TestEval_BuiltinArityChecksBeforeEvaluating(t *testing.T) {
	ev, runner, _ := newTestEvaluator()

	_, err := ev.EvalString(context.Background(), "(unquote (side-effect) 2)")
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("error = %v, want arity mismatch", err)
	}

	if len(runner.calls) != 0 {
		t.Errorf("arguments evaluated despite arity failure: %v", runner.calls)
	}
}

func TestEval_IfForcesOnlySelectedBranch(t *testing.T) {
	tests := []struct {
		cond string
		want string
	}{
		{"0", "/b"},
		{"1", "/a"},
		{"-3", "/a"},
		{"0.0", "/b"},
		{"0.5", "/a"},
		{`""`, "/b"},
		{`"x"`, "/a"},
		{"[1]", "/b"},
		{"()", "/b"},
		{"'1", "/b"},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			ev, _, dir := newTestEvaluator()

			src := "(if " + tt.cond + ` '(cd "/a") '(cd "/b"))`
			mustEval(t, ev, src)

			if len(dir.chdirs) != 1 || dir.chdirs[0] != tt.want {
				t.Errorf("chdirs = %v, want only %s", dir.chdirs, tt.want)
			}
		})
	}
}

func TestEval_IfQuotedIdentifierBranches(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	if got := mustEval(t, ev, "(if 0 'a' 'b')"); !Equal(got, String("b'")) {
		t.Errorf("(if 0 'a' 'b') = %v", got)
	}

	if got := mustEval(t, ev, "(if 1 'a' 'b')"); !Equal(got, String("a'")) {
		t.Errorf("(if 1 'a' 'b') = %v", got)
	}
}

func TestEval_IfUnquotedBranchReturnedAsIs(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	if got := mustEval(t, ev, "(if 1 5 6)"); !Equal(got, Number(5)) {
		t.Errorf("got %v, want 5", got)
	}
}

func TestEval_Unquote(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	if got := mustEval(t, ev, "(unquote '(+ 1 2))"); !Equal(got, Number(3)) {
		t.Errorf("got %v, want 3", got)
	}

	q := mustEval(t, ev, "'(+ 1 2)")
	if q.Type() != TypeQuote || q.String() != "<#quote{Call}>" {
		t.Errorf("quote = %v (%s)", q, typeName(q))
	}

	_, err := ev.EvalString(context.Background(), "(unquote 5)")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want type mismatch", err)
	}
}

func TestEval_QuoteDoesNotEvaluate(t *testing.T) {
	ev, runner, _ := newTestEvaluator()

	mustEval(t, ev, "(let q '(launch-missiles))")

	if len(runner.calls) != 0 {
		t.Fatalf("quoted call executed: %v", runner.calls)
	}
}

func TestEval_CallFramesDoNotLeak(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	src := `
		(let x 1)
		(defun (f x) (let y 2) (+ #x #y))
		(f 10)`

	if got := mustEval(t, ev, src); !Equal(got, Number(12)) {
		t.Fatalf("(f 10) = %v, want 12", got)
	}

	if got := mustEval(t, ev, "#x"); !Equal(got, Number(1)) {
		t.Errorf("#x after call = %v, want 1", got)
	}

	if _, err := ev.EvalString(context.Background(), "#y"); !errors.Is(err, ErrUnboundVariable) {
		t.Errorf("#y after call error = %v, want unbound variable", err)
	}
}

func TestEval_ProceduresSeeGlobals(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	src := `
		(let base 100)
		(defun (add n) (+ #base #n))
		(add 5)`

	if got := mustEval(t, ev, src); !Equal(got, Number(105)) {
		t.Errorf("got %v, want 105", got)
	}
}

func TestEval_QuoteCapturesScope(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	src := `
		(let x 1)
		(defun (make x) '#x)
		(let q (make 42))
		(unquote #q)`

	if got := mustEval(t, ev, src); !Equal(got, Number(42)) {
		t.Errorf("forced quote = %v, want 42", got)
	}
}

func TestEval_Recursion(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	src := `
		(defun (fact n) (if #n '(* #n (fact (- #n 1))) 1))
		(fact 5)`

	if got := mustEval(t, ev, src); !Equal(got, Number(120)) {
		t.Errorf("(fact 5) = %v, want 120", got)
	}
}

func TestEval_MaxDepth(t *testing.T) {
	ev, _, _ := newTestEvaluator(WithMaxDepth(50))

	_, err := ev.EvalString(context.Background(), "(defun (loop) (loop)) (loop)")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("error = %v, want max depth exceeded", err)
	}

	// The session stays usable.
	if got := mustEval(t, ev, "(+ 1 1)"); !Equal(got, Number(2)) {
		t.Errorf("got %v after depth failure", got)
	}
}

func TestEval_Table(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	v := mustEval(t, ev, `(table (name ["a" "b"]) (size [1 2]))`)

	tbl, ok := v.(Table)
	if !ok {
		t.Fatalf("got %s, want Table", typeName(v))
	}

	if got := tbl.Columns(); len(got) != 2 || got[0] != "name" || got[1] != "size" {
		t.Errorf("columns = %v", got)
	}

	row, _ := tbl.Row(1)
	if !Equal(row, Array{String("b"), Number(2)}) {
		t.Errorf("row 1 = %v", row)
	}
}

func TestEval_TableErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"(table (a [1 2]) (b [1]))", ErrTableColumnLengthMismatch},
		{"(table (a [1 2]) (b 3))", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev, _, _ := newTestEvaluator()

			_, err := ev.EvalString(context.Background(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEval_ExternalFallback(t *testing.T) {
	ev, runner, _ := newTestEvaluator()
	runner.out["echo"] = "  hello\\tworld\n"

	got := mustEval(t, ev, `(let n 3) (echo "a b" #n 1.5 [1] ())`)

	if !Equal(got, String("hello\tworld")) {
		t.Errorf("result = %q", got)
	}

	want := "echo a b 3 1.5 #<array 1 rows> ()"
	if len(runner.calls) != 1 || runner.calls[0] != want {
		t.Errorf("calls = %q, want %q", runner.calls, want)
	}
}

func TestEval_ExternalFailure(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	_, err := ev.EvalString(context.Background(), "(no-such-command 1)")
	if !errors.Is(err, ErrExternalCommandFailure) {
		t.Fatalf("error = %v, want external command failure", err)
	}

	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestEval_ExternalInvalidUTF8(t *testing.T) {
	ev, runner, _ := newTestEvaluator()
	runner.out["bin"] = "\xff\xfe"

	_, err := ev.EvalString(context.Background(), "(bin)")
	if !errors.Is(err, ErrExternalCommandFailure) {
		t.Fatalf("error = %v, want external command failure", err)
	}
}

func TestEval_ExecRunnerMissingBinary(t *testing.T) {
	ev := New(WithDirectory(newFakeDir()))

	_, err := ev.EvalString(context.Background(),
		"(mess-test-command-that-does-not-exist)")
	if !errors.Is(err, ErrExternalCommandFailure) {
		t.Fatalf("error = %v, want external command failure", err)
	}
}

func TestEval_WithoutExternal(t *testing.T) {
	ev, runner, _ := newTestEvaluator(WithExternal(false))

	_, err := ev.EvalString(context.Background(), "(ls-files)")
	if !errors.Is(err, ErrUnboundProcedure) {
		t.Fatalf("error = %v, want unbound procedure", err)
	}

	if len(runner.calls) != 0 {
		t.Errorf("runner called: %v", runner.calls)
	}
}

func TestEval_FirstErrorAbortsButBindingsPersist(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	_, err := ev.EvalString(context.Background(), "(let a 1) #missing (let b 2)")
	if !errors.Is(err, ErrUnboundVariable) {
		t.Fatalf("error = %v", err)
	}

	if got := mustEval(t, ev, "#a"); !Equal(got, Number(1)) {
		t.Errorf("#a = %v", got)
	}

	if _, err := ev.EvalString(context.Background(), "#b"); err == nil {
		t.Error("#b bound after aborted evaluation")
	}
}

func TestEval_CanceledContext(t *testing.T) {
	ev, _, _ := newTestEvaluator()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ev.EvalString(ctx, "(+ 1 2)"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEval_CustomBuiltin(t *testing.T) {
	double := Builtin{
		Name: "double", MinArgs: 1, MaxArgs: 1,
		Fn: func(_ context.Context, _ *Evaluator, args []Value) (Value, error) {
			return args[0].(Number) * 2, nil
		},
	}

	ev, _, _ := newTestEvaluator(WithBuiltins(double))

	if got := mustEval(t, ev, "(double 21)"); !Equal(got, Number(42)) {
		t.Errorf("got %v", got)
	}
}

func TestEvaluator_Names(t *testing.T) {
	ev, _, _ := newTestEvaluator()
	mustEval(t, ev, "(let answer 42) (defun (greet who) #who)")

	names := strings.Join(ev.Names(), " ")

	for _, want := range []string{"+", "if", "unquote", "greet", "#answer"} {
		if !strings.Contains(names, want) {
			t.Errorf("Names() missing %q: %s", want, names)
		}
	}
}
