package cmd

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Wafelack/mess/lang"
)

var testInterp = Interp{External: false, MaxDepth: 100}

func TestRun_Expressions(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		want  string
	}{
		{"value", []string{"(+ 1 2)"}, "3\n"},
		{"unit is not printed", []string{"(let x 1)"}, ""},
		{"session persists", []string{"(let x 2)", "(* #x 21)"}, "42\n"},
		{"last value only", []string{"1 2 3"}, "3\n"},
		{"string", []string{`"hi"`}, "hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := testContext(t, nil, testInterp)

			r := &Run{Expr: tt.exprs}
			if err := r.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_FilesThenExpressions(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.mess", "(defun (double n) (* #n 2))")
	main := writeFile(t, dir, "main.mess", "(let base 20)\n(double #base)")

	ctx, out := testContext(t, nil, testInterp)

	r := &Run{Files: []string{lib, main}, Expr: []string{"(double 4)"}}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := out.String(); got != "40\n8\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRun_Quiet(t *testing.T) {
	ctx, out := testContext(t, nil, testInterp)

	r := &Run{Expr: []string{"(+ 1 2)"}, Quiet: true}
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestRun_Display(t *testing.T) {
	ctx, out := testContext(t, nil, testInterp)

	r := &Run{Expr: []string{`(table (name ["a"]) (size [1]))`}}
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"name", "size", "a", "1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q missing %q", out.String(), want)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		files []string
		want  error
	}{
		{"parse", []string{"(+ 1"}, nil, lang.ErrUnfinishedExpression},
		{"eval", []string{"#nope"}, nil, lang.ErrUnboundVariable},
		{"external disabled", []string{"(whoami)"}, nil, lang.ErrUnboundProcedure},
		{"missing file", nil, []string{filepath.Join(t.TempDir(), "x.mess")}, fs.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := testContext(t, nil, testInterp)

			err := (&Run{Expr: tt.exprs, Files: tt.files}).Run(ctx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			if tt.files == nil && !errors.Is(err, ErrEvaluate) {
				t.Errorf("error = %v, want wrapped in ErrEvaluate", err)
			}
		})
	}
}

func TestRun_ErrorNamesSource(t *testing.T) {
	ctx, _ := testContext(t, nil, testInterp)

	err := (&Run{Expr: []string{"1", "(/ 1 0)"}}).Run(ctx)

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *Error", err)
	}

	found := false
	for _, a := range ce.attrs {
		if a.Key == "source" && a.Value.String() == "-e[1]" {
			found = true
		}
	}

	if !found {
		t.Errorf("attrs = %v, want source=-e[1]", ce.attrs)
	}
}
