package lang

import (
	"errors"
	"reflect"
	"testing"
)

// tok is a compact token description for table-driven tests.
type tok struct {
	kind TokenKind
	text string
	num  int32
	flt  float32
}

func simplify(tokens []Token) []tok {
	out := make([]tok, len(tokens))
	for i, t := range tokens {
		out[i] = tok{kind: t.Kind, num: t.Number, flt: t.Float}
		if t.Kind == TokenString || t.Kind == TokenIdentifier {
			out[i].text = t.Text
		}
	}

	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []tok
	}{
		{"empty", "", []tok{}},
		{"parens", "()", []tok{{kind: TokenLParen}, {kind: TokenRParen}}},
		{"fixed", "[]#'", []tok{
			{kind: TokenLBracket}, {kind: TokenRBracket},
			{kind: TokenSharp}, {kind: TokenQuote},
		}},
		{"numbers", "42 3.1415", []tok{
			{kind: TokenNumber, num: 42},
			{kind: TokenFloat, flt: 3.1415},
		}},
		{"negative", "-1 -2.5", []tok{
			{kind: TokenNumber, num: -1},
			{kind: TokenFloat, flt: -2.5},
		}},
		{"minus identifier", "(- 1 2)", []tok{
			{kind: TokenLParen},
			{kind: TokenIdentifier, text: "-"},
			{kind: TokenNumber, num: 1},
			{kind: TokenNumber, num: 2},
			{kind: TokenRParen},
		}},
		{"trailing dot", "7.", []tok{{kind: TokenFloat, flt: 7}}},
		{"int overflow becomes float", "3000000000", []tok{
			{kind: TokenFloat, flt: 3e9},
		}},
		{"string", `"foobar"`, []tok{{kind: TokenString, text: "foobar"}}},
		{"escapes", `"a\nb\tc\"d\\e\0f\x1bg\r"`, []tok{
			{kind: TokenString, text: "a\nb\tc\"d\\e\x00f\x1bg\r"},
		}},
		{"unknown escape kept", `"\q"`, []tok{{kind: TokenString, text: `\q`}}},
		{"identifier", "moow", []tok{{kind: TokenIdentifier, text: "moow"}}},
		{"keywords", "let defun table", []tok{
			{kind: TokenLet}, {kind: TokenDefun}, {kind: TokenTable},
		}},
		{"keyword prefix is identifier", "letter", []tok{
			{kind: TokenIdentifier, text: "letter"},
		}},
		{"identifier absorbs bracket", "[a b]", []tok{
			{kind: TokenLBracket},
			{kind: TokenIdentifier, text: "a"},
			{kind: TokenIdentifier, text: "b]"},
		}},
		{"quote then identifier", "'a'", []tok{
			{kind: TokenQuote},
			{kind: TokenIdentifier, text: "a'"},
		}},
		{"comment", "1 ; ignored (\n2", []tok{
			{kind: TokenNumber, num: 1},
			{kind: TokenNumber, num: 2},
		}},
		{"comment at end", "1;x", []tok{{kind: TokenNumber, num: 1}}},
		{"whitespace", " \t\r\n", []tok{}},
		{"unicode identifier", "héllo", []tok{{kind: TokenIdentifier, text: "héllo"}}},
		{"number then identifier", "12ab", []tok{
			{kind: TokenNumber, num: 12},
			{kind: TokenIdentifier, text: "ab"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.src, err)
			}

			if got := simplify(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q)\n got %v\nwant %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestTokenize_StrictBrackets(t *testing.T) {
	tokens, err := Tokenize("[a b]", StrictBrackets(true))
	if err != nil {
		t.Fatal(err)
	}

	want := []tok{
		{kind: TokenLBracket},
		{kind: TokenIdentifier, text: "a"},
		{kind: TokenIdentifier, text: "b"},
		{kind: TokenRBracket},
	}

	if got := simplify(tokens); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	for _, src := range []string{`"abc`, `(echo "x)`, `"ends with escape\"`} {
		t.Run(src, func(t *testing.T) {
			_, err := Tokenize(src)
			if !errors.Is(err, ErrUnterminatedString) {
				t.Fatalf("Tokenize(%q) error = %v, want unterminated string", src, err)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("(a\n  #b)")
	if err != nil {
		t.Fatal(err)
	}

	want := []Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 1, Line: 1, Column: 2},
		{Offset: 5, Line: 2, Column: 3},
		{Offset: 6, Line: 2, Column: 4},
		{Offset: 7, Line: 2, Column: 5},
	}

	for i, tk := range tokens {
		if tk.Pos != want[i] {
			t.Errorf("token %d (%v) at %+v, want %+v", i, tk, tk.Pos, want[i])
		}
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	src := `(defun (f x) (if #x '(echo "yes\n") 'no)) (f 1) [1 2.5 "s"]`

	a, errA := Tokenize(src)
	b, errB := Tokenize(src)

	if errA != nil || errB != nil {
		t.Fatalf("errors: %v, %v", errA, errB)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("tokenizing the same source twice produced different tokens")
	}
}

func FuzzTokenize(f *testing.F) {
	for _, seed := range []string{
		"(+ 1 2)",
		`"unterminated`,
		"[a b]",
		"'(if 0 'a 'b)",
		"-1.5 99999999999999999999999999999999999999999999",
		"; comment",
		"\xff\xfe",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		a, errA := Tokenize(src)
		b, errB := Tokenize(src)

		if (errA == nil) != (errB == nil) || !reflect.DeepEqual(a, b) {
			t.Fatalf("nondeterministic tokenization of %q", src)
		}

		if errA != nil && !errors.Is(errA, ErrUnterminatedString) {
			t.Fatalf("unexpected error kind: %v", errA)
		}
	})
}
