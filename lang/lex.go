package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"unicode/utf8"
)

// LexOption configures tokenization.
type LexOption func(*lexer)

// StrictBrackets makes '[' and ']' terminate identifiers. By default they do
// not, so an identifier such as "b]" absorbs the closing bracket.
func StrictBrackets(enable bool) LexOption {
	return func(l *lexer) {
		l.strict = enable
	}
}

// lexer holds the tokenizer state.
type lexer struct {
	input  string
	output []Token
	pos    int
	line   int
	col    int
	strict bool
}

// Tokenize converts source text into tokens. It either consumes the whole
// input or fails with [ErrUnterminatedString].
func Tokenize(src string, opts ...LexOption) ([]Token, error) {
	l := &lexer{
		input: src,
		line:  1,
		col:   1,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	for !l.eof() {
		if err := l.next(); err != nil {
			return nil, err
		}
	}

	return l.output, nil
}

func (l *lexer) next() error {
	start := l.position()
	ch := l.peek()

	switch {
	case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
		l.advance()

	case ch == ';':
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}

	case ch == '(':
		l.fixed(TokenLParen, start)
	case ch == ')':
		l.fixed(TokenRParen, start)
	case ch == '[':
		l.fixed(TokenLBracket, start)
	case ch == ']':
		l.fixed(TokenRBracket, start)
	case ch == '#':
		l.fixed(TokenSharp, start)
	case ch == '\'':
		l.fixed(TokenQuote, start)

	case ch == '"':
		return l.string(start)

	case isDigit(ch), ch == '-' && isDigit(l.peekAt(1)):
		l.numeral(start)

	default:
		l.identifier(start)
	}

	return nil
}

func (l *lexer) fixed(kind TokenKind, start Position) {
	l.advance()
	l.output = append(l.output, Token{Kind: kind, Pos: start})
}

func (l *lexer) string(start Position) error {
	l.advance() // skip opening quote

	body := l.pos

	for !l.eof() {
		switch l.peek() {
		case '\\':
			l.advance()

			if !l.eof() {
				l.advance()
			}

		case '"':
			text := unescape(l.input[body:l.pos])
			l.advance() // skip closing quote
			l.output = append(l.output, Token{
				Kind: TokenString,
				Text: text,
				Pos:  start,
			})

			return nil

		default:
			l.advance()
		}
	}

	return ErrUnterminatedString.WithPosition(start).
		With(slog.String("source", l.input[start.Offset:]))
}

// numeral scans digits, an optional '.', then digits, with an optional
// leading '-' already known to precede a digit.
func (l *lexer) numeral(start Position) {
	if l.peek() == '-' {
		l.advance()
	}

	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' {
		l.advance()
	}

	for isDigit(l.peek()) {
		l.advance()
	}

	raw := l.input[start.Offset:l.pos]

	if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
		l.output = append(l.output, Token{
			Kind:   TokenNumber,
			Number: int32(n),
			Text:   raw,
			Pos:    start,
		})

		return
	}

	// Out-of-range literals saturate to ±Inf rather than failing.
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		fault("scanned numeral is neither int32 nor float32",
			slog.String("numeral", raw),
			slog.String("pos", start.String()),
		)
	}

	l.output = append(l.output, Token{
		Kind:  TokenFloat,
		Float: float32(f),
		Text:  raw,
		Pos:   start,
	})
}

func (l *lexer) identifier(start Position) {
	for !l.eof() && !l.terminates(l.peek()) {
		l.advance()
	}

	text := l.input[start.Offset:l.pos]

	if kind, ok := keywords[text]; ok {
		l.output = append(l.output, Token{Kind: kind, Text: text, Pos: start})

		return
	}

	l.output = append(l.output, Token{
		Kind: TokenIdentifier,
		Text: text,
		Pos:  start,
	})
}

func (l *lexer) terminates(ch rune) bool {
	switch ch {
	case '(', ')', ' ', '\t', '\n', '\r':
		return true
	case '[', ']':
		return l.strict
	default:
		return false
	}
}

// Cursor primitives.

func (l *lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n runes ahead, or utf8.RuneError past the end.
func (l *lexer) peekAt(n int) rune {
	pos := l.pos

	for ; n > 0 && pos < len(l.input); n-- {
		_, size := utf8.DecodeRuneInString(l.input[pos:])
		pos += size
	}

	if pos >= len(l.input) {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeRuneInString(l.input[pos:])

	return r
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
