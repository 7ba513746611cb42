package lang

import (
	"strconv"
	"strings"
)

// Position identifies a location in source text.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// TokenKind identifies the kind of a [Token].
type TokenKind int

const (
	TokenString TokenKind = iota
	TokenIdentifier
	TokenNumber
	TokenFloat
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenSharp
	TokenQuote
	TokenLet
	TokenDefun
	TokenTable
)

func (k TokenKind) String() string {
	switch k {
	case TokenString:
		return "String"
	case TokenIdentifier:
		return "Identifier"
	case TokenNumber:
		return "Number"
	case TokenFloat:
		return "Float"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenLBracket:
		return "LBracket"
	case TokenRBracket:
		return "RBracket"
	case TokenSharp:
		return "Sharp"
	case TokenQuote:
		return "Quote"
	case TokenLet:
		return "Let"
	case TokenDefun:
		return "Defun"
	case TokenTable:
		return "Table"
	default:
		return "Unknown"
	}
}

// keywords maps reserved words to their token kinds.
var keywords = map[string]TokenKind{
	"let":   TokenLet,
	"defun": TokenDefun,
	"table": TokenTable,
}

// Token is a lexical unit. Text holds the decoded payload of String and
// Identifier tokens; Number and Float hold numeric payloads.
type Token struct {
	Text   string
	Pos    Position
	Kind   TokenKind
	Number int32
	Float  float32
}

func (t Token) String() string {
	switch t.Kind {
	case TokenString:
		return "String(" + strconv.Quote(t.Text) + ")"
	case TokenIdentifier:
		return "Identifier(" + t.Text + ")"
	case TokenNumber:
		return "Number(" + strconv.FormatInt(int64(t.Number), 10) + ")"
	case TokenFloat:
		return "Float(" + formatFloat(t.Float) + ")"
	default:
		return t.Kind.String()
	}
}

// unescape decodes the escape sequences recognized inside string literals.
// Unrecognized sequences are kept verbatim.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])

			continue
		}

		switch s[i+1] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'x':
			if strings.HasPrefix(s[i+2:], "1b") {
				sb.WriteByte(0x1b)
				i += 2
			} else {
				sb.WriteString(`\x`)
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i+1])
		}

		i++
	}

	return sb.String()
}

// escape is the inverse of unescape for the characters it decodes.
func escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
		"\x00", `\0`,
		"\x1b", `\x1b`,
	)

	return r.Replace(s)
}
