package lang

import (
	"context"
	"log/slog"

	"github.com/Wafelack/mess/log"
)

// Parse builds a [Program] from tokens produced by [Tokenize].
func Parse(ctx context.Context, tokens []Token, logger log.Logger) (Program, error) {
	p := &parser{tokens: tokens, logger: logger}

	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("token_count", len(tokens)),
		slog.Int("expr_count", len(prog)))

	return prog, nil
}

// ParseString tokenizes and parses src.
func ParseString(
	ctx context.Context,
	src string,
	logger log.Logger,
	opts ...LexOption,
) (Program, error) {
	tokens, err := Tokenize(src, opts...)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, tokens, logger)
}

// parser holds the parser state.
type parser struct {
	tokens []Token
	pos    int
	logger log.Logger
}

func (p *parser) parseProgram() (Program, error) {
	prog := make(Program, 0)

	for !p.eof() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		prog = append(prog, e)
	}

	return prog, nil
}

// parseExpr parses one expression starting at the current token.
func (p *parser) parseExpr() (Expr, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case TokenString, TokenIdentifier:
		return StringLit{Value: tok.Text}, nil

	case TokenNumber:
		return NumberLit{Value: tok.Number}, nil

	case TokenFloat:
		return FloatLit{Value: tok.Float}, nil

	case TokenSharp:
		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}

		return Variable{Name: name.Text}, nil

	case TokenQuote:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		return Quote{Inner: inner}, nil

	case TokenLBracket:
		elems, err := p.parseUntil(TokenRBracket)
		if err != nil {
			return nil, err
		}

		return ArrayLit{Elems: elems}, nil

	case TokenLParen:
		return p.parseForm()

	case TokenRParen:
		return nil, ErrUnexpectedClosingParen.WithPosition(tok.Pos)

	default:
		return nil, unexpected("expression", tok)
	}
}

// parseForm parses what follows an opening parenthesis.
func (p *parser) parseForm() (Expr, error) {
	head, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch head.Kind {
	case TokenRParen:
		p.pos++

		return UnitLit{}, nil

	case TokenLet:
		p.pos++

		return p.parseLet()

	case TokenDefun:
		p.pos++

		return p.parseDefun()

	case TokenTable:
		p.pos++

		return p.parseTable()

	case TokenIdentifier:
		p.pos++

		args, err := p.parseUntil(TokenRParen)
		if err != nil {
			return nil, err
		}

		return Call{Name: head.Text, Args: args}, nil

	default:
		return nil, unexpected(TokenIdentifier.String(), head)
	}
}

// parseLet parses: IDENT expr ')'.
func (p *parser) parseLet() (Expr, error) {
	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return Let{Name: name.Text, Value: value}, nil
}

// parseDefun parses: '(' IDENT IDENT* ')' expr* ')'.
func (p *parser) parseDefun() (Expr, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	var params []string

	for {
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}

		if tok.Kind == TokenRParen {
			break
		}

		if tok.Kind != TokenIdentifier {
			return nil, unexpected(TokenIdentifier.String(), tok)
		}

		params = append(params, tok.Text)
	}

	body, err := p.parseUntil(TokenRParen)
	if err != nil {
		return nil, err
	}

	return Defun{Name: name.Text, Params: params, Body: body}, nil
}

// parseTable parses: ( '(' IDENT expr ')' )* ')'.
func (p *parser) parseTable() (Expr, error) {
	var cols []Column

	for {
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}

		if tok.Kind == TokenRParen {
			return TableLit{Columns: cols}, nil
		}

		if tok.Kind != TokenLParen {
			return nil, unexpected(TokenLParen.String(), tok)
		}

		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}

		cols = append(cols, Column{Name: name.Text, Value: value})
	}
}

// parseUntil parses expressions up to and including the closing token.
func (p *parser) parseUntil(closing TokenKind) ([]Expr, error) {
	var exprs []Expr

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		if tok.Kind == closing {
			p.pos++

			return exprs, nil
		}

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, e)
	}
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.advance()
	if err != nil {
		return Token{}, err
	}

	if tok.Kind != kind {
		return Token{}, unexpected(kind.String(), tok)
	}

	return tok, nil
}

func (p *parser) peek() (Token, error) {
	if p.eof() {
		return Token{}, p.unfinished()
	}

	return p.tokens[p.pos], nil
}

func (p *parser) advance() (Token, error) {
	tok, err := p.peek()
	if err == nil {
		p.pos++
	}

	return tok, err
}

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) unfinished() error {
	err := ErrUnfinishedExpression
	if n := len(p.tokens); n > 0 {
		return err.WithPosition(p.tokens[n-1].Pos)
	}

	return err
}

func unexpected(expected string, found Token) error {
	if found.Kind == TokenRParen && expected == "expression" {
		return ErrUnexpectedClosingParen.WithPosition(found.Pos)
	}

	return ErrUnexpectedToken.
		With(
			slog.String("expected", expected),
			slog.String("found", found.Kind.String()),
		).
		WithPosition(found.Pos)
}
