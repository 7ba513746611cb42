package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Code classifies an [Error] within the language's error taxonomy.
type Code int

const (
	codeNone Code = iota

	// Lexing.
	CodeUnterminatedString

	// Parsing.
	CodeUnexpectedToken
	CodeUnexpectedClosingParen
	CodeUnfinishedExpression

	// Evaluation.
	CodeUnboundVariable
	CodeUnboundProcedure
	CodeArityMismatch
	CodeTypeMismatch
	CodeTableColumnLengthMismatch
	CodeDivisionByZero
	CodeExternalCommandFailure
	CodeDirectoryChangeFailure
	CodeDirectoryListFailure
	CodeCalcFailure
	CodeMaxDepthExceeded
)

// Class returns the phase that produces errors with this code:
// "lex", "parse" or "eval".
func (c Code) Class() string {
	switch {
	case c == CodeUnterminatedString:
		return "lex"
	case c >= CodeUnexpectedToken && c <= CodeUnfinishedExpression:
		return "parse"
	case c >= CodeUnboundVariable:
		return "eval"
	default:
		return ""
	}
}

// Predefined errors (sentinel values). Match them with [errors.Is]; derived
// errors created with [Error.With] or [Error.Wrap] keep the sentinel's code.
var (
	ErrUnterminatedString = newError(CodeUnterminatedString, "unterminated string")

	ErrUnexpectedToken        = newError(CodeUnexpectedToken, "unexpected token")
	ErrUnexpectedClosingParen = newError(CodeUnexpectedClosingParen, "unexpected closing parenthesis")
	ErrUnfinishedExpression   = newError(CodeUnfinishedExpression, "unfinished expression")

	ErrUnboundVariable           = newError(CodeUnboundVariable, "unbound variable")
	ErrUnboundProcedure          = newError(CodeUnboundProcedure, "unbound procedure")
	ErrArityMismatch             = newError(CodeArityMismatch, "arity mismatch")
	ErrTypeMismatch              = newError(CodeTypeMismatch, "type mismatch")
	ErrTableColumnLengthMismatch = newError(CodeTableColumnLengthMismatch, "table column length mismatch")
	ErrDivisionByZero            = newError(CodeDivisionByZero, "division by zero")
	ErrExternalCommandFailure    = newError(CodeExternalCommandFailure, "external command failed")
	ErrDirectoryChangeFailure    = newError(CodeDirectoryChangeFailure, "directory change failed")
	ErrDirectoryListFailure      = newError(CodeDirectoryListFailure, "directory listing failed")
	ErrCalcFailure               = newError(CodeCalcFailure, "calc failed")
	ErrMaxDepthExceeded          = newError(CodeMaxDepthExceeded, "maximum call depth exceeded")
)

// Error represents a lexing, parsing or evaluation failure with optional
// structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	code  Code
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

func newError(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Code returns the taxonomy code of e.
func (e *Error) Code() Code { return e.code }

// Attr returns the value of the most recently added attribute with the
// given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for i := len(e.attrs) - 1; i >= 0; i-- {
		if e.attrs[i].Key == key {
			return e.attrs[i].Value, true
		}
	}

	return slog.Value{}, false
}

// Error implements the error interface. The format is
// "<msg>: k=v k=v: <cause>", omitting empty parts.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if len(e.attrs) > 0 {
		kv := make([]string, len(e.attrs))
		for i, a := range e.attrs {
			kv[i] = a.Key + "=" + a.Value.Resolve().String()
		}

		part = append(part, strings.Join(kv, " "))
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same code, so that any
// error derived from a sentinel matches that sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}

	return t.code != codeNone && t.code == e.code
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if class := e.code.Class(); class != "" {
		attrs = append(attrs, slog.String("class", class))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		code:  e.code,
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		code:  e.code,
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// WithPosition adds the source position to the error.
func (e *Error) WithPosition(pos Position) *Error {
	return e.With(slog.Int("line", pos.Line), slog.Int("col", pos.Column))
}

// Fault is the panic value raised when an internal invariant is violated.
// It signals a defect in the interpreter, never a problem with the program
// being interpreted, and is deliberately not an [Error].
type Fault struct {
	Msg   string
	Attrs []slog.Attr
}

func (f *Fault) Error() string {
	var sb strings.Builder

	sb.WriteString("internal fault: ")
	sb.WriteString(f.Msg)

	for _, a := range f.Attrs {
		sb.WriteString(" " + a.Key + "=" + a.Value.String())
	}

	return sb.String()
}

func fault(msg string, attrs ...slog.Attr) {
	panic(&Fault{Msg: msg, Attrs: attrs})
}
