package lang

import (
	"strconv"
	"strings"
)

// ExprKind identifies the kind of an [Expr].
type ExprKind int

const (
	KindVariable ExprKind = iota
	KindString
	KindNumber
	KindFloat
	KindLet
	KindDefun
	KindCall
	KindArray
	KindTable
	KindQuote
	KindUnit
)

func (k ExprKind) String() string {
	switch k {
	case KindVariable:
		return "Var"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindFloat:
		return "Float"
	case KindLet:
		return "Let"
	case KindDefun:
		return "Defun"
	case KindCall:
		return "Call"
	case KindArray:
		return "Array"
	case KindTable:
		return "Table"
	case KindQuote:
		return "Quote"
	case KindUnit:
		return "Unit"
	default:
		return "Unknown"
	}
}

// Expr is a parsed, not yet evaluated, syntactic unit.
//
// String renders the expression in source syntax such that parsing the
// result yields an equivalent expression.
type Expr interface {
	Kind() ExprKind
	String() string
}

// Program is an ordered sequence of top-level expressions.
type Program []Expr

// String renders each top-level expression on its own line.
func (p Program) String() string {
	lines := make([]string, len(p))
	for i, e := range p {
		lines[i] = e.String()
	}

	return strings.Join(lines, "\n")
}

type (
	// Variable is a reference to a bound variable: #name.
	Variable struct{ Name string }

	// StringLit is a string literal, written either quoted or as a bare
	// identifier.
	StringLit struct{ Value string }

	// NumberLit is a 32-bit integer literal.
	NumberLit struct{ Value int32 }

	// FloatLit is a 32-bit float literal.
	FloatLit struct{ Value float32 }

	// Let binds Name to the value of Value: (let name expr).
	Let struct {
		Value Expr
		Name  string
	}

	// Defun defines a procedure: (defun (name params...) body...).
	Defun struct {
		Name   string
		Params []string
		Body   []Expr
	}

	// Call applies a builtin, procedure or external command:
	// (name args...).
	Call struct {
		Name string
		Args []Expr
	}

	// ArrayLit is an array literal: [elems...].
	ArrayLit struct{ Elems []Expr }

	// TableLit is a table literal: (table (column expr)...).
	TableLit struct{ Columns []Column }

	// Quote suspends evaluation of Inner: 'expr.
	Quote struct{ Inner Expr }

	// UnitLit is the empty form: ().
	UnitLit struct{}
)

// Column is one (name, array-expression) entry of a [TableLit].
type Column struct {
	Value Expr
	Name  string
}

func (Variable) Kind() ExprKind  { return KindVariable }
func (StringLit) Kind() ExprKind { return KindString }
func (NumberLit) Kind() ExprKind { return KindNumber }
func (FloatLit) Kind() ExprKind  { return KindFloat }
func (Let) Kind() ExprKind       { return KindLet }
func (Defun) Kind() ExprKind     { return KindDefun }
func (Call) Kind() ExprKind      { return KindCall }
func (ArrayLit) Kind() ExprKind  { return KindArray }
func (TableLit) Kind() ExprKind  { return KindTable }
func (Quote) Kind() ExprKind     { return KindQuote }
func (UnitLit) Kind() ExprKind   { return KindUnit }

func (e Variable) String() string  { return "#" + e.Name }
func (e StringLit) String() string { return `"` + escape(e.Value) + `"` }
func (e NumberLit) String() string { return strconv.FormatInt(int64(e.Value), 10) }
func (e Quote) String() string     { return "'" + e.Inner.String() }
func (UnitLit) String() string     { return "()" }

// String keeps a decimal point so the literal lexes back as a Float.
func (e FloatLit) String() string {
	s := formatFloat(e.Value)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}

	return s
}

func (e Let) String() string {
	return "(let " + e.Name + " " + e.Value.String() + ")"
}

func (e Defun) String() string {
	head := append([]string{e.Name}, e.Params...)

	return "(defun (" + strings.Join(head, " ") + ")" + joinExprs(e.Body, " ") + ")"
}

func (e Call) String() string {
	return "(" + e.Name + joinExprs(e.Args, " ") + ")"
}

func (e ArrayLit) String() string {
	return "[" + strings.TrimPrefix(joinExprs(e.Elems, " "), " ") + "]"
}

func (e TableLit) String() string {
	var sb strings.Builder

	sb.WriteString("(table")

	for _, c := range e.Columns {
		sb.WriteString(" (" + c.Name + " " + c.Value.String() + ")")
	}

	sb.WriteString(")")

	return sb.String()
}

// joinExprs renders exprs each preceded by sep.
func joinExprs(exprs []Expr, sep string) string {
	var sb strings.Builder

	for _, e := range exprs {
		sb.WriteString(sep)
		sb.WriteString(e.String())
	}

	return sb.String()
}

// ToNative converts an expression to plain Go maps, slices and scalars,
// suitable for JSON or YAML encoding.
func ToNative(e Expr) any {
	switch e := e.(type) {
	case Variable:
		return map[string]any{"var": e.Name}

	case StringLit:
		return e.Value

	case NumberLit:
		return e.Value

	case FloatLit:
		return e.Value

	case Let:
		return map[string]any{"let": e.Name, "value": ToNative(e.Value)}

	case Defun:
		params := e.Params
		if params == nil {
			params = []string{}
		}

		return map[string]any{
			"defun":  e.Name,
			"params": params,
			"body":   nativeList(e.Body),
		}

	case Call:
		return map[string]any{"call": e.Name, "args": nativeList(e.Args)}

	case ArrayLit:
		return nativeList(e.Elems)

	case TableLit:
		cols := make([]any, len(e.Columns))
		for i, c := range e.Columns {
			cols[i] = map[string]any{"column": c.Name, "value": ToNative(c.Value)}
		}

		return map[string]any{"table": cols}

	case Quote:
		return map[string]any{"quote": ToNative(e.Inner)}

	case UnitLit:
		return nil

	default:
		return nil
	}
}

func nativeList(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = ToNative(e)
	}

	return out
}
