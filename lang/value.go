package lang

import (
	"log/slog"
	"slices"
	"strconv"
)

// Type names the runtime type of a [Value].
type Type int

const (
	TypeNumber Type = iota
	TypeFloat
	TypeString
	TypeArray
	TypeTable
	TypeQuote
	TypeUnit
)

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "Number"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeArray:
		return "Array"
	case TypeTable:
		return "Table"
	case TypeQuote:
		return "Quote"
	case TypeUnit:
		return "Unit"
	default:
		return "Unknown"
	}
}

// Value is a runtime result produced by evaluation.
//
// String returns the plain, single-line rendering used when a value is
// nested in a collection or passed to an external command. Use [Display]
// for the full human-readable form.
type Value interface {
	Type() Type
	String() string
}

type (
	// Number is a 32-bit signed integer. Arithmetic wraps on overflow.
	Number int32

	// Float is a 32-bit IEEE-754 float.
	Float float32

	// String is UTF-8 text.
	String string

	// Array is an ordered sequence of values.
	Array []Value

	// Unit is the empty value.
	Unit struct{}
)

// Table is a rectangular collection: every row has exactly one value per
// column. Construct tables with [NewTable] to enforce that invariant.
type Table struct {
	columns []string
	rows    [][]Value
}

// QuoteValue is a suspended computation: an unevaluated expression together
// with the scope that was active when it was created.
type QuoteValue struct {
	Expr  Expr
	scope *Scope
}

func (Number) Type() Type     { return TypeNumber }
func (Float) Type() Type      { return TypeFloat }
func (String) Type() Type     { return TypeString }
func (Array) Type() Type      { return TypeArray }
func (Table) Type() Type      { return TypeTable }
func (QuoteValue) Type() Type { return TypeQuote }
func (Unit) Type() Type       { return TypeUnit }

func (v Number) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return formatFloat(float32(v)) }
func (v String) String() string { return string(v) }
func (Unit) String() string     { return "()" }

func (v Array) String() string {
	return "#<array " + strconv.Itoa(len(v)) + " rows>"
}

func (v Table) String() string {
	return "#<table " + strconv.Itoa(len(v.rows)) + " rows>"
}

func (v QuoteValue) String() string {
	kind := "Unit"
	if v.Expr != nil {
		kind = v.Expr.Kind().String()
	}

	return "<#quote{" + kind + "}>"
}

// NewTable builds a table from column names and rows, failing with
// [ErrTableColumnLengthMismatch] if any row's length differs from the
// number of columns.
func NewTable(columns []string, rows [][]Value) (Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, ErrTableColumnLengthMismatch.With(
				slog.Int("row", i),
				slog.Int("columns", len(columns)),
				slog.Int("values", len(row)),
			)
		}
	}

	return Table{
		columns: slices.Clone(columns),
		rows:    rows,
	}, nil
}

// tableFromColumns transposes equally long column arrays into rows.
func tableFromColumns(names []string, cols []Array) (Table, error) {
	height := 0
	if len(cols) > 0 {
		height = len(cols[0])
	}

	for i, col := range cols {
		if len(col) != height {
			return Table{}, ErrTableColumnLengthMismatch.With(
				slog.String("column", names[i]),
				slog.Int("expected", height),
				slog.Int("got", len(col)),
			)
		}
	}

	rows := make([][]Value, height)
	for r := range rows {
		rows[r] = make([]Value, len(cols))
		for c, col := range cols {
			rows[r][c] = col[r]
		}
	}

	return Table{columns: slices.Clone(names), rows: rows}, nil
}

// Columns returns the column names in order.
func (v Table) Columns() []string { return slices.Clone(v.columns) }

// Len returns the number of rows.
func (v Table) Len() int { return len(v.rows) }

// Row returns row i as an Array, or false if i is out of range.
func (v Table) Row(i int) (Array, bool) {
	if i < 0 || i >= len(v.rows) {
		return nil, false
	}

	return Array(slices.Clone(v.rows[i])), true
}

// Column returns the named column as an Array, or false if absent.
func (v Table) Column(name string) (Array, bool) {
	c := slices.Index(v.columns, name)
	if c < 0 {
		return nil, false
	}

	col := make(Array, len(v.rows))
	for r, row := range v.rows {
		col[r] = row[c]
	}

	return col, true
}

// Truthy maps a value to a boolean for conditional dispatch. Non-zero
// numbers and non-empty strings are true; collections, quotes and unit are
// always false.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Number:
		return v != 0
	case Float:
		return v != 0
	case String:
		return v != ""
	default:
		return false
	}
}

// Equal reports whether a and b hold the same data. Quotes are equal when
// they wrap the same expression text.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.Type() != b.Type() {
		return false
	}

	switch a := a.(type) {
	case Array:
		return slices.EqualFunc(a, b.(Array), Equal)

	case Table:
		t := b.(Table)

		return slices.Equal(a.columns, t.columns) &&
			slices.EqualFunc(a.rows, t.rows, func(x, y []Value) bool {
				return slices.EqualFunc(x, y, Equal)
			})

	case QuoteValue:
		q := b.(QuoteValue)

		return a.String() == q.String() &&
			(a.Expr == nil) == (q.Expr == nil) &&
			(a.Expr == nil || a.Expr.String() == q.Expr.String())

	default:
		return a == b
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
