package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/Wafelack/mess/lang"
)

// specialForms documents the keywords the parser handles itself. They are
// neither builtins nor procedures, so the evaluator does not list them.
var specialForms = map[string]string{
	"let":   "(let name value) binds a variable in the current scope",
	"defun": "(defun (name param ...) body ...) defines a procedure",
	"table": "(table (column values) ...) builds a table from equal-length arrays",
}

func specialFormNames() []string {
	return slices.Collect(maps.Keys(specialForms))
}

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call surrounding the cursor.
type functionCall struct {
	name     string // called name
	argIndex int    // argument under the cursor (0-based)
	inCall   bool   // cursor is past the name of an open list
}

// openList returns the offset of the innermost list still open at cursor,
// or -1. String contents are skipped and a '[' array hides its enclosing
// list.
func openList(input string, cursor int) int {
	var (
		stack    []int
		inString bool
		escaped  bool
	)

	for i, r := range input[:cursor] {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}

			continue
		}

		switch r {
		case '"':
			inString = true
		case '(', '[':
			stack = append(stack, i)
		case ')', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 || input[stack[len(stack)-1]] != '(' {
		return -1
	}

	return stack[len(stack)-1]
}

// detectFunctionCall reports which call the cursor is in and which argument
// it is on. The name must be followed by whitespace before the cursor
// counts as being inside the argument list.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	open := openList(input, cursor)
	if open < 0 {
		return functionCall{}
	}

	var (
		words    int  // words started so far
		inWord   bool // cursor-side word still open
		depth    int
		inString bool
		escaped  bool
		nameEnd  = -1
	)

	body := input[open+1 : cursor]

	for i, r := range body {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}

			continue
		}

		if depth == 0 && unicode.IsSpace(r) {
			if inWord && words == 1 {
				nameEnd = i
			}

			inWord = false

			continue
		}

		if depth == 0 && !inWord {
			inWord = true
			words++
		}

		switch r {
		case '"':
			inString = true
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
	}

	if nameEnd < 0 {
		return functionCall{}
	}

	name := body[:nameEnd]
	if strings.ContainsAny(name, `()[]"'`) {
		return functionCall{}
	}

	argIndex := words - 1
	if inWord || inString || depth > 0 {
		argIndex--
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature returns the call form of name and its parameter words, as
// known to the session.
func getSignature(ev *lang.Evaluator, name string) (signature string, params []string) {
	if usage, ok := specialForms[name]; ok {
		return parseUsage(usage)
	}

	if ev == nil {
		return "", nil
	}

	if b, ok := ev.Builtins().Lookup(name); ok {
		return parseUsage(b.Usage)
	}

	if p, ok := ev.Environment().Procedure(name); ok {
		return formatSignature(p.Name, p.Params), p.Params
	}

	return "", nil
}

// formatSignature renders a procedure's call form.
func formatSignature(name string, params []string) string {
	return "(" + strings.Join(append([]string{name}, params...), " ") + ")"
}

// parseUsage splits a usage line "(name param ...) description" into its
// call form and the parameter words that follow the name.
func parseUsage(usage string) (signature string, params []string) {
	if !strings.HasPrefix(usage, "(") {
		return usage, nil
	}

	end := closingParen(usage)
	if end < 0 {
		return usage, nil
	}

	signature = usage[:end+1]

	words := splitTopLevel(usage[1:end])
	if len(words) > 1 {
		params = words[1:]
	}

	return signature, params
}

// closingParen returns the offset of the parenthesis closing the one at
// offset 0 of s, or -1.
func closingParen(s string) int {
	depth := 0

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// splitTopLevel splits s on whitespace outside nested lists and arrays.
func splitTopLevel(s string) []string {
	var (
		words []string
		start = -1
		depth int
	)

	for i, r := range s {
		switch {
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
		case depth == 0 && unicode.IsSpace(r):
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}

			continue
		}

		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		words = append(words, s[start:])
	}

	return words
}

// renderSignatureHint renders the call form with the parameter at argIdx
// highlighted. A trailing "..." absorbs every argument past its position.
func renderSignatureHint(signature string, params []string, argIdx int) string {
	if signature == "" {
		return ""
	}

	words := splitTopLevel(strings.TrimSuffix(strings.TrimPrefix(signature, "("), ")"))
	if len(words) == 0 || !strings.HasPrefix(signature, "(") {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureStyle.Render("("))
	b.WriteString(signatureNameStyle.Render(words[0]))

	for i, param := range params {
		b.WriteString(signatureStyle.Render(" "))

		if argIdx == i || param == "..." && argIdx >= i {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
