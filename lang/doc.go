// Package lang implements mess, a small quoting expression language for
// shell-like scripting: a lexer, a recursive-descent parser and a
// tree-walking evaluator.
//
// # Syntax
//
//	42 -7 3.14            ; Number and Float literals
//	"text" word           ; strings; a bare word is a string literal
//	#name                 ; variable reference
//	[1 2 3]               ; array
//	(let x 5)             ; bind a variable
//	(defun (add a b) (+ #a #b))
//	(table (name ["a" "b"]) (size [1 2]))
//	'(cd "/tmp")          ; quote: suspend evaluation
//	()                    ; unit
//
// A call (name args...) resolves to a builtin, then to a procedure defined
// with defun, then to an external command run through a [CommandRunner]
// whose trimmed standard output becomes a String.
//
// # Deferred evaluation
//
// Builtins receive their arguments already evaluated, so conditional
// execution relies on quoting. In
//
//	(if #ok '(cd "/srv") '(cd "/tmp"))
//
// both branches evaluate to [QuoteValue]s and if forces only the selected
// one. A quote captures the scope active where it was written and is forced
// in that scope.
//
// # Scoping
//
// Variables bound at top level live in the global scope. Each procedure
// call evaluates its body in a fresh frame whose parent is the global
// scope; parameters and let bindings inside the body are discarded when the
// call returns. Procedures share one flat table.
//
// # Errors
//
// Failures are [*Error] values carrying a [Code] and structured attributes;
// match them with [errors.Is] against sentinels such as [ErrArityMismatch].
// Violated internal invariants panic with a [*Fault] instead.
package lang
