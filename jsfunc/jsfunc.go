// Package jsfunc builds deferred client-side function expressions: script
// text assembled on the server, shipped inside a command response, and
// evaluated as a callback by the browser runtime.
//
// Placeholders are substituted literally. There is no expression language;
// a bound value is rendered as its JSON encoding, so strings arrive quoted
// and maps arrive as object literals.
package jsfunc

import (
	"encoding/json"
	"strings"
)

// Expr is a client function expression template. The zero value is not
// usable; build one with New. Methods return the receiver for chaining.
type Expr struct {
	lines []string
	binds []binding
}

type binding struct {
	placeholder string
	literal     string
	thunk       func() any
}

// New returns an expression whose body is lines joined by newlines.
func New(lines ...string) *Expr {
	return &Expr{lines: lines}
}

// Bind substitutes placeholder with the JSON encoding of value. The value
// is captured now; later changes to whatever produced it are not seen.
// Binding the same placeholder again replaces the earlier binding.
func (e *Expr) Bind(placeholder string, value any) *Expr {
	return e.bind(binding{placeholder: placeholder, literal: encode(value)})
}

// BindRaw substitutes placeholder with literal text, no encoding applied.
func (e *Expr) BindRaw(placeholder, literal string) *Expr {
	return e.bind(binding{placeholder: placeholder, literal: literal})
}

// BindDeferred substitutes placeholder with the JSON encoding of fn's
// result, evaluated fresh at every Compile. Use it when the expression must
// see a value as it stands when rendered rather than when bound.
func (e *Expr) BindDeferred(placeholder string, fn func() any) *Expr {
	return e.bind(binding{placeholder: placeholder, thunk: fn})
}

func (e *Expr) bind(b binding) *Expr {
	for i := range e.binds {
		if e.binds[i].placeholder == b.placeholder {
			e.binds[i] = b

			return e
		}
	}
	e.binds = append(e.binds, b)

	return e
}

// Compile renders the expression with every placeholder substituted, in
// bind order.
func (e *Expr) Compile() string {
	text := strings.Join(e.lines, "\n")
	for _, b := range e.binds {
		lit := b.literal
		if b.thunk != nil {
			lit = encode(b.thunk())
		}
		text = strings.ReplaceAll(text, b.placeholder, lit)
	}

	return text
}

// String returns the raw template with placeholders intact. Compilation
// happens only through Compile or by embedding the expression in a command
// response.
func (e *Expr) String() string {
	return strings.Join(e.lines, "\n")
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}

	return string(b)
}
