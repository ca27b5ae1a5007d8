/*
  MiniLisp in Go.

  The Reader type and the printing functions are derived from
  Nukata Scheme in Go (https://github.com/nukata/scheme-in-go).
*/
package minilisp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Element is what an expression node carries: an identifier, a form
// marker or a value.  The set of elements is closed; both passes switch
// over it exhaustively.
type Element interface {
	element()
}

// Value is an element which a Scope may bind and a procedure may return.
type Value interface {
	Element
	value()
}

// Expression is a node of an expression tree.
type Expression = Node[Element]

// Identifier names a binding.
type Identifier string

// Form markers as produced by the reader.
type (
	// Group is a parenthesized list with no meaning of its own,
	// e.g. the parameter list of a lambda.
	Group struct{}
	// Eval applies its first child to the rest.
	Eval   struct{}
	Define struct{}
	Set    struct{}
	Lambda struct{}
	If     struct{}
	Cond   struct{}
	Let    struct{}
)

// IfThunks is the canonical form of (if test then else).
type IfThunks struct {
	Test, Then, Else *Procedure
}

// CondClause is one clause of a canonical cond.
// A nil Body means the clause returns the value of its test.
type CondClause struct {
	Test *Procedure
	Body *Procedure
}

// CondThunks is the canonical form of (cond clause...).
type CondThunks struct {
	Clauses []CondClause
}

// Values

// Boolean is #t or #f.
type Boolean bool

// Number is the only numeric type.
type Number float64

// String is a string literal.
type String string

// Void is the result of definitions and side-effecting forms.
type Void struct{}

// Quoted holds an expression as a first-class, unevaluated value.
type Quoted struct {
	Expr *Expression
}

func (Identifier) element()  {}
func (Group) element()       {}
func (Eval) element()        {}
func (Define) element()      {}
func (Set) element()         {}
func (Lambda) element()      {}
func (If) element()          {}
func (Cond) element()        {}
func (Let) element()         {}
func (*IfThunks) element()   {}
func (*CondThunks) element() {}
func (Boolean) element()     {}
func (Number) element()      {}
func (String) element()      {}
func (Void) element()        {}
func (*Quoted) element()     {}
func (*Procedure) element()  {}
func (*Builtin) element()    {}

func (Boolean) value()    {}
func (Number) value()     {}
func (String) value()     {}
func (Void) value()       {}
func (*Quoted) value()    {}
func (*Procedure) value() {}
func (*Builtin) value()   {}

// Truthy returns false only for #f.
func Truthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || bool(b)
}

// keywords maps form names to the markers the reader produces for them.
var keywords = map[Identifier]Element{
	"define": Define{},
	"set!":   Set{},
	"lambda": Lambda{},
	"if":     If{},
	"cond":   Cond{},
	"let":    Let{},
}

const (
	quoteKeyword Identifier = "quote"
	elseKeyword  Identifier = "else"
)

//----------------------------------------------------------------------

// Str(x) returns a textual representation of x.
func Str(x Element) string {
	return Str2(x, true)
}

// Str2(x, quoteString) returns a textual representation of x.
// If quoteString is true, a string will be represented with quotes.
func Str2(x Element, quoteString bool) string {
	switch v := x.(type) {
	case nil:
		return "#<nil>"
	case Boolean:
		if v {
			return "#t"
		}
		return "#f"
	case Number:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case String:
		if quoteString {
			return strconv.Quote(string(v))
		}
		return string(v)
	case Identifier:
		return string(v)
	case Void:
		return "#<void>"
	case *Quoted:
		return "'" + ExprString(v.Expr)
	case *Procedure:
		return v.String()
	case *Builtin:
		return "#<builtin " + v.Name + ">"
	}
	return fmt.Sprintf("#<%T>", x)
}

// ExprString returns a textual representation of the expression e.
func ExprString(e *Expression) string {
	if e == nil {
		return "()"
	}
	switch x := e.Value.(type) {
	case Group, Eval:
		return "(" + exprList(e.Children) + ")"
	case Define:
		return "(define " + exprList(e.Children) + ")"
	case Set:
		return "(set! " + exprList(e.Children) + ")"
	case Lambda:
		return "(lambda " + exprList(e.Children) + ")"
	case If:
		return "(if " + exprList(e.Children) + ")"
	case Cond:
		return "(cond " + exprList(e.Children) + ")"
	case Let:
		return "(let " + exprList(e.Children) + ")"
	case *IfThunks:
		return "(if " + exprList(x.Test.Body) + " " +
			exprList(x.Then.Body) + " " + exprList(x.Else.Body) + ")"
	case *CondThunks:
		s := make([]string, len(x.Clauses))
		for i, c := range x.Clauses {
			s[i] = "(" + exprList(c.Test.Body)
			if c.Body != nil {
				s[i] += " " + exprList(c.Body.Body)
			}
			s[i] += ")"
		}
		return "(cond " + strings.Join(s, " ") + ")"
	}
	return Str(e.Value)
}

func exprList(ee []*Expression) string {
	s := make([]string, len(ee))
	for i, e := range ee {
		s[i] = ExprString(e)
	}
	return strings.Join(s, " ")
}
