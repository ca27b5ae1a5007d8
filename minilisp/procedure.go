package minilisp

import (
	"fmt"
	"strings"
)

// Type is the declared kind of a parameter.
type Type int

const (
	AnyType Type = iota
	BooleanType
	NumberType
	StringType
	ProcedureType
	QuotedType
)

func (t Type) String() string {
	switch t {
	case AnyType:
		return "any"
	case BooleanType:
		return "boolean"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ProcedureType:
		return "procedure"
	case QuotedType:
		return "quoted"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Accepts returns true if v may be passed for a parameter of type t.
func (t Type) Accepts(v Value) bool {
	switch t {
	case AnyType:
		return v != nil
	case BooleanType:
		_, ok := v.(Boolean)
		return ok
	case NumberType:
		_, ok := v.(Number)
		return ok
	case StringType:
		_, ok := v.(String)
		return ok
	case ProcedureType:
		switch v.(type) {
		case *Procedure, *Builtin:
			return true
		}
	case QuotedType:
		_, ok := v.(*Quoted)
		return ok
	}
	return false
}

// Parameter is a named, typed parameter.
type Parameter struct {
	Name Identifier
	Type Type
}

// Signature is the ordered parameter list of a procedure.
type Signature struct {
	Parameters []Parameter
}

// NewSignature constructs a signature whose parameters accept any value.
func NewSignature(names ...Identifier) Signature {
	params := make([]Parameter, len(names))
	for i, name := range names {
		params[i] = Parameter{name, AnyType}
	}
	return Signature{params}
}

// sig.String() returns "(a b c)".
func (sig Signature) String() string {
	s := make([]string, len(sig.Parameters))
	for i, p := range sig.Parameters {
		s[i] = string(p.Name)
	}
	return "(" + strings.Join(s, " ") + ")"
}

// Verify checks args against sig for a call of the procedure named name.
// Nothing is bound when Verify fails.
func (sig Signature) Verify(name string, args []Value) error {
	if len(args) != len(sig.Parameters) {
		return NewEvalError(ErrArityMismatch,
			fmt.Sprintf("%s expects %d arguments, got %d",
				name, len(sig.Parameters), len(args)), nil)
	}
	for i, p := range sig.Parameters {
		if !p.Type.Accepts(args[i]) {
			return NewEvalError(ErrTypeMismatch,
				fmt.Sprintf("%s expects %s for %s", name, p.Type, p.Name),
				args[i])
		}
	}
	return nil
}

//----------------------------------------------------------------------

// Procedure is a user-defined procedure.
// Scope is nil until the procedure is first evaluated as a bare value.
type Procedure struct {
	Name      Identifier // empty for anonymous procedures
	Signature Signature
	Body      []*Expression
	Scope     *Scope
}

// Capture returns a copy of p whose environment is scope.
func (p *Procedure) Capture(scope *Scope) *Procedure {
	q := *p
	q.Scope = scope
	return &q
}

// p.String() returns "#<procedure name>" or "#<lambda (params)>".
func (p *Procedure) String() string {
	if p.Name != "" {
		return "#<procedure " + string(p.Name) + ">"
	}
	return "#<lambda " + p.Signature.String() + ">"
}

func (p *Procedure) displayName() string {
	if p.Name != "" {
		return string(p.Name)
	}
	return "lambda"
}

// Native is the Go implementation of a built-in procedure.
// args have already been checked against the signature.
type Native func(args []Value) (Value, error)

// Builtin is a procedure implemented in Go.
type Builtin struct {
	Name      string
	Signature Signature
	Fn        Native
}

// NewBuiltin constructs a built-in procedure.
func NewBuiltin(name string, fn Native, params ...Parameter) *Builtin {
	return &Builtin{Name: name, Signature: Signature{params}, Fn: fn}
}
