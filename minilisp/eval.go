package minilisp

import (
	_ "embed"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Version is the version of the language implemented by this package.
const Version = "0.5.0"

//go:embed stdlib.lsp
var stdlib string

// Interpreter evaluates top-level expressions one at a time.
//
// Built-in procedures and the standard library live in a base scope which
// is frozen once the interpreter is constructed.  Top-level definitions
// go to a main scope enclosed by the base scope; they persist from one
// Evaluate to the next until Reset is called.
type Interpreter struct {
	base    *Scope
	main    *Scope
	out     io.Writer
	logger  *slog.Logger
	observe func(form *Expression, result Value, err error)
	noStd   bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where display, write and newline print.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithLogger sets the logger which traces calls and definitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// WithObserver registers fn to be called after every Evaluate.
func WithObserver(fn func(form *Expression, result Value, err error)) Option {
	return func(in *Interpreter) { in.observe = fn }
}

// WithoutStdlib leaves the standard library out of the base scope.
func WithoutStdlib() Option {
	return func(in *Interpreter) { in.noStd = true }
}

// NewInterpreter constructs an interpreter with the built-in procedures
// and, unless WithoutStdlib is given, the standard library.
func NewInterpreter(opts ...Option) (*Interpreter, error) {
	in := &Interpreter{
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.base = NewScope(nil)
	for _, b := range in.builtins() {
		if err := in.base.Add(Identifier(b.Name), b); err != nil {
			return nil, err
		}
	}
	if !in.noStd {
		if err := in.load(stdlib, in.base); err != nil {
			return nil, err
		}
	}
	in.base.Freeze()
	in.main = NewScope(in.base)
	return in, nil
}

// SetOutput changes where display, write and newline print.
func (in *Interpreter) SetOutput(w io.Writer) {
	in.out = w
}

// Reset discards every top-level definition.
func (in *Interpreter) Reset() {
	in.logger.Debug("reset", slog.Int("definitions", len(in.main.vars)))
	in.main = NewScope(in.base)
}

// Definitions returns the names defined at top level since the last Reset.
func (in *Interpreter) Definitions() []Identifier {
	return in.main.Names()
}

// BaseNames returns the names of the built-in procedures and the
// standard library.
func (in *Interpreter) BaseNames() []Identifier {
	return in.base.Names()
}

// Evaluate desugars and evaluates one raw top-level expression.
func (in *Interpreter) Evaluate(raw *Expression) (result Value, err error) {
	result, err = in.safeEvaluate(raw, in.main)
	if in.observe != nil {
		in.observe(raw, result, err)
	}
	return result, err
}

// EvaluateString evaluates every expression in src in order and returns
// the value of the last one.  It stops at the first error.
func (in *Interpreter) EvaluateString(src string) (Value, error) {
	return in.ReadEvalLoop(strings.NewReader(src))
}

func (in *Interpreter) safeEvaluate(raw *Expression, scope *Scope) (result Value, err error) {
	defer recoverError(&err)
	return in.eval(desugar(raw), scope), nil
}

// load evaluates src in scope, checking its version pragma first.
func (in *Interpreter) load(src string, scope *Scope) error {
	if err := CheckPragma(src); err != nil {
		return err
	}
	rr := NewReader(strings.NewReader(src))
	for {
		x, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err = in.safeEvaluate(x, scope); err != nil {
			return err
		}
	}
}

//----------------------------------------------------------------------

// eval reduces the canonical expression to a value in scope.
func (in *Interpreter) eval(expression *Expression, scope *Scope) Value {
	result := Fold(expression, func(ni *NodeInfo[Element], objects []Element) Element {
		switch x := ni.Node.Value.(type) {
		case Eval:
			return in.apply(objects, scope)
		case Define:
			return in.defineOrSet(objects, scope, true)
		case Set:
			return in.defineOrSet(objects, scope, false)
		case *IfThunks:
			return in.evalIf(x, scope)
		case *CondThunks:
			return in.evalCond(x, scope)
		}
		if len(objects) > 0 {
			panic(NewEvalError(ErrInternal, "no subexpressions expected", ni.Node))
		}
		switch x := ni.Node.Value.(type) {
		case Identifier:
			if isNamePosition(ni) {
				return x
			}
			v, err := scope.Read(x)
			if err != nil {
				panic(err)
			}
			return v
		case *Procedure:
			if x.Scope == nil {
				return x.Capture(scope)
			}
			return x
		case Value:
			return x
		}
		panic(NewEvalError(ErrInternal, "unexpected form", ni.Node))
	})
	v, ok := result.(Value)
	if !ok {
		panic(NewEvalError(ErrValueExpected, "value expected", result))
	}
	return v
}

// isNamePosition returns true for the name in (define name e) and (set! name e).
func isNamePosition(ni *NodeInfo[Element]) bool {
	if ni.Parent == nil || ni.Index != 0 {
		return false
	}
	switch ni.Parent.Node.Value.(type) {
	case Define, Set:
		return true
	}
	return false
}

func (in *Interpreter) apply(objects []Element, scope *Scope) Value {
	if len(objects) == 0 {
		panic(NewEvalError(ErrNotProcedure, "procedure expected", "()"))
	}
	args := make([]Value, len(objects)-1)
	for i, x := range objects[1:] {
		v, ok := x.(Value)
		if !ok {
			panic(NewEvalError(ErrValueExpected, "value expected as argument", x))
		}
		args[i] = v
	}
	switch fn := objects[0].(type) {
	case *Builtin:
		return in.callBuiltin(fn, args)
	case *Procedure:
		return in.call(fn, args, scope)
	}
	panic(NewEvalError(ErrNotProcedure, "procedure expected", objects[0]))
}

// call applies p to args.  Arguments are bound in a fresh scope enclosed
// by p's captured scope, or by scope if p has captured none; the body runs
// in a further scope nested inside the argument scope.
func (in *Interpreter) call(p *Procedure, args []Value, scope *Scope) Value {
	outer := p.Scope
	if outer == nil {
		outer = scope
	}
	argScope := NewScope(outer)
	callee := p.Capture(NewScope(argScope))
	if err := callee.Signature.Verify(callee.displayName(), args); err != nil {
		panic(err)
	}
	for i, param := range callee.Signature.Parameters {
		if err := argScope.Add(param.Name, args[i]); err != nil {
			panic(err)
		}
	}
	if len(args) > 0 || callee.Name != "" {
		in.logger.Debug("call",
			slog.String("procedure", callee.displayName()),
			slog.Int("args", len(args)))
	}
	var result Value = Void{}
	for _, e := range callee.Body {
		result = in.eval(e, callee.Scope)
	}
	return result
}

func (in *Interpreter) callBuiltin(b *Builtin, args []Value) Value {
	if err := b.Signature.Verify(b.Name, args); err != nil {
		panic(err)
	}
	v, err := b.Fn(args)
	if err != nil {
		var ex *EvalError
		if errors.As(err, &ex) {
			panic(ex)
		}
		panic(NewEvalError(ErrBuiltin, err.Error(), b))
	}
	if v == nil {
		return Void{}
	}
	return v
}

func (in *Interpreter) defineOrSet(objects []Element, scope *Scope, define bool) Value {
	var first Element
	if len(objects) > 0 {
		first = objects[0]
	}
	name, ok := first.(Identifier)
	if !ok {
		panic(NewEvalError(ErrIdentifierExpected, "identifier expected", first))
	}
	if len(objects) > 2 {
		panic(NewEvalError(ErrMultipleValues, "only one value expected", name))
	}
	var value Value
	if len(objects) == 2 {
		value, _ = objects[1].(Value)
	}
	if value == nil {
		panic(NewEvalError(ErrValueExpected, "value expected", name))
	}
	if !define {
		if err := scope.Write(name, value); err != nil {
			panic(err)
		}
		return Void{}
	}
	if err := scope.Add(name, value); err != nil {
		panic(err)
	}
	in.logger.Debug("define", slog.String("name", string(name)))
	return Void{}
}

func (in *Interpreter) evalIf(x *IfThunks, scope *Scope) Value {
	if Truthy(in.call(x.Test, nil, scope)) {
		return in.call(x.Then, nil, scope)
	}
	return in.call(x.Else, nil, scope)
}

func (in *Interpreter) evalCond(x *CondThunks, scope *Scope) Value {
	for _, c := range x.Clauses {
		test := in.call(c.Test, nil, scope)
		if Truthy(test) {
			if c.Body == nil {
				return test
			}
			return in.call(c.Body, nil, scope)
		}
	}
	return Void{}
}
