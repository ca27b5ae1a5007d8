package minilisp

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Subrs

func num(name Identifier) Parameter { return Parameter{name, NumberType} }
func str(name Identifier) Parameter { return Parameter{name, StringType} }
func any_(name Identifier) Parameter { return Parameter{name, AnyType} }

// arith lifts a binary operation on float64 into a Native.
func arith(op func(a, b float64) float64) Native {
	return func(x []Value) (Value, error) {
		return Number(op(float64(x[0].(Number)), float64(x[1].(Number)))), nil
	}
}

// compare lifts a binary comparison on float64 into a Native.
func compare(op func(a, b float64) bool) Native {
	return func(x []Value) (Value, error) {
		return Boolean(op(float64(x[0].(Number)), float64(x[1].(Number)))), nil
	}
}

func predicate(t Type) Native {
	return func(x []Value) (Value, error) {
		return Boolean(t.Accepts(x[0])), nil
	}
}

var errDivisionByZero = errors.New("division by zero")

func slash_(x []Value) (Value, error) {
	if x[1].(Number) == 0 {
		return nil, errDivisionByZero
	}
	return x[0].(Number) / x[1].(Number), nil
}

func remainder_(x []Value) (Value, error) {
	if x[1].(Number) == 0 {
		return nil, errDivisionByZero
	}
	return Number(math.Mod(float64(x[0].(Number)), float64(x[1].(Number)))), nil
}

func not_(x []Value) (Value, error) {
	return Boolean(!Truthy(x[0])), nil
}

func eqv_(x []Value) (Value, error) {
	return Boolean(x[0] == x[1]), nil
}

func stringAppend_(x []Value) (Value, error) {
	return x[0].(String) + x[1].(String), nil
}

func stringLength_(x []Value) (Value, error) {
	return Number(len([]rune(string(x[0].(String))))), nil
}

func numberToString_(x []Value) (Value, error) {
	return String(Str(x[0])), nil
}

func uuid_(x []Value) (Value, error) {
	return String(uuid.NewString()), nil
}

// builtins returns the built-in procedures of in.
// The printing procedures write to in.out at the time of the call.
func (in *Interpreter) builtins() []*Builtin {
	write := func(quoteString bool) Native {
		return func(x []Value) (Value, error) {
			_, err := fmt.Fprint(in.out, Str2(x[0], quoteString))
			return Void{}, err
		}
	}
	newline := func(x []Value) (Value, error) {
		_, err := fmt.Fprintln(in.out)
		return Void{}, err
	}
	return []*Builtin{
		NewBuiltin("+", arith(func(a, b float64) float64 { return a + b }), num("a"), num("b")),
		NewBuiltin("-", arith(func(a, b float64) float64 { return a - b }), num("a"), num("b")),
		NewBuiltin("*", arith(func(a, b float64) float64 { return a * b }), num("a"), num("b")),
		NewBuiltin("/", slash_, num("a"), num("b")),
		NewBuiltin("remainder", remainder_, num("a"), num("b")),
		NewBuiltin("=", compare(func(a, b float64) bool { return a == b }), num("a"), num("b")),
		NewBuiltin("<", compare(func(a, b float64) bool { return a < b }), num("a"), num("b")),
		NewBuiltin(">", compare(func(a, b float64) bool { return a > b }), num("a"), num("b")),
		NewBuiltin("<=", compare(func(a, b float64) bool { return a <= b }), num("a"), num("b")),
		NewBuiltin(">=", compare(func(a, b float64) bool { return a >= b }), num("a"), num("b")),
		NewBuiltin("not", not_, any_("obj")),
		NewBuiltin("eq?", eqv_, any_("obj1"), any_("obj2")),
		NewBuiltin("boolean?", predicate(BooleanType), any_("obj")),
		NewBuiltin("number?", predicate(NumberType), any_("obj")),
		NewBuiltin("string?", predicate(StringType), any_("obj")),
		NewBuiltin("procedure?", predicate(ProcedureType), any_("obj")),
		NewBuiltin("quoted?", predicate(QuotedType), any_("obj")),
		NewBuiltin("string-append", stringAppend_, str("s1"), str("s2")),
		NewBuiltin("string-length", stringLength_, str("s")),
		NewBuiltin("number->string", numberToString_, num("z")),
		NewBuiltin("display", write(false), any_("obj")),
		NewBuiltin("write", write(true), any_("obj")),
		NewBuiltin("newline", newline),
		NewBuiltin("uuid", uuid_),
	}
}
