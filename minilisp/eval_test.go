package minilisp

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestInterpreter(t *testing.T, out io.Writer, opts ...Option) *Interpreter {
	t.Helper()
	in, err := NewInterpreter(append([]Option{WithOutput(out)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

// testEval evaluates src in a fresh interpreter and compares the printed
// value of its last expression with want.
func testEval(t *testing.T, src string, want string) {
	t.Helper()
	in := newTestInterpreter(t, io.Discard)
	v, err := in.EvaluateString(src)
	if err != nil {
		t.Fatalf("%s: %v", src, err)
	}
	if got := Str(v); got != want {
		t.Fatalf("%s: expected %s, got %s", src, want, got)
	}
}

// testEvalError evaluates src in a fresh interpreter and expects it to
// fail with kind.
func testEvalError(t *testing.T, src string, kind ErrorKind) {
	t.Helper()
	in := newTestInterpreter(t, io.Discard)
	v, err := in.EvaluateString(src)
	if !errors.Is(err, kind) {
		t.Fatalf("%s: expected %v, got %v (value %v)", src, kind, err, v)
	}
}

func TestEvalAtoms(t *testing.T) {
	testEval(t, "1", "1")
	testEval(t, `"s"`, `"s"`)
	testEval(t, "#f", "#f")
	testEval(t, "'(a b)", "'(a b)")
	testEval(t, "(define x 1)", "#<void>")
	testEval(t, "", "#<void>")
}

func TestIfEvaluatesOnlyTheChosenBranch(t *testing.T) {
	tests := []struct {
		src    string
		output string
		want   string
	}{
		{`(if #f (display "then") (display "else"))`, "else", "#<void>"},
		{`(if 0 (display "then") (display "else"))`, "then", "#<void>"},
		{`(if (display "test") 1 2)`, "test", "1"},
		{`(if (newline) "void is true" "no")`, "\n", `"void is true"`},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		in := newTestInterpreter(t, &out)
		v, err := in.EvaluateString(tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if out.String() != tt.output {
			t.Errorf("%s: expected output %q, got %q", tt.src, tt.output, out.String())
		}
		if Str(v) != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.src, tt.want, Str(v))
		}
	}
}

func TestCondStopsAtFirstTrueTest(t *testing.T) {
	tests := []struct {
		src    string
		output string
		want   string
	}{
		{`(cond ((= 1 2) (display "a")) ((= 1 1) (display "b")) (else (display "c")))`, "b", "#<void>"},
		{`(cond (#f 1) ((display "x") 2) ((display "y") 3))`, "x", "2"},
		{`(cond (#f 1) (42))`, "", "42"},
		{`(cond (#f 1))`, "", "#<void>"},
		{`(cond)`, "", "#<void>"},
		{`(cond (#f (display "a")) (else (display "b") "c"))`, "b", `"c"`},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		in := newTestInterpreter(t, &out)
		v, err := in.EvaluateString(tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if out.String() != tt.output {
			t.Errorf("%s: expected output %q, got %q", tt.src, tt.output, out.String())
		}
		if Str(v) != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.src, tt.want, Str(v))
		}
	}
}

func TestLetIsLambdaApplication(t *testing.T) {
	testEval(t, "(let ((x 1) (y 2)) (+ x y))", "3")
	testEval(t, "((lambda (x y) (+ x y)) 1 2)", "3")
	testEval(t, "(define x 10) (let ((x 1) (y x)) (+ x y))", "11")
	testEval(t, "(let () 5)", "5")
}

func TestClosures(t *testing.T) {
	testEval(t, `
(define (make-adder n) (lambda (x) (+ x n)))
(define add3 (make-adder 3))
(add3 5)`, "8")

	testEval(t, `
(define (make-counter)
  (let ((n 0))
    (lambda () (set! n (+ n 1)) n)))
(define c (make-counter))
(define d (make-counter))
(c) (c) (d)
(+ (* 10 (c)) (d))`, "32")

	// A top-level procedure sees later assignments to its free variables.
	testEval(t, "(define x 1) (define (get) x) (set! x 2) (get)", "2")
	testEval(t, "((compose square (lambda (x) (+ x 1))) 2)", "9")
}

func TestRecursion(t *testing.T) {
	testEval(t, `
(define (fact n) (if (= n 0) 1 (* n (fact (- n 1)))))
(fact 10)`, "3628800")

	testEval(t, `
(define (my-even? n) (if (= n 0) #t (my-odd? (- n 1))))
(define (my-odd? n) (if (= n 0) #f (my-even? (- n 1))))
(my-even? 10)`, "#t")

	testEval(t, `
(define (fib n)
  (cond ((< n 2) n)
        (else (+ (fib (- n 1)) (fib (- n 2))))))
(fib 15)`, "610")
}

func TestBodyValueIsLastExpression(t *testing.T) {
	testEval(t, "((lambda () 1 2 3))", "3")
	testEval(t, `(define (f) (define y 1) (set! y (+ y 1)) y) (f) (f)`, "2")
}

func TestBodyDefinitionShadowsParameter(t *testing.T) {
	testEval(t, "(define (f x) (define x 2) x) (f 1)", "2")
	testEval(t, "(let ((x 1)) (define x 2) x)", "2")
}

func TestInnerDefinitionsStayLocal(t *testing.T) {
	testEvalError(t, "(define (f) (define y 1) y) (f) y", ErrUnbound)
	testEvalError(t, "(let ((a 1)) a) a", ErrUnbound)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind ErrorKind
	}{
		{"y", ErrUnbound},
		{"(undefined 1)", ErrUnbound},
		{"(1 2)", ErrNotProcedure},
		{`("f")`, ErrNotProcedure},
		{"()", ErrNotProcedure},
		{"(define x 1) (define x 2)", ErrDuplicateDefinition},
		{"(define x 1 2)", ErrMultipleValues},
		{"(define x)", ErrValueExpected},
		{"(define 1 2)", ErrIdentifierExpected},
		{"(set! z 1)", ErrSetUnbound},
		{"(define x 1) (set! x 1 2)", ErrMultipleValues},
		{"(define x 1) (set! x)", ErrValueExpected},
		{"(set! + 1)", ErrImmutableBinding},
		{"(set! square 1)", ErrImmutableBinding},
		{"(define (f a b) a) (f 1)", ErrArityMismatch},
		{"(define (f a b) a) (f 1 2 3)", ErrArityMismatch},
		{"((lambda () 1) 1)", ErrArityMismatch},
		{"(+ 1)", ErrArityMismatch},
		{`(+ 1 "a")`, ErrTypeMismatch},
		{"(define (f) (define y 1) (define y 2) y) (f)", ErrDuplicateDefinition},
	}
	for _, tt := range tests {
		testEvalError(t, tt.src, tt.kind)
	}
}

func TestArityMismatchEvaluatesNoBody(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(t, &out)
	if _, err := in.EvaluateString(`(define (f a b) (display "body") a)`); err != nil {
		t.Fatal(err)
	}
	if _, err := in.EvaluateString("(f 1)"); !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected arity mismatch, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("body was evaluated: %q", out.String())
	}
}

func TestStructuralErrorsPrecedeEvaluation(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(t, &out)
	_, err := in.EvaluateString(`(if (display "side") (cond (else 1) (#t 2)) 3)`)
	if !errors.Is(err, ErrElseMisplaced) {
		t.Fatalf("expected else misplaced, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expression was evaluated: %q", out.String())
	}
}

func TestFailedDefinitionKeepsFirstBinding(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	in.EvaluateString("(define x 1)")
	if _, err := in.EvaluateString("(define x 2)"); !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("expected duplicate definition, got %v", err)
	}
	v, err := in.EvaluateString("x")
	if err != nil || v != Number(1) {
		t.Fatalf("expected 1, got %v, %v", v, err)
	}
}

func TestDefinitionsPersistUntilReset(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	for _, src := range []string{"(define x 20)", "(define (f y) (+ x y))"} {
		if _, err := in.EvaluateString(src); err != nil {
			t.Fatal(err)
		}
	}
	v, err := in.EvaluateString("(f 22)")
	if err != nil || v != Number(42) {
		t.Fatalf("expected 42, got %v, %v", v, err)
	}
	names := in.Definitions()
	if len(names) != 2 || names[0] != "f" || names[1] != "x" {
		t.Fatalf("expected [f x], got %v", names)
	}

	in.Reset()
	if _, err := in.EvaluateString("x"); !errors.Is(err, ErrUnbound) {
		t.Fatalf("expected x to be unbound after reset, got %v", err)
	}
	if len(in.Definitions()) != 0 {
		t.Fatalf("definitions left after reset: %v", in.Definitions())
	}
	v, err = in.EvaluateString("(square 3)")
	if err != nil || v != Number(9) {
		t.Fatalf("standard library lost on reset: %v, %v", v, err)
	}
	if _, err := in.EvaluateString("(define x 1)"); err != nil {
		t.Fatalf("redefining after reset: %v", err)
	}
}

func TestTopLevelDefinitionShadowsBuiltin(t *testing.T) {
	testEval(t, "(define (square x) 0) (square 3)", "0")
	testEval(t, "(define + -) (+ 5 3)", "2")
	// The standard library still sees the base binding.
	testEval(t, "(define (square x) 0) (abs -4)", "4")
}

func TestErrorsDoNotAffectLaterForms(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	var out bytes.Buffer
	in.ReadEvalPrintLoop(strings.NewReader("(undefined)\n(define x 1)\n)\n(+ x 2)\n"), &out, "")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines of output, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "undefined variable: undefined") {
		t.Errorf("unexpected error line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `unexpected ")"`) {
		t.Errorf("unexpected error line %q", lines[1])
	}
	if lines[2] != "3" {
		t.Errorf("expected 3, got %q", lines[2])
	}
}

func TestReadEvalLoopStopsAtFirstError(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(t, &out)
	_, err := in.ReadEvalLoop(strings.NewReader(`(display "a") (car 1) (display "b")`))
	if !errors.Is(err, ErrUnbound) {
		t.Fatalf("expected unbound identifier, got %v", err)
	}
	if out.String() != "a" {
		t.Fatalf("expected output %q, got %q", "a", out.String())
	}
}

func TestWithoutStdlib(t *testing.T) {
	in := newTestInterpreter(t, io.Discard, WithoutStdlib())
	if _, err := in.EvaluateString("(square 2)"); !errors.Is(err, ErrUnbound) {
		t.Fatalf("expected square to be unbound, got %v", err)
	}
	for _, name := range in.BaseNames() {
		if name == "square" {
			t.Fatal("square found in the base scope")
		}
	}
}

func TestObserverSeesEveryForm(t *testing.T) {
	var forms, results []string
	in := newTestInterpreter(t, io.Discard, WithObserver(
		func(form *Expression, result Value, err error) {
			forms = append(forms, ExprString(form))
			if err != nil {
				results = append(results, err.Error())
			} else {
				results = append(results, Str(result))
			}
		}))
	in.EvaluateString("(define x 1) (+ x 1)")
	in.EvaluateString("(f)")
	want := []string{"(define x 1)", "(+ x 1)", "(f)"}
	if strings.Join(forms, "|") != strings.Join(want, "|") {
		t.Fatalf("expected forms %v, got %v", want, forms)
	}
	if results[1] != "2" || results[2] != "undefined variable: f" {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestDebugLogTracesCalls(t *testing.T) {
	var log bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&log, &slog.HandlerOptions{Level: slog.LevelDebug}))
	in := newTestInterpreter(t, io.Discard, WithLogger(logger))
	if _, err := in.EvaluateString("(define (twice x) (* 2 x)) (twice 4)"); err != nil {
		t.Fatal(err)
	}
	s := log.String()
	if !strings.Contains(s, "msg=define name=twice") {
		t.Errorf("definition not logged:\n%s", s)
	}
	if !strings.Contains(s, "msg=call procedure=twice args=1") {
		t.Errorf("call not logged:\n%s", s)
	}
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	in := newTestInterpreter(t, &first)
	in.EvaluateString(`(display "one")`)
	in.SetOutput(&second)
	in.EvaluateString(`(display "two")`)
	if first.String() != "one" || second.String() != "two" {
		t.Fatalf("unexpected outputs %q and %q", first.String(), second.String())
	}
}

func TestEvaluateRejectsUnexpectedForms(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	// A bare group has no meaning as an expression.
	x := NewNode[Element](Group{}, NewNode[Element](Number(1)))
	if _, err := in.Evaluate(x); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected an internal error, got %v", err)
	}
}
