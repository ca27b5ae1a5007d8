package minilisp

import "fmt"

// ErrorKind classifies an EvalError.
// An ErrorKind is itself an error so that errors.Is(err, ErrUnbound) works.
type ErrorKind int

const (
	_ ErrorKind = iota

	// Reader errors
	ErrSyntax
	ErrIncomplete
	ErrVersion

	// Structural errors, raised while desugaring
	ErrIfPartExpected
	ErrIfTooManyParts
	ErrCondClause
	ErrElseMisplaced
	ErrElseClauseEmpty
	ErrLetPartExpected
	ErrLetBinding
	ErrDuplicateIdentifier
	ErrSignature
	ErrBodyExpected
	ErrDuplicateParameter
	ErrIdentifierExpected

	// Semantic errors, raised while evaluating
	ErrUnbound
	ErrNotProcedure
	ErrArityMismatch
	ErrTypeMismatch
	ErrDuplicateDefinition
	ErrSetUnbound
	ErrMultipleValues
	ErrValueExpected
	ErrImmutableBinding
	ErrBuiltin

	ErrInternal
)

var errorKindNames = map[ErrorKind]string{
	ErrSyntax:              "syntax error",
	ErrIncomplete:          "incomplete expression",
	ErrVersion:             "version mismatch",
	ErrIfPartExpected:      "if part expected",
	ErrIfTooManyParts:      "too many parts in if",
	ErrCondClause:          "malformed cond clause",
	ErrElseMisplaced:       "else misplaced",
	ErrElseClauseEmpty:     "else clause empty",
	ErrLetPartExpected:     "let part expected",
	ErrLetBinding:          "malformed let binding",
	ErrDuplicateIdentifier: "duplicate let identifier",
	ErrSignature:           "malformed procedure signature",
	ErrBodyExpected:        "procedure body expected",
	ErrDuplicateParameter:  "duplicate parameter name",
	ErrIdentifierExpected:  "identifier expected",
	ErrUnbound:             "unbound identifier",
	ErrNotProcedure:        "not a procedure",
	ErrArityMismatch:       "arity mismatch",
	ErrTypeMismatch:        "type mismatch",
	ErrDuplicateDefinition: "duplicate definition",
	ErrSetUnbound:          "set of unbound name",
	ErrMultipleValues:      "multiple values",
	ErrValueExpected:       "value expected",
	ErrImmutableBinding:    "immutable binding",
	ErrBuiltin:             "built-in procedure failed",
	ErrInternal:            "internal error",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Structural returns true if k is raised by the desugar pass.
func (k ErrorKind) Structural() bool {
	return k >= ErrIfPartExpected && k <= ErrIdentifierExpected
}

// EvalError represents an error in reading, desugaring or evaluation.
type EvalError struct {
	Kind    ErrorKind
	Message string
	Subject string // the offending node or value, if any
}

// NewEvalError constructs a new EvalError about x.
// x may be nil, an *Expression, an Element or a string.
func NewEvalError(kind ErrorKind, msg string, x any) *EvalError {
	err := &EvalError{Kind: kind, Message: msg}
	switch s := x.(type) {
	case nil:
	case *Expression:
		err.Subject = ExprString(s)
	case Element:
		err.Subject = Str(s)
	case string:
		err.Subject = s
	default:
		err.Subject = fmt.Sprint(s)
	}
	return err
}

// err.Error() returns a textual representation of err.
func (err *EvalError) Error() string {
	if err.Subject == "" {
		return err.Message
	}
	return err.Message + ": " + err.Subject
}

// Is reports whether target is the ErrorKind of err.
func (err *EvalError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == err.Kind
}

// recoverError turns a panicking *EvalError into an ordinary error.
// It must be deferred directly.
func recoverError(errp *error) {
	if e := recover(); e != nil {
		ex, ok := e.(*EvalError)
		if !ok {
			ex = &EvalError{Kind: ErrInternal, Message: fmt.Sprintf("%v", e)}
		}
		*errp = ex
	}
}
