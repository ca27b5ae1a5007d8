package minilisp

import "fmt"

// Desugar lowers lambda, define with a parameter list, if, cond, let and
// else in raw into the canonical forms Define, Set, IfThunks, CondThunks,
// Eval, identifiers and values.  Desugaring a canonical tree returns an
// equal tree.
func Desugar(raw *Expression) (result *Expression, err error) {
	defer recoverError(&err)
	return desugar(raw), nil
}

func desugar(raw *Expression) *Expression {
	return Fold(raw, desugarNode)
}

func desugarNode(ni *NodeInfo[Element], children []*Expression) *Expression {
	switch x := ni.Node.Value.(type) {
	case Lambda: // (lambda (v...) e...)
		if len(children) < 1 || !isGroup(children[0]) {
			panic(signatureExpected(children))
		}
		return valueNode(makeProcedure("", signatureOf(children[0], false), children))
	case Define: // (define (f v...) e...)
		if len(children) > 0 && isGroup(children[0]) {
			sig := signatureOf(children[0], true)
			nameNode := children[0].Children[0]
			p := makeProcedure(nameNode.Value.(Identifier), sig, children)
			return NewNode[Element](Define{}, nameNode, valueNode(p))
		}
		checkName(children, "define")
	case Set:
		checkName(children, "set!")
	case If:
		return desugarIf(children)
	case Cond:
		return desugarCond(children)
	case Let:
		return desugarLet(children)
	case Identifier:
		if x == elseKeyword {
			return desugarElse(ni)
		}
	}
	return NewNode(ni.Node.Value, children...)
}

// checkName checks the name of (define name e) or (set! name e).
func checkName(children []*Expression, form string) {
	if len(children) == 0 {
		panic(NewEvalError(ErrIdentifierExpected, "identifier expected", form))
	}
	if _, ok := children[0].Value.(Identifier); !ok {
		panic(NewEvalError(ErrIdentifierExpected, "identifier expected", children[0]))
	}
}

func isGroup(e *Expression) bool {
	_, ok := e.Value.(Group)
	return ok
}

func valueNode(v Value) *Expression {
	return NewNode[Element](v)
}

// thunk makes a procedure of no parameters out of body.
func thunk(body ...*Expression) *Procedure {
	return &Procedure{Body: body}
}

func signatureExpected(children []*Expression) *EvalError {
	if len(children) == 0 {
		return NewEvalError(ErrSignature, "procedure signature expected", nil)
	}
	return NewEvalError(ErrSignature, "procedure signature expected", children[0])
}

// makeProcedure builds a procedure whose body is children[1:].
func makeProcedure(name Identifier, sig Signature, children []*Expression) *Procedure {
	if len(children) < 2 {
		if name == "" {
			panic(NewEvalError(ErrBodyExpected, "procedure body expected", nil))
		}
		panic(NewEvalError(ErrBodyExpected, "procedure body expected", name))
	}
	return &Procedure{Name: name, Signature: sig, Body: children[1:]}
}

// signatureOf reads the parameters out of the group g.
// If named is true, the first element of g is the procedure's name.
func signatureOf(g *Expression, named bool) Signature {
	ids := make([]Identifier, len(g.Children))
	for i, c := range g.Children {
		id, ok := c.Value.(Identifier)
		if !ok {
			panic(NewEvalError(ErrIdentifierExpected, "identifier expected", c))
		}
		ids[i] = id
	}
	if named {
		if len(ids) == 0 {
			panic(NewEvalError(ErrIdentifierExpected, "procedure name expected", g))
		}
		ids = ids[1:]
	}
	if dup, ok := firstDuplicate(ids); ok {
		panic(NewEvalError(ErrDuplicateParameter, "duplicate parameter", dup))
	}
	return NewSignature(ids...)
}

func firstDuplicate(ids []Identifier) (Identifier, bool) {
	seen := make(map[Identifier]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id, true
		}
		seen[id] = true
	}
	return "", false
}

// (if test then else)
func desugarIf(children []*Expression) *Expression {
	switch len(children) {
	case 0:
		panic(NewEvalError(ErrIfPartExpected, "test part expected", "if"))
	case 1:
		panic(NewEvalError(ErrIfPartExpected, "then part expected", "if"))
	case 2:
		panic(NewEvalError(ErrIfPartExpected, "else part expected", "if"))
	case 3:
		return NewNode[Element](&IfThunks{
			Test: thunk(children[0]),
			Then: thunk(children[1]),
			Else: thunk(children[2]),
		})
	}
	panic(NewEvalError(ErrIfTooManyParts,
		fmt.Sprintf("if expects 3 parts, got %d", len(children)), nil))
}

// (cond (test e...)...)
func desugarCond(children []*Expression) *Expression {
	clauses := make([]CondClause, len(children))
	for i, c := range children {
		if !isGroup(c) || len(c.Children) == 0 {
			panic(NewEvalError(ErrCondClause, "test expression expected", c))
		}
		clauses[i].Test = thunk(c.Children[0])
		if len(c.Children) > 1 {
			clauses[i].Body = thunk(c.Children[1:]...)
		}
	}
	return NewNode[Element](&CondThunks{clauses})
}

// (let ((v e)...) body...) => ((lambda (v...) body...) e...)
func desugarLet(children []*Expression) *Expression {
	if len(children) == 0 || !isGroup(children[0]) {
		panic(NewEvalError(ErrLetPartExpected, "binding pairs expected", "let"))
	}
	if len(children) == 1 {
		panic(NewEvalError(ErrLetPartExpected, "body expected", "let"))
	}
	bindings := children[0].Children
	ids := make([]Identifier, len(bindings))
	args := make([]*Expression, len(bindings))
	for i, b := range bindings {
		if !isGroup(b) || len(b.Children) != 2 {
			panic(NewEvalError(ErrLetBinding, "identifier and expression expected", b))
		}
		id, ok := b.Children[0].Value.(Identifier)
		if !ok {
			panic(NewEvalError(ErrLetBinding, "identifier and expression expected", b))
		}
		ids[i] = id
		args[i] = b.Children[1]
	}
	if dup, ok := firstDuplicate(ids); ok {
		panic(NewEvalError(ErrDuplicateIdentifier, "duplicate identifier", dup))
	}
	p := &Procedure{Signature: NewSignature(ids...), Body: children[1:]}
	return NewNode[Element](Eval{}, append([]*Expression{valueNode(p)}, args...)...)
}

// else is #t as the head of the last clause of a cond.
func desugarElse(ni *NodeInfo[Element]) *Expression {
	clause := ni.Parent
	if ni.Index != 0 || clause == nil || !isGroup(clause.Node) ||
		clause.Parent == nil {
		panic(NewEvalError(ErrElseMisplaced, "not allowed here", elseKeyword))
	}
	if _, ok := clause.Parent.Node.Value.(Cond); !ok {
		panic(NewEvalError(ErrElseMisplaced, "not allowed here", elseKeyword))
	}
	if len(clause.Node.Children) == 1 {
		panic(NewEvalError(ErrElseClauseEmpty, "expressions expected in else clause", nil))
	}
	if !clause.IsLast() {
		panic(NewEvalError(ErrElseMisplaced, "else clause must be last", elseKeyword))
	}
	return valueNode(Boolean(true))
}
