package minilisp

import (
	"fmt"
	"sort"
)

// Scope is one level of a lexical environment.
// The parent link is only followed for lookup.
type Scope struct {
	parent *Scope
	vars   map[Identifier]Value
	frozen bool
}

// NewScope constructs an empty scope whose enclosing scope is parent.
// parent may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[Identifier]Value)}
}

// Parent returns the enclosing scope or nil.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// s.String() returns "#N-bindings" where N is the number of bindings in s.
func (s *Scope) String() string {
	return fmt.Sprintf("#%d-bindings", len(s.vars))
}

// Freeze makes s read-only; Add and Write on its bindings fail afterwards.
func (s *Scope) Freeze() {
	s.frozen = true
}

// Add binds name to value in s itself.
func (s *Scope) Add(name Identifier, value Value) error {
	if s.frozen {
		return NewEvalError(ErrImmutableBinding, "cannot define in a frozen scope", name)
	}
	if _, ok := s.vars[name]; ok {
		return NewEvalError(ErrDuplicateDefinition, "already defined", name)
	}
	s.vars[name] = value
	return nil
}

// Read retrieves the value of name from s or its enclosing scopes.
func (s *Scope) Read(name Identifier) (Value, error) {
	for j := s; j != nil; j = j.parent {
		if v, ok := j.vars[name]; ok {
			return v, nil
		}
	}
	return nil, NewEvalError(ErrUnbound, "undefined variable", name)
}

// Write sets the innermost existing binding of name to value.
func (s *Scope) Write(name Identifier, value Value) error {
	for j := s; j != nil; j = j.parent {
		if _, ok := j.vars[name]; ok {
			if j.frozen {
				return NewEvalError(ErrImmutableBinding, "cannot assign to a built-in binding", name)
			}
			j.vars[name] = value
			return nil
		}
	}
	return NewEvalError(ErrSetUnbound, "undefined variable to set", name)
}

// Names returns the names bound in s itself, sorted.
func (s *Scope) Names() []Identifier {
	names := make([]Identifier, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
