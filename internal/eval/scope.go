package eval

import "github.com/sxslang/sxs/internal/value"

// Scope is the evaluator's runtime frame (spec §3.2): a mapping from
// symbol name to its bound value, chained from inner to outer. A
// closure captures the *Scope pointer in effect at `fn` time, which is
// what makes mutation through an enclosing binding visible to the
// closure later (spec §9, "Closures and captured scopes").
type Scope struct {
	parent *Scope
	vars   map[string]value.Value
}

// NewScope creates a scope nested inside parent (nil for a root scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]value.Value)}
}

// Define binds name in this frame only.
func (s *Scope) Define(name string, v value.Value) { s.vars[name] = v }

// HasLocal reports whether name is bound in this exact frame.
func (s *Scope) HasLocal(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Lookup walks from this scope outward and returns the first binding
// found.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}
