package eval

import "github.com/sxslang/sxs/internal/value"

// closure is the runtime data an ABERRANT value's lambda id resolves
// to: the parameter names, the body block, and the scope captured at
// `fn` time. Parameter types are not kept, and no signature is
// registered for the id: the signatures in the shared check.Context
// (spec §3.4) are keyed by the checker's own lambda ids.
type closure struct {
	params   []string
	variadic bool
	body     value.Value
	scope    *Scope
}

func (e *Evaluator) callClosure(id uint64, argVals []value.Value) (value.Value, error) {
	cl, ok := e.closures[id]
	if !ok {
		return e.raise(nil, "lambda %d has no registered implementation", id), nil
	}

	fixed := len(cl.params)
	if cl.variadic {
		fixed--
	}
	if fixed < 0 {
		fixed = 0
	}
	if cl.variadic {
		if len(argVals) < fixed {
			return e.raise(nil, "arity mismatch: expected at least %d arguments, got %d", fixed, len(argVals)), nil
		}
	} else if len(argVals) != len(cl.params) {
		return e.raise(nil, "arity mismatch: expected %d arguments, got %d", len(cl.params), len(argVals)), nil
	}

	callScope := NewScope(cl.scope)
	for i := 0; i < fixed; i++ {
		callScope.Define(cl.params[i], argVals[i])
	}
	if cl.variadic {
		rest := e.b.BraceList(argVals[fixed:]...)
		callScope.Define(cl.params[fixed], rest)
	}

	return e.evalBlock(callScope, cl.body)
}
