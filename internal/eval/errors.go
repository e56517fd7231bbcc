package eval

import (
	"fmt"

	"github.com/sxslang/sxs/internal/value"
)

// raise builds an ERROR-tagged value carrying a string payload. Per
// spec §4.E / §9, errors are values: they flow like any other result
// until a `try` or `recover` boundary inspects the tag. Evaluator-level
// faults (arity mismatch, unbound symbol, cast failure, ...) are never
// reported as Go errors; the Go error return of Eval is reserved for
// conditions outside the language's own error model entirely.
func (e *Evaluator) raise(_ *Scope, format string, args ...any) value.Value {
	msg := fmt.Sprintf(format, args...)
	return e.b.Error(e.b.String(msg))
}

func isError(v value.Value) bool { return v.Type() == value.TagError }

// doneSignal is the payload carried by the panic a `done` call raises
// to unwind directly to its innermost enclosing `do` (spec §4.E). It
// is caught inside evalDo; an uncaught one only occurs when `done` is
// reached with e.loopDepth == 0, which evalDone instead turns into an
// ordinary ERROR value rather than ever panicking.
type doneSignal struct {
	value value.Value
}
