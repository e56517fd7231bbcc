package eval

import (
	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/value"
)

// truthy treats any nonzero INTEGER as true and everything else
// (including 0) as false. The checker requires an INTEGER condition
// for `if`; it does not check the type of an `assert` condition.
func truthy(v value.Value) bool {
	i, ok := v.AsInt()
	return ok && i != 0
}

func (e *Evaluator) evalDef(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "def expects (def symbol expr), got %d arguments", len(args)), nil
	}
	name, ok := args[0].AsSymbol()
	if !ok {
		return e.raise(scope, "def's first argument must be a symbol"), nil
	}
	v, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	if isError(v) {
		return v, nil
	}
	scope.Define(name, v)
	return v, nil
}

// evalFn allocates a fresh lambda id from the shared check.Context's
// counter (a new id, not the one the checker assigned this same `fn`
// node) and registers a closure capturing scope, returning an
// ABERRANT handle.
func (e *Evaluator) evalFn(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return e.raise(scope, "fn expects (fn (params) :ret [body]), got %d arguments", len(args)), nil
	}
	paramsNode, bodyNode := args[0], args[2]
	paramItems, _ := paramsNode.AsList()

	var names []string
	variadic := false
	for i := 0; i < len(paramItems); i += 2 {
		pname, _ := paramItems[i].AsSymbol()
		tsym, _ := paramItems[i+1].AsSymbol()
		names = append(names, pname)
		if len(tsym) >= 2 && tsym[len(tsym)-2:] == ".." {
			variadic = true
		}
	}

	id := e.ctx.NextLambdaID()
	e.closures[id] = &closure{params: names, variadic: variadic, body: bodyNode, scope: scope}
	return e.b.Aberrant(0, id), nil
}

func (e *Evaluator) evalIf(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return e.raise(scope, "if expects (if cond then else), got %d arguments", len(args)), nil
	}
	cond, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(cond) {
		return cond, nil
	}
	if truthy(cond) {
		return e.Eval(scope, args[1])
	}
	return e.Eval(scope, args[2])
}

// evalMatch compares the subject's evaluated value against each arm's
// pattern *as written* (the pattern is data, never itself evaluated),
// returning the first matching arm's body; no arm matching yields NONE.
func (e *Evaluator) evalMatch(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return e.raise(scope, "match requires a subject expression"), nil
	}
	subject, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(subject) {
		return subject, nil
	}
	for _, arm := range args[1:] {
		pair, _ := arm.AsList()
		if len(pair) != 2 {
			continue
		}
		if value.Equal(subject, pair[0]) {
			return e.Eval(scope, pair[1])
		}
	}
	return e.b.None(), nil
}

// evalReflect dispatches on the subject's runtime type, resolving each
// arm's type symbol the same way the checker does (check.Compatible
// against the subject's static shape, approximated at runtime by its
// own tag/pseudo-type).
func (e *Evaluator) evalReflect(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return e.raise(scope, "reflect requires a subject expression"), nil
	}
	subject, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(subject) {
		return subject, nil
	}
	got := check.FromTag(subject.Type())
	for _, arm := range args[1:] {
		pair, _ := arm.AsList()
		if len(pair) != 2 {
			continue
		}
		tsym, _ := pair[0].AsSymbol()
		want, err := check.ResolveTypeSymbol(e.ctx, tsym)
		if err != nil {
			continue
		}
		if check.Compatible(want, got) {
			return e.Eval(scope, pair[1])
		}
	}
	return e.b.None(), nil
}

func (e *Evaluator) evalTry(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "try expects (try expr handler), got %d arguments", len(args)), nil
	}
	result, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(result) {
		return e.Eval(scope, args[1])
	}
	return result, nil
}

// evalRecover runs body, and if it panics (a host-level fault distinct
// from an ordinary ERROR value) or yields an ERROR value, binds
// `$exception` in a child scope and evaluates handler. doneSignal
// panics are never caught here — they belong to an enclosing `do`.
func (e *Evaluator) evalRecover(scope *Scope, args []value.Value) (result value.Value, resultErr error) {
	if len(args) != 2 {
		return e.raise(scope, "recover expects ([body] [handler]), got %d arguments", len(args)), nil
	}
	bodyNode, handlerNode := args[0], args[1]

	var caught value.Value
	var didRecover bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				if ds, ok := r.(doneSignal); ok {
					panic(ds)
				}
				caught = e.raise(scope, "recovered panic: %v", r)
				didRecover = true
			}
		}()
		result, resultErr = e.evalBlock(scope, bodyNode)
	}()
	if resultErr != nil {
		return value.Value{}, resultErr
	}
	if didRecover || isError(result) {
		if didRecover {
			result = caught
		}
		handlerScope := NewScope(scope)
		handlerScope.Define("$exception", result)
		return e.evalBlock(handlerScope, handlerNode)
	}
	return result, nil
}

func (e *Evaluator) evalAssert(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "assert expects (assert cond message), got %d arguments", len(args)), nil
	}
	cond, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(cond) {
		return cond, nil
	}
	msgV, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	msg, _ := msgV.AsString()
	if !truthy(cond) {
		return e.raise(scope, "assertion failed: %s", msg), nil
	}
	return e.b.None(), nil
}

func (e *Evaluator) evalEvalForm(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return e.raise(scope, "eval expects (eval string), got %d arguments", len(args)), nil
	}
	srcV, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	src, ok := srcV.AsString()
	if !ok {
		return e.raise(scope, "eval expects a string"), nil
	}
	return e.evalSource(scope, src)
}

func (e *Evaluator) evalApply(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "apply expects (apply lambda brace-list), got %d arguments", len(args)), nil
	}
	lambdaV, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(lambdaV) {
		return lambdaV, nil
	}
	id, ok := lambdaV.AberrantID()
	if !ok {
		return e.raise(scope, "apply's first argument must be callable"), nil
	}
	argsV, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	if isError(argsV) {
		return argsV, nil
	}
	argVals, ok := argsV.AsList()
	if !ok {
		return e.raise(scope, "apply's second argument must be a brace list"), nil
	}
	return e.callClosure(id, argVals)
}

func (e *Evaluator) evalDo(scope *Scope, args []value.Value) (result value.Value, resultErr error) {
	if len(args) != 1 {
		return e.raise(scope, "do expects (do [body]), got %d arguments", len(args)), nil
	}
	e.loopDepth++
	defer func() { e.loopDepth-- }()

	for {
		var loopErr error
		caughtDone := false
		var doneVal value.Value
		func() {
			defer func() {
				if r := recover(); r != nil {
					if ds, ok := r.(doneSignal); ok {
						caughtDone = true
						doneVal = ds.value
						return
					}
					panic(r)
				}
			}()
			result, loopErr = e.evalBlock(scope, args[0])
		}()
		if loopErr != nil {
			return value.Value{}, loopErr
		}
		if caughtDone {
			return doneVal, nil
		}
		if isError(result) {
			return result, nil
		}
	}
}

// evalDone unwinds to the innermost enclosing `do` via panic. Calling
// it outside any `do` (loopDepth == 0) is a checked, non-panicking
// ERROR instead, per spec §4.E's "done outside do" fatal case.
func (e *Evaluator) evalDone(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return e.raise(scope, "done expects (done value), got %d arguments", len(args)), nil
	}
	v, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if e.loopDepth == 0 {
		return e.raise(scope, "done outside do"), nil
	}
	panic(doneSignal{value: v})
}

func (e *Evaluator) evalAt(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "at expects (at index target), got %d arguments", len(args)), nil
	}
	idxV, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	idx, ok := idxV.AsInt()
	if !ok {
		return e.raise(scope, "at's index must be INTEGER"), nil
	}
	target, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	if isError(target) {
		return target, nil
	}
	if idx < 0 {
		return e.raise(scope, "at's index must be non-negative, got %d", idx), nil
	}
	for int64(len(e.objects)) <= idx {
		e.objects = append(e.objects, e.b.None())
	}
	e.objects[idx] = target
	return e.b.None(), nil
}

// ObjectAt returns the value stored at index by a prior `at` call.
func (e *Evaluator) ObjectAt(idx int64) (value.Value, bool) {
	if idx < 0 || idx >= int64(len(e.objects)) {
		return value.Value{}, false
	}
	return e.objects[idx], true
}

func (e *Evaluator) evalEq(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "eq expects (eq a b), got %d arguments", len(args)), nil
	}
	a, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	if isError(a) {
		return a, nil
	}
	b, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	if isError(b) {
		return b, nil
	}
	if value.Equal(a, b) {
		return e.b.Int(1), nil
	}
	return e.b.Int(0), nil
}

func (e *Evaluator) evalExport(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "export expects (export symbol value), got %d arguments", len(args)), nil
	}
	name, ok := args[0].AsSymbol()
	if !ok {
		return e.raise(scope, "export's first argument must be a symbol"), nil
	}
	v, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	if isError(v) {
		return v, nil
	}
	scope.Define(name, v)
	if e.exports == nil {
		e.exports = make(map[string]value.Value)
	}
	e.exports[name] = v
	return v, nil
}

// Exports returns every binding a program's top-level `export` calls
// recorded, for internal/importer to expose under its prefix.
func (e *Evaluator) Exports() map[string]value.Value {
	if e.exports == nil {
		return map[string]value.Value{}
	}
	return e.exports
}
