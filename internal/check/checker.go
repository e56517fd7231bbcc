package check

import (
	"fmt"

	"github.com/sxslang/sxs/internal/value"
)

// Checker walks value.Value trees, computing a TypeInfo per node and
// side-effecting ctx (registering forms and lambda signatures), per
// spec §4.C.
type Checker struct {
	ctx *Context
}

// NewChecker creates a Checker against a shared Context. An evaluator
// given the same Context sees the same forms and kernel signatures and
// draws from the same lambda-id counter; it allocates its own lambda
// ids, which differ from the ones this checker registers signatures
// under.
func NewChecker(ctx *Context) *Checker { return &Checker{ctx: ctx} }

// Context exposes the checker's backing context.
func (c *Checker) Context() *Context { return c.ctx }

// Check computes the static type of v under scope, the checker's
// single entry point.
func (c *Checker) Check(scope *Scope, v value.Value) (TypeInfo, error) {
	switch v.Type() {
	case value.TagNone:
		return NoneType(), nil
	case value.TagInteger:
		return IntType(), nil
	case value.TagReal:
		return RealType(), nil
	case value.TagRune:
		return RuneType(), nil
	case value.TagDQList:
		return StringType(), nil
	case value.TagSymbol:
		return c.checkSymbol(scope, v)
	case value.TagSome:
		inner, _ := v.Inner()
		if _, err := c.Check(scope, inner); err != nil {
			return TypeInfo{}, err
		}
		return SomeType(), nil
	case value.TagError:
		inner, _ := v.Inner()
		if _, err := c.Check(scope, inner); err != nil {
			return TypeInfo{}, err
		}
		return ErrorType(), nil
	case value.TagDatum:
		return c.checkDatum(scope, v)
	case value.TagBracketList:
		return c.checkBlock(scope, v)
	case value.TagBraceList:
		return BraceListType(), nil
	case value.TagParenList:
		return c.checkCall(scope, v)
	case value.TagAberrant:
		id, _ := v.AberrantID()
		return AberrantType(id), nil
	default:
		return TypeInfo{}, fmt.Errorf("checker: unhandled value tag %s", v.Type())
	}
}

func (c *Checker) checkSymbol(scope *Scope, v value.Value) (TypeInfo, error) {
	name, _ := v.AsSymbol()
	if len(name) > 0 && name[0] == ':' {
		return ResolveTypeSymbol(c.ctx, name)
	}
	if t, ok := scope.Lookup(name); ok {
		return t, nil
	}
	// Unbound name remains a SYMBOL, per spec §4.C.
	return SymbolType(), nil
}

func (c *Checker) checkBlock(scope *Scope, v value.Value) (TypeInfo, error) {
	items, _ := v.AsList()
	if len(items) == 0 {
		return NoneType(), nil
	}
	var last TypeInfo
	for _, it := range items {
		t, err := c.Check(scope, it)
		if err != nil {
			return TypeInfo{}, err
		}
		last = t
	}
	return last, nil
}

// checkDatum implements "#(…) with a callable head invokes the head's
// typecheck function ... otherwise the datum's type is DATUM". `load`
// and `import` are the two core heads with side effects a checker
// might verify ahead of runtime (spec §9's open question on `#(load
// ...)`); this implementation checks only their argument shape, never
// performs the load/import itself, so the checker never needs kernel
// or filesystem access.
func (c *Checker) checkDatum(scope *Scope, v value.Value) (TypeInfo, error) {
	inner, _ := v.Inner()
	if inner.Type() == value.TagParenList {
		items, _ := inner.AsList()
		if len(items) > 0 {
			if head, ok := items[0].AsSymbol(); ok {
				switch head {
				case "load":
					return c.checkLoadDatum(scope, items[1:])
				case "import":
					return c.checkImportDatum(scope, items[1:])
				}
			}
		}
	}
	return DatumType(), nil
}

func (c *Checker) checkLoadDatum(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 1 {
		return TypeInfo{}, fmt.Errorf("checker: load expects exactly one argument, got %d", len(args))
	}
	t, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	if t.Base != value.TagDQList {
		return TypeInfo{}, fmt.Errorf("checker: load expects a string path, got %s", t.Base)
	}
	return DatumType(), nil
}

func (c *Checker) checkImportDatum(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: import expects (prefix path), got %d arguments", len(args))
	}
	if _, ok := args[0].AsSymbol(); !ok {
		return TypeInfo{}, fmt.Errorf("checker: import's first argument must be a prefix symbol")
	}
	pathT, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	if pathT.Base != value.TagDQList {
		return TypeInfo{}, fmt.Errorf("checker: import expects a string path, got %s", pathT.Base)
	}
	return DatumType(), nil
}

// checkCall implements the "Callable head" rule and dispatches the
// core language heads listed in spec §4.E.
func (c *Checker) checkCall(scope *Scope, v value.Value) (TypeInfo, error) {
	items, _ := v.AsList()
	if len(items) == 0 {
		// Empty list head: evaluating () yields NONE, not a call.
		return NoneType(), nil
	}
	head, args := items[0], items[1:]

	sym, ok := head.AsSymbol()
	if !ok {
		return TypeInfo{}, fmt.Errorf("checker: callable head must be a symbol")
	}

	switch sym {
	case "def":
		return c.checkDef(scope, args)
	case "fn":
		return c.checkFn(scope, args)
	case "if":
		return c.checkIf(scope, args)
	case "match":
		return c.checkMatch(scope, args)
	case "reflect":
		return c.checkReflect(scope, args)
	case "try":
		return c.checkTry(scope, args)
	case "recover":
		return c.checkRecover(scope, args)
	case "assert":
		return c.checkAssert(scope, args)
	case "eval":
		return c.checkEval(scope, args)
	case "apply":
		return c.checkApply(scope, args)
	case "cast":
		return c.checkCast(scope, args)
	case "do":
		return c.checkDo(scope, args)
	case "done":
		return c.checkDone(scope, args)
	case "at":
		return c.checkAt(scope, args)
	case "eq":
		return c.checkEq(scope, args)
	case "export":
		return c.checkExport(scope, args)
	default:
		return c.checkGenericCall(scope, sym, args)
	}
}

func (c *Checker) checkGenericCall(scope *Scope, sym string, args []value.Value) (TypeInfo, error) {
	if sig, ok := c.ctx.LookupKernelFunc(sym); ok {
		return c.checkArity(scope, sig, args)
	}
	t, ok := scope.Lookup(sym)
	if !ok {
		return TypeInfo{}, fmt.Errorf("checker: unknown callable %q", sym)
	}
	if t.Base != value.TagAberrant && t.Pseudo != "callable" {
		return TypeInfo{}, fmt.Errorf("checker: %q is not callable", sym)
	}
	sig, ok := c.ctx.LookupSignature(t.LambdaID)
	if !ok {
		return AnyType(), nil
	}
	return c.checkArity(scope, sig, args)
}

func (c *Checker) checkArity(scope *Scope, sig *Signature, args []value.Value) (TypeInfo, error) {
	if sig.Variadic {
		fixed := len(sig.Parameters) - 1
		if fixed < 0 {
			fixed = 0
		}
		if len(args) < fixed {
			return TypeInfo{}, fmt.Errorf("checker: arity mismatch: expected at least %d arguments, got %d", fixed, len(args))
		}
		for i := 0; i < fixed; i++ {
			if err := c.checkArg(scope, sig.Parameters[i], args[i], i); err != nil {
				return TypeInfo{}, err
			}
		}
		if fixed < len(sig.Parameters) {
			variadicType := sig.Parameters[fixed]
			for i := fixed; i < len(args); i++ {
				if err := c.checkArg(scope, variadicType, args[i], i); err != nil {
					return TypeInfo{}, err
				}
			}
		}
		return sig.ReturnType, nil
	}
	if len(args) != len(sig.Parameters) {
		return TypeInfo{}, fmt.Errorf("checker: arity mismatch: expected %d arguments, got %d", len(sig.Parameters), len(args))
	}
	for i, p := range sig.Parameters {
		if err := c.checkArg(scope, p, args[i], i); err != nil {
			return TypeInfo{}, err
		}
	}
	return sig.ReturnType, nil
}

func (c *Checker) checkArg(scope *Scope, want TypeInfo, arg value.Value, index int) error {
	got, err := c.Check(scope, arg)
	if err != nil {
		return err
	}
	if !Compatible(want, got) {
		return fmt.Errorf("checker: argument %d: expected %s, got %s", index, want.Base, got.Base)
	}
	return nil
}

func (c *Checker) checkDef(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: def expects (def symbol expr), got %d arguments", len(args))
	}
	name, ok := args[0].AsSymbol()
	if !ok {
		return TypeInfo{}, fmt.Errorf("checker: def's first argument must be a symbol")
	}
	if scope.HasLocal(name) {
		return TypeInfo{}, fmt.Errorf("checker: redefinition of %q in the same scope", name)
	}
	t, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	scope.Define(name, t)
	return t, nil
}

func (c *Checker) checkFn(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 3 {
		return TypeInfo{}, fmt.Errorf("checker: fn expects (fn (params) :ret [body]), got %d arguments", len(args))
	}
	paramsNode, retNode, bodyNode := args[0], args[1], args[2]
	if paramsNode.Type() != value.TagParenList {
		return TypeInfo{}, fmt.Errorf("checker: fn's parameter list must be a paren list")
	}
	paramItems, _ := paramsNode.AsList()
	if len(paramItems)%2 != 0 {
		return TypeInfo{}, fmt.Errorf("checker: fn's parameter list must alternate name and type symbol")
	}

	bodyScope := scope.Child()
	var params []TypeInfo
	variadic := false
	for i := 0; i < len(paramItems); i += 2 {
		pname, ok := paramItems[i].AsSymbol()
		if !ok {
			return TypeInfo{}, fmt.Errorf("checker: fn parameter name must be a symbol")
		}
		tsym, ok := paramItems[i+1].AsSymbol()
		if !ok {
			return TypeInfo{}, fmt.Errorf("checker: fn parameter %q must be followed by a type symbol", pname)
		}
		pt, err := ResolveTypeSymbol(c.ctx, tsym)
		if err != nil {
			return TypeInfo{}, err
		}
		if pt.Variadic {
			variadic = true
		}
		params = append(params, pt)
		bodyScope.Define(pname, pt)
	}

	retSym, ok := retNode.AsSymbol()
	if !ok {
		return TypeInfo{}, fmt.Errorf("checker: fn's return type must be a type symbol")
	}
	retType, err := ResolveTypeSymbol(c.ctx, retSym)
	if err != nil {
		return TypeInfo{}, err
	}

	if bodyNode.Type() != value.TagBracketList {
		return TypeInfo{}, fmt.Errorf("checker: fn's body must be a bracket-list block")
	}
	bodyType, err := c.checkBlock(bodyScope, bodyNode)
	if err != nil {
		return TypeInfo{}, err
	}
	if !Compatible(retType, bodyType) {
		return TypeInfo{}, fmt.Errorf("checker: fn body returns %s, declared return type is %s", bodyType.Base, retType.Base)
	}

	id := c.ctx.NextLambdaID()
	c.ctx.RegisterSignature(id, &Signature{Parameters: params, ReturnType: retType, Variadic: variadic})
	return AberrantType(id), nil
}

func (c *Checker) checkIf(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 3 {
		return TypeInfo{}, fmt.Errorf("checker: if expects (if cond then else), got %d arguments", len(args))
	}
	condT, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	if condT.Base != value.TagInteger {
		return TypeInfo{}, fmt.Errorf("checker: if condition must be INTEGER, got %s", condT.Base)
	}
	thenT, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	if _, err := c.Check(scope, args[2]); err != nil {
		return TypeInfo{}, err
	}
	return thenT, nil
}

func (c *Checker) checkMatch(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) == 0 {
		return TypeInfo{}, fmt.Errorf("checker: match requires a subject expression")
	}
	if _, err := c.Check(scope, args[0]); err != nil {
		return TypeInfo{}, err
	}
	var first TypeInfo
	haveFirst := false
	for _, arm := range args[1:] {
		if arm.Type() != value.TagParenList {
			return TypeInfo{}, fmt.Errorf("checker: match arm must be (literal body)")
		}
		pair, _ := arm.AsList()
		if len(pair) != 2 {
			return TypeInfo{}, fmt.Errorf("checker: match arm must have exactly a literal and a body")
		}
		if _, err := c.Check(scope, pair[0]); err != nil {
			return TypeInfo{}, err
		}
		bt, err := c.Check(scope, pair[1])
		if err != nil {
			return TypeInfo{}, err
		}
		if !haveFirst {
			first, haveFirst = bt, true
		} else if !Compatible(first, bt) {
			return AnyType(), nil
		}
	}
	if !haveFirst {
		return NoneType(), nil
	}
	return first, nil
}

func (c *Checker) checkReflect(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) == 0 {
		return TypeInfo{}, fmt.Errorf("checker: reflect requires a subject expression")
	}
	if _, err := c.Check(scope, args[0]); err != nil {
		return TypeInfo{}, err
	}
	var first TypeInfo
	haveFirst := false
	for _, arm := range args[1:] {
		if arm.Type() != value.TagParenList {
			return TypeInfo{}, fmt.Errorf("checker: reflect arm must be (:type body)")
		}
		pair, _ := arm.AsList()
		if len(pair) != 2 {
			return TypeInfo{}, fmt.Errorf("checker: reflect arm must have exactly a type symbol and a body")
		}
		tsym, ok := pair[0].AsSymbol()
		if !ok {
			return TypeInfo{}, fmt.Errorf("checker: reflect arm key must be a type symbol")
		}
		if _, err := ResolveTypeSymbol(c.ctx, tsym); err != nil {
			return TypeInfo{}, err
		}
		bt, err := c.Check(scope, pair[1])
		if err != nil {
			return TypeInfo{}, err
		}
		if !haveFirst {
			first, haveFirst = bt, true
		} else if !Compatible(first, bt) {
			return AnyType(), nil
		}
	}
	if !haveFirst {
		return NoneType(), nil
	}
	return first, nil
}

func (c *Checker) checkTry(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: try expects (try expr handler), got %d arguments", len(args))
	}
	exprT, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	handlerT, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	if !Compatible(exprT, handlerT) {
		return TypeInfo{}, fmt.Errorf("checker: try's handler type %s does not match expression type %s", handlerT.Base, exprT.Base)
	}
	return exprT, nil
}

func (c *Checker) checkRecover(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: recover expects ([body] [handler]), got %d arguments", len(args))
	}
	bodyT, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	handlerScope := scope.Child()
	handlerScope.Define("$exception", AnyType())
	if _, err := c.Check(handlerScope, args[1]); err != nil {
		return TypeInfo{}, err
	}
	return bodyT, nil
}

func (c *Checker) checkAssert(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: assert expects (assert cond message), got %d arguments", len(args))
	}
	if _, err := c.Check(scope, args[0]); err != nil {
		return TypeInfo{}, err
	}
	msgT, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	if msgT.Base != value.TagDQList {
		return TypeInfo{}, fmt.Errorf("checker: assert message must be a string, got %s", msgT.Base)
	}
	return NoneType(), nil
}

func (c *Checker) checkEval(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 1 {
		return TypeInfo{}, fmt.Errorf("checker: eval expects (eval string), got %d arguments", len(args))
	}
	t, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	if t.Base != value.TagDQList {
		return TypeInfo{}, fmt.Errorf("checker: eval expects a string, got %s", t.Base)
	}
	return AnyType(), nil
}

func (c *Checker) checkApply(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: apply expects (apply lambda brace-list), got %d arguments", len(args))
	}
	lambdaT, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	if lambdaT.Base != value.TagAberrant {
		return TypeInfo{}, fmt.Errorf("checker: apply's first argument must be callable, got %s", lambdaT.Base)
	}
	argsT, err := c.Check(scope, args[1])
	if err != nil {
		return TypeInfo{}, err
	}
	if argsT.Base != value.TagBraceList {
		return TypeInfo{}, fmt.Errorf("checker: apply's second argument must be a brace list, got %s", argsT.Base)
	}
	if sig, ok := c.ctx.LookupSignature(lambdaT.LambdaID); ok {
		return sig.ReturnType, nil
	}
	return AnyType(), nil
}

func (c *Checker) checkCast(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: cast expects (cast :type value), got %d arguments", len(args))
	}
	tsym, ok := args[0].AsSymbol()
	if !ok {
		return TypeInfo{}, fmt.Errorf("checker: cast's first argument must be a type symbol")
	}
	target, err := ResolveTypeSymbol(c.ctx, tsym)
	if err != nil {
		return TypeInfo{}, err
	}
	if _, err := c.Check(scope, args[1]); err != nil {
		return TypeInfo{}, err
	}
	return target, nil
}

func (c *Checker) checkDo(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 1 {
		return TypeInfo{}, fmt.Errorf("checker: do expects (do [body]), got %d arguments", len(args))
	}
	if args[0].Type() != value.TagBracketList {
		return TypeInfo{}, fmt.Errorf("checker: do's body must be a bracket-list block")
	}
	return c.checkBlock(scope, args[0])
}

func (c *Checker) checkDone(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 1 {
		return TypeInfo{}, fmt.Errorf("checker: done expects (done value), got %d arguments", len(args))
	}
	return c.Check(scope, args[0])
}

func (c *Checker) checkAt(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: at expects (at index target), got %d arguments", len(args))
	}
	idxT, err := c.Check(scope, args[0])
	if err != nil {
		return TypeInfo{}, err
	}
	if idxT.Base != value.TagInteger {
		return TypeInfo{}, fmt.Errorf("checker: at's index must be INTEGER, got %s", idxT.Base)
	}
	if _, err := c.Check(scope, args[1]); err != nil {
		return TypeInfo{}, err
	}
	return NoneType(), nil
}

func (c *Checker) checkEq(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: eq expects (eq a b), got %d arguments", len(args))
	}
	if _, err := c.Check(scope, args[0]); err != nil {
		return TypeInfo{}, err
	}
	if _, err := c.Check(scope, args[1]); err != nil {
		return TypeInfo{}, err
	}
	return IntType(), nil
}

func (c *Checker) checkExport(scope *Scope, args []value.Value) (TypeInfo, error) {
	if len(args) != 2 {
		return TypeInfo{}, fmt.Errorf("checker: export expects (export symbol value), got %d arguments", len(args))
	}
	if _, ok := args[0].AsSymbol(); !ok {
		return TypeInfo{}, fmt.Errorf("checker: export's first argument must be a symbol")
	}
	return c.Check(scope, args[1])
}
