// Package eval implements the tree-walking evaluator of spec §4.E: it
// walks the same value.Value trees the checker validates and produces
// value.Value results, routing every evaluation-level fault through
// the ERROR tag rather than Go's error type (see errors.go).
package eval

import (
	"fmt"

	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/lexsxs"
	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/value"
)

// Importer is the evaluator's view of the import subsystem (spec
// §4.I): resolving a module path to its exported bindings. Defined
// here, on the consumer side, so internal/importer can depend on
// internal/eval (to build a sibling Evaluator for the imported file)
// without a cycle back.
type Importer interface {
	Import(path string) (map[string]value.Value, error)
}

// KernelCaller is the evaluator's view of the kernel manager (spec
// §4.K): loading a kernel on first reference and dispatching a
// "kernel/name" call to its registered native implementation.
type KernelCaller interface {
	LoadKernel(name string) error
	CallFunction(qualifiedName string, args []value.Value) (value.Value, error)
}

// Evaluator walks value.Value trees against a runtime Scope chain. It
// shares a check.Context with the checker (forms, kernel signatures,
// and the lambda-id counter, so ids never collide) and a value.Builder
// so every value it produces shares one store. It allocates its own
// lambda ids and does not look up lambda signatures.
type Evaluator struct {
	ctx       *check.Context
	b         *value.Builder
	closures  map[uint64]*closure
	loopDepth int

	kernels          KernelCaller
	importer         Importer
	workingDirectory string

	// objects backs the `at`/object-storage primitive (spec §4.E),
	// grounded on original_source's sxs_context_t.object_storage: a
	// flat, append-only slot array addressed by integer index.
	objects []value.Value

	// exports collects the bindings a program's top-level `export`
	// calls recorded, consulted by internal/importer.
	exports map[string]value.Value

	// importsLocked is set by EvalTopLevel the first time a top-level
	// form other than `#(import ...)` is evaluated, per spec §4.I's
	// lock semantics: once the program has started doing real work, a
	// later top-level import is a failure rather than a late side effect.
	importsLocked bool
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithKernels attaches the kernel manager `kernel/name` calls and
// `#(load ...)` dispatch to.
func WithKernels(k KernelCaller) Option { return func(e *Evaluator) { e.kernels = k } }

// WithImporter attaches the import subsystem `#(import ...)` uses.
func WithImporter(i Importer) Option { return func(e *Evaluator) { e.importer = i } }

// WithWorkingDirectory sets the directory relative paths resolve
// against (also surfaced to kernels via get_system_info).
func WithWorkingDirectory(dir string) Option {
	return func(e *Evaluator) { e.workingDirectory = dir }
}

// New creates an Evaluator sharing ctx and b with the program's
// Checker.
func New(ctx *check.Context, b *value.Builder, opts ...Option) *Evaluator {
	e := &Evaluator{
		ctx:      ctx,
		b:        b,
		closures: make(map[uint64]*closure),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RootScope creates a fresh top-level Scope for a program.
func (e *Evaluator) RootScope() *Scope { return NewScope(nil) }

// EvalTopLevel evaluates v as one of a program's top-level forms,
// enforcing the import lock (spec §4.I): once any non-import top-level
// form has been evaluated, a later `#(import ...)` raises instead of
// running. Callers that drive a program's top-level form sequence
// (pkg/sxs.Runtime.Eval, internal/importer.Manager.Import) must call
// this instead of Eval so the lock is actually tracked; Eval itself has
// no notion of "top-level" since it recurses into blocks and calls.
func (e *Evaluator) EvalTopLevel(scope *Scope, v value.Value) (value.Value, error) {
	if isImportForm(v) {
		if e.importsLocked {
			return e.raise(scope, "imports are locked: a non-import top-level form has already been evaluated"), nil
		}
	} else {
		e.importsLocked = true
	}
	return e.Eval(scope, v)
}

// isImportForm reports whether v is a `#(import ...)` datum, the only
// top-level form shape exempt from the import lock.
func isImportForm(v value.Value) bool {
	if v.Type() != value.TagDatum {
		return false
	}
	inner, ok := v.Inner()
	if !ok || inner.Type() != value.TagParenList {
		return false
	}
	items, _ := inner.AsList()
	if len(items) == 0 {
		return false
	}
	head, ok := items[0].AsSymbol()
	return ok && head == "import"
}

// Eval is the evaluator's single entry point: it computes the runtime
// value of v under scope. The returned error is reserved for faults
// outside the language's own error model (spec §7); ordinary runtime
// faults come back as an ERROR-tagged value.Value instead.
func (e *Evaluator) Eval(scope *Scope, v value.Value) (value.Value, error) {
	switch v.Type() {
	case value.TagNone, value.TagInteger, value.TagReal, value.TagRune, value.TagDQList,
		value.TagBraceList, value.TagAberrant:
		return v, nil
	case value.TagSymbol:
		return e.evalSymbol(scope, v)
	case value.TagSome:
		inner, _ := v.Inner()
		iv, err := e.Eval(scope, inner)
		if err != nil {
			return value.Value{}, err
		}
		return e.b.Some(iv), nil
	case value.TagError:
		// An ERROR value appearing literally in source (rather than
		// produced by a raise) evaluates to itself.
		return v, nil
	case value.TagDatum:
		return e.evalDatum(scope, v)
	case value.TagBracketList:
		return e.evalBlock(scope, v)
	case value.TagParenList:
		return e.evalCall(scope, v)
	default:
		return value.Value{}, fmt.Errorf("eval: unhandled value tag %s", v.Type())
	}
}

func (e *Evaluator) evalSymbol(scope *Scope, v value.Value) (value.Value, error) {
	name, _ := v.AsSymbol()
	if val, ok := scope.Lookup(name); ok {
		return val, nil
	}
	// An unbound symbol evaluates to itself, mirroring the checker's
	// "unbound name remains a SYMBOL" rule.
	return v, nil
}

// evalBlock evaluates a BRACKET_LIST as a sequential block, returning
// the value of its last form (NONE for an empty block).
func (e *Evaluator) evalBlock(scope *Scope, v value.Value) (value.Value, error) {
	items, _ := v.AsList()
	if len(items) == 0 {
		return e.b.None(), nil
	}
	var last value.Value
	for _, it := range items {
		result, err := e.Eval(scope, it)
		if err != nil {
			return value.Value{}, err
		}
		if isError(result) {
			return result, nil
		}
		last = result
	}
	return last, nil
}

// evalDatum evaluates a DATUM head (`load`/`import`) or, for any other
// head, returns the datum unevaluated: its whole purpose is to
// suppress evaluation of its contents (spec §3.1).
func (e *Evaluator) evalDatum(scope *Scope, v value.Value) (value.Value, error) {
	inner, _ := v.Inner()
	if inner.Type() == value.TagParenList {
		items, _ := inner.AsList()
		if len(items) > 0 {
			if head, ok := items[0].AsSymbol(); ok {
				switch head {
				case "load":
					return e.evalLoad(scope, items[1:])
				case "import":
					return e.evalImport(scope, items[1:])
				}
			}
		}
	}
	return v, nil
}

func (e *Evaluator) evalLoad(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return e.raise(scope, "load expects exactly one argument, got %d", len(args)), nil
	}
	pathV, err := e.Eval(scope, args[0])
	if err != nil {
		return value.Value{}, err
	}
	path, ok := pathV.AsString()
	if !ok {
		return e.raise(scope, "load expects a string path"), nil
	}
	if e.kernels == nil {
		return e.raise(scope, "no kernel manager configured, cannot load %q", path), nil
	}
	if err := e.kernels.LoadKernel(path); err != nil {
		return e.raise(scope, "failed to load kernel %q: %v", path, err), nil
	}
	return e.b.None(), nil
}

func (e *Evaluator) evalImport(scope *Scope, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return e.raise(scope, "import expects (prefix path), got %d arguments", len(args)), nil
	}
	prefix, ok := args[0].AsSymbol()
	if !ok {
		return e.raise(scope, "import's first argument must be a prefix symbol"), nil
	}
	pathV, err := e.Eval(scope, args[1])
	if err != nil {
		return value.Value{}, err
	}
	path, ok := pathV.AsString()
	if !ok {
		return e.raise(scope, "import expects a string path"), nil
	}
	if e.importer == nil {
		return e.raise(scope, "no importer configured, cannot import %q", path), nil
	}
	exports, err := e.importer.Import(path)
	if err != nil {
		return e.raise(scope, "failed to import %q: %v", path, err), nil
	}
	for name, val := range exports {
		scope.Define(prefix+"/"+name, val)
	}
	return e.b.None(), nil
}

// evalCall implements the "Callable head" rule's runtime half,
// dispatching the core language heads spec §4.E names.
func (e *Evaluator) evalCall(scope *Scope, v value.Value) (value.Value, error) {
	items, _ := v.AsList()
	if len(items) == 0 {
		return e.b.None(), nil
	}
	head, args := items[0], items[1:]

	sym, ok := head.AsSymbol()
	if !ok {
		return e.raise(scope, "callable head must be a symbol"), nil
	}

	switch sym {
	case "def":
		return e.evalDef(scope, args)
	case "fn":
		return e.evalFn(scope, args)
	case "if":
		return e.evalIf(scope, args)
	case "match":
		return e.evalMatch(scope, args)
	case "reflect":
		return e.evalReflect(scope, args)
	case "try":
		return e.evalTry(scope, args)
	case "recover":
		return e.evalRecover(scope, args)
	case "assert":
		return e.evalAssert(scope, args)
	case "eval":
		return e.evalEvalForm(scope, args)
	case "apply":
		return e.evalApply(scope, args)
	case "cast":
		return e.evalCast(scope, args)
	case "do":
		return e.evalDo(scope, args)
	case "done":
		return e.evalDone(scope, args)
	case "at":
		return e.evalAt(scope, args)
	case "eq":
		return e.evalEq(scope, args)
	case "export":
		return e.evalExport(scope, args)
	default:
		return e.evalGenericCall(scope, sym, args)
	}
}

func (e *Evaluator) evalArgs(scope *Scope, args []value.Value) ([]value.Value, value.Value, error) {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		v, err := e.Eval(scope, a)
		if err != nil {
			return nil, value.Value{}, err
		}
		if isError(v) {
			return nil, v, nil
		}
		out = append(out, v)
	}
	return out, value.Value{}, nil
}

func (e *Evaluator) evalGenericCall(scope *Scope, sym string, args []value.Value) (value.Value, error) {
	argVals, errVal, err := e.evalArgs(scope, args)
	if err != nil {
		return value.Value{}, err
	}
	if isError(errVal) {
		return errVal, nil
	}

	if e.kernels != nil {
		if result, callErr := e.kernels.CallFunction(sym, argVals); callErr == nil {
			return result, nil
		}
	}

	callee, ok := scope.Lookup(sym)
	if !ok {
		return e.raise(scope, "unbound callable %q", sym), nil
	}
	id, ok := callee.AberrantID()
	if !ok {
		return e.raise(scope, "%q is not callable", sym), nil
	}
	return e.callClosure(id, argVals)
}

// evalSource parses src and evaluates each resulting form in scope in
// turn, returning the last form's value (NONE for an empty source),
// backing the `eval` builtin (spec §4.E).
func (e *Evaluator) evalSource(scope *Scope, src string) (value.Value, error) {
	p := parser.New(lexsxs.NewFromString(src), e.b)
	forms, perr := p.ParseAll()
	if perr != nil {
		return e.raise(scope, "eval: parse error: %v", perr), nil
	}
	var last value.Value = e.b.None()
	for _, f := range forms {
		v, err := e.Eval(scope, f)
		if err != nil {
			return value.Value{}, err
		}
		if isError(v) {
			return v, nil
		}
		last = v
	}
	return last, nil
}
