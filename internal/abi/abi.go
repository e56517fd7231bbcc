// Package abi implements the C-callable table described in spec §4.A:
// the struct of function pointers the kernel loader hands to every
// loaded module (value constructors, accessors, an eval callback, and
// function registration). Since this module has no cgo boundary, the
// "C function pointers" are plain Go func values; the kernel loader
// (internal/kernel) is what actually crosses a plugin.Open boundary.
package abi

import (
	"fmt"
	"sync"

	"github.com/sxslang/sxs/internal/value"
)

// NativeFunc is the shape of a kernel-registered function: it receives
// already-evaluated arguments and returns a result or an ERROR value.
// Per spec §9's pointer-lifetime convention, args are borrowed for the
// call only; a kernel must copy anything it needs to retain.
type NativeFunc func(args []value.Value) (value.Value, error)

// Registered is one function a kernel's kernel_init registered.
type Registered struct {
	Fn        NativeFunc
	ReturnTag value.Tag
	Variadic  bool
}

// Registry collects the functions one kernel registers during
// kernel_init, for later reconciliation against its manifest's
// declared functions (spec §4.K).
type Registry struct {
	mu    sync.Mutex
	funcs map[string]*Registered
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*Registered)}
}

// Register records fn under name. A kernel registering the same name
// twice overwrites the previous entry; the loader's declared-vs-
// registered reconciliation is what actually enforces correctness.
func (r *Registry) Register(name string, fn NativeFunc, returnTag value.Tag, variadic bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = &Registered{Fn: fn, ReturnTag: returnTag, Variadic: variadic}
}

// Lookup resolves a previously registered function by name.
func (r *Registry) Lookup(name string) (*Registered, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.funcs[name]
	return reg, ok
}

// Names returns every currently registered function name.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		out = append(out, n)
	}
	return out
}

// EvalCallback lets a kernel call back into the host evaluator (the
// `eval(context, value)` ABI entry, spec §4.A).
type EvalCallback func(v value.Value) (value.Value, error)

// SystemInfo is the payload `get_system_info` returns.
type SystemInfo struct {
	WorkingDirectory string
}

// Table is the full ABI surface passed to kernel_init. All value
// construction goes through the host's shared builder so kernel-
// created values share the evaluator's store.
type Table struct {
	Registry *Registry

	Eval EvalCallback

	AsInt    func(v value.Value) (int64, bool)
	AsReal   func(v value.Value) (float64, bool)
	AsString func(v value.Value) (string, bool)
	AsSymbol func(v value.Value) (string, bool)
	AsList   func(v value.Value) ([]value.Value, bool)
	ListSize func(v value.Value) int
	ListAt   func(v value.Value, i int) (value.Value, bool)

	CreateInt         func(i int64) value.Value
	CreateReal        func(f float64) value.Value
	CreateRune        func(r rune) value.Value
	CreateString      func(s string) value.Value
	CreateSymbol      func(s string) value.Value
	CreateNone        func() value.Value
	CreateParenList   func(items ...value.Value) value.Value
	CreateBracketList func(items ...value.Value) value.Value
	CreateBraceList   func(items ...value.Value) value.Value

	SomeHasValue func(v value.Value) bool
	SomeGetValue func(v value.Value) (value.Value, bool)

	RegisterFunction func(name string, fn NativeFunc, returnTag value.Tag, variadic bool) error

	GetSystemInfo func() SystemInfo
}

// NewTable builds a Table backed by b for construction, evalCB for the
// callback entry, and sysInfo for get_system_info.
func NewTable(b *value.Builder, evalCB EvalCallback, sysInfo SystemInfo) *Table {
	registry := NewRegistry()
	return &Table{
		Registry: registry,
		Eval:     evalCB,

		AsInt:    func(v value.Value) (int64, bool) { return v.AsInt() },
		AsReal:   func(v value.Value) (float64, bool) { return v.AsReal() },
		AsString: func(v value.Value) (string, bool) { return v.AsString() },
		AsSymbol: func(v value.Value) (string, bool) { return v.AsSymbol() },
		AsList:   func(v value.Value) ([]value.Value, bool) { return v.AsList() },
		ListSize: func(v value.Value) int {
			items, ok := v.AsList()
			if !ok {
				return 0
			}
			return len(items)
		},
		ListAt: func(v value.Value, i int) (value.Value, bool) {
			items, ok := v.AsList()
			if !ok || i < 0 || i >= len(items) {
				return value.Value{}, false
			}
			return items[i], true
		},

		CreateInt:         func(i int64) value.Value { return b.Int(i) },
		CreateReal:        func(f float64) value.Value { return b.Real(f) },
		CreateRune:        func(r rune) value.Value { return b.Rune(r) },
		CreateString:      func(s string) value.Value { return b.String(s) },
		CreateSymbol:      func(s string) value.Value { return b.Symbol(s) },
		CreateNone:        func() value.Value { return b.None() },
		CreateParenList:   func(items ...value.Value) value.Value { return b.ParenList(items...) },
		CreateBracketList: func(items ...value.Value) value.Value { return b.BracketList(items...) },
		CreateBraceList:   func(items ...value.Value) value.Value { return b.BraceList(items...) },

		SomeHasValue: func(v value.Value) bool { return v.Type() == value.TagSome },
		SomeGetValue: func(v value.Value) (value.Value, bool) { return v.Inner() },

		RegisterFunction: func(name string, fn NativeFunc, returnTag value.Tag, variadic bool) error {
			if fn == nil {
				return fmt.Errorf("abi: cannot register nil function %q", name)
			}
			registry.Register(name, fn, returnTag, variadic)
			return nil
		},

		GetSystemInfo: func() SystemInfo { return sysInfo },
	}
}
