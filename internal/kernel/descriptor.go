// Package kernel implements the dynamic kernel loader of spec §4.K:
// resolving a kernel directory, interpreting its manifest under a
// restricted meta-interpreter, loading a shared object, and
// reconciling declared versus registered symbols.
package kernel

import "github.com/sxslang/sxs/internal/abi"

// State is a kernel's position in the lifecycle spec §4.K names:
// Unresolved → Resolved → Declared → Linked → Shutdown → Closed.
type State int

const (
	Unresolved State = iota
	Resolved
	Declared
	Linked
	Shutdown
	Closed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Declared:
		return "declared"
	case Linked:
		return "linked"
	case Shutdown:
		return "shutdown"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// FunctionDecl is one `define-function` entry from a manifest.
type FunctionDecl struct {
	Name       string
	ParamNames []string
	ParamTypes []string // type symbol text, including leading ':'
	ReturnType string
	Variadic   bool
}

// FormDecl is one `define-form` entry from a manifest.
type FormDecl struct {
	Name     string
	Elements []string // type symbol text, including leading ':'
}

// Descriptor is the kernel descriptor of spec §3.6.
type Descriptor struct {
	Name              string
	Directory         string
	DylibFilename     string
	Args              []string // parsed ARGS extension, see manifest.go
	DeclaredFunctions map[string]*FunctionDecl
	DeclaredForms     map[string]*FormDecl
	State             State
	Table             *abi.Table
	OnShutdown        func(*abi.Table)
}

func newDescriptor() *Descriptor {
	return &Descriptor{
		DeclaredFunctions: make(map[string]*FunctionDecl),
		DeclaredForms:     make(map[string]*FormDecl),
	}
}
