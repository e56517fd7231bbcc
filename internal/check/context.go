package check

import "sync"

// FormDef is a user-declared structural type (spec §3.5): an ordered
// list of element types addressable afterward as the type symbol
// `:<name>` (and `:<name>..` for its variadic variant).
type FormDef struct {
	Name     string
	Elements []TypeInfo
}

// Signature is a lambda's parameter/return contract (spec §3.4), keyed
// by the lambda's id in Context.Signatures so that an ABERRANT value
// carrying only that id can still be type-checked and called.
type Signature struct {
	Parameters []TypeInfo
	ReturnType TypeInfo
	Variadic   bool
}

// Context is the compiler context side-effected by the checker and
// consulted by the evaluator: the form registry, the lambda signature
// table, the kernel function signature table, and the lambda-id
// generator (spec §3.2's "monotonically increasing lambda-id
// generator"). Checker and evaluator draw ids from this one counter,
// so no two lambdas share an id, but each pass allocates its own id
// per `fn`: signatures are registered under the checker's ids, and an
// ABERRANT value produced during evaluation carries an id with no
// signature registered under it.
type Context struct {
	mu         sync.Mutex
	forms      map[string]*FormDef
	signatures map[uint64]*Signature
	kernelFns  map[string]*Signature
	nextID     uint64
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{
		forms:      make(map[string]*FormDef),
		signatures: make(map[uint64]*Signature),
		kernelFns:  make(map[string]*Signature),
	}
}

// NextLambdaID allocates and returns a fresh lambda id.
func (c *Context) NextLambdaID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// RegisterForm records a user-declared form definition.
func (c *Context) RegisterForm(def *FormDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms[def.Name] = def
}

// LookupForm returns a previously registered form definition.
func (c *Context) LookupForm(name string) (*FormDef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.forms[name]
	return f, ok
}

// RegisterSignature associates a lambda id with its signature.
func (c *Context) RegisterSignature(id uint64, sig *Signature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signatures[id] = sig
}

// LookupSignature resolves a lambda id to its signature.
func (c *Context) LookupSignature(id uint64) (*Signature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.signatures[id]
	return sig, ok
}

// RegisterKernelFunc records the signature of a function declared by a
// kernel manifest, keyed by its fully qualified "kernel/name" name.
func (c *Context) RegisterKernelFunc(qualifiedName string, sig *Signature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kernelFns[qualifiedName] = sig
}

// LookupKernelFunc resolves a "kernel/name" reference to its signature.
func (c *Context) LookupKernelFunc(qualifiedName string) (*Signature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.kernelFns[qualifiedName]
	return sig, ok
}
