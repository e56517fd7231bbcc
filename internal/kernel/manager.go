package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sxslang/sxs/internal/abi"
	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/logging"
	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/value"
)

// KernelInitFunc and KernelShutdownFunc are the Go-idiomatic
// CamelCase adaptation of the C ABI's kernel_init/kernel_shutdown
// exported symbols (spec §4.K): plugin.Lookup resolves exported names
// exactly, and Go convention capitalizes exported identifiers.
// KernelInitFunc's second parameter is the manifest's optional ARGS
// string, shell-tokenized, handed through verbatim as extra_args.
type KernelInitFunc func(*abi.Table, []string) error
type KernelShutdownFunc func(*abi.Table)

// Manager resolves, loads, and tears down kernels (spec §4.K). It
// owns the shared check.Context so that a kernel's declared functions
// and forms become visible to the type checker under `kernel/name`
// qualified names, and the shared value.Builder so every kernel's
// values share one store with the host evaluator.
type Manager struct {
	mu               sync.Mutex
	includePaths     []string
	workingDirectory string
	kernels          map[string]*Descriptor
	shutdownOrder    []string

	ctx     *check.Context
	builder *value.Builder
	evalCB  abi.EvalCallback
	logger  logging.Logger
}

// NewManager creates a Manager that resolves kernel directories via
// includePaths (tried in order) falling back to workingDirectory, and
// registers loaded kernels' declared functions/forms into ctx.
func NewManager(ctx *check.Context, builder *value.Builder, evalCB abi.EvalCallback, workingDirectory string, includePaths ...string) *Manager {
	return &Manager{
		includePaths:     includePaths,
		workingDirectory: workingDirectory,
		kernels:          make(map[string]*Descriptor),
		ctx:              ctx,
		builder:          builder,
		evalCB:           evalCB,
		logger:           logging.New(nil),
	}
}

// WithLogger replaces the manager's default logger.
func (m *Manager) WithLogger(l logging.Logger) *Manager {
	m.logger = l
	return m
}

// Load resolves, reads the manifest, and links the kernel named name.
// Loading the same kernel twice is a no-op returning the existing
// descriptor, matching spec §4.K's idempotent-load requirement.
func (m *Manager) Load(name string) (*Descriptor, error) {
	m.mu.Lock()
	if existing, ok := m.kernels[name]; ok {
		m.mu.Unlock()
		m.logger.Debugf("kernel %q already loaded, reusing descriptor", name)
		return existing, nil
	}
	m.mu.Unlock()

	attemptID := uuid.NewString()
	m.logger.Infof("kernel %q: attempt_load id=%s", name, attemptID)

	dir, err := m.resolveKernelDir(name)
	if err != nil {
		m.logger.Errorf("kernel %q: attempt_load id=%s resolve failed: %v", name, attemptID, err)
		return nil, err
	}

	desc := newDescriptor()
	desc.Name = name
	desc.Directory = dir

	manifestPath := filepath.Join(dir, "kernel.sxs")
	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("kernel %q: failed to read manifest: %w", name, err)
	}

	p := parser.NewFromString(string(manifestBytes))
	forms, err := p.ParseAll()
	if err != nil {
		return nil, fmt.Errorf("kernel %q: malformed manifest: %w", name, err)
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("kernel %q: empty manifest", name)
	}
	for _, form := range forms {
		if err := interpretManifest(form, desc); err != nil {
			return nil, fmt.Errorf("kernel %q: %w", name, err)
		}
	}
	if desc.Name == "" || desc.DylibFilename == "" {
		return nil, fmt.Errorf("kernel %q: manifest never issued a define-kernel form", name)
	}
	desc.State = Declared

	sysInfo := abi.SystemInfo{WorkingDirectory: m.workingDirectory}
	desc.Table = abi.NewTable(m.builder, m.evalCB, sysInfo)

	dylibPath := filepath.Join(dir, desc.DylibFilename)
	plug, err := plugin.Open(dylibPath)
	if err != nil {
		desc.State = Closed
		m.logger.Errorf("kernel %q: attempt_load id=%s failed to open %s: %v", name, attemptID, dylibPath, err)
		return nil, fmt.Errorf("kernel %q: failed to open %s: %w", name, dylibPath, err)
	}

	initSym, err := plug.Lookup("KernelInit")
	if err != nil {
		desc.State = Closed
		return nil, fmt.Errorf("kernel %q: missing KernelInit export: %w", name, err)
	}
	initFn, ok := initSym.(func(*abi.Table, []string) error)
	if !ok {
		desc.State = Closed
		return nil, fmt.Errorf("kernel %q: KernelInit has the wrong signature", name)
	}
	if err := initFn(desc.Table, desc.Args); err != nil {
		desc.State = Closed
		return nil, fmt.Errorf("kernel %q: KernelInit failed: %w", name, err)
	}

	if shutdownSym, err := plug.Lookup("KernelShutdown"); err == nil {
		if shutdownFn, ok := shutdownSym.(func(*abi.Table)); ok {
			desc.OnShutdown = shutdownFn
		}
	}

	if err := m.reconcile(desc); err != nil {
		desc.State = Closed
		return nil, err
	}
	desc.State = Linked

	m.registerIntoContext(desc)

	m.mu.Lock()
	m.kernels[name] = desc
	m.shutdownOrder = append(m.shutdownOrder, name)
	m.mu.Unlock()

	m.logger.Infof("kernel %q: attempt_load id=%s linked, %d functions, %d forms",
		name, attemptID, len(desc.DeclaredFunctions), len(desc.DeclaredForms))

	return desc, nil
}

// reconcile verifies every declared function was actually registered
// by kernel_init. A kernel that declares more than it registers is a
// build defect in the kernel itself and fails the load (spec §4.K).
func (m *Manager) reconcile(desc *Descriptor) error {
	for fname := range desc.DeclaredFunctions {
		if _, ok := desc.Table.Registry.Lookup(fname); !ok {
			return fmt.Errorf("kernel %q: declared function %q was never registered by KernelInit", desc.Name, fname)
		}
	}
	return nil
}

func (m *Manager) registerIntoContext(desc *Descriptor) {
	for fname, decl := range desc.DeclaredFunctions {
		sig := &check.Signature{
			ReturnType: mustResolveType(m.ctx, decl.ReturnType),
			Variadic:   decl.Variadic,
		}
		for _, pt := range decl.ParamTypes {
			sig.Parameters = append(sig.Parameters, mustResolveType(m.ctx, pt))
		}
		m.ctx.RegisterKernelFunc(desc.Name+"/"+fname, sig)
	}
	for formName, decl := range desc.DeclaredForms {
		elements := make([]check.TypeInfo, 0, len(decl.Elements))
		for _, et := range decl.Elements {
			elements = append(elements, mustResolveType(m.ctx, et))
		}
		m.ctx.RegisterForm(&check.FormDef{Name: formName, Elements: elements})
	}
}

func mustResolveType(ctx *check.Context, sym string) check.TypeInfo {
	ti, err := check.ResolveTypeSymbol(ctx, sym)
	if err != nil {
		return check.AnyType()
	}
	return ti
}

// LoadKernel loads name, discarding its descriptor — the shape
// internal/eval's KernelCaller interface expects, so the evaluator
// doesn't need to import internal/kernel's Descriptor type.
func (m *Manager) LoadKernel(name string) error {
	_, err := m.Load(name)
	return err
}

// CallFunction dispatches a qualified "kernel/name" call to the
// registered native implementation.
func (m *Manager) CallFunction(qualifiedName string, args []value.Value) (value.Value, error) {
	kernelName, fname, ok := strings.Cut(qualifiedName, "/")
	if !ok {
		return value.Value{}, fmt.Errorf("kernel: %q is not a qualified kernel/name call", qualifiedName)
	}
	m.mu.Lock()
	desc, ok := m.kernels[kernelName]
	m.mu.Unlock()
	if !ok {
		return value.Value{}, fmt.Errorf("kernel: %q is not loaded", kernelName)
	}
	if desc.State == Closed {
		return value.Value{}, fmt.Errorf("kernel %q is shut down", kernelName)
	}
	reg, ok := desc.Table.Registry.Lookup(fname)
	if !ok {
		return value.Value{}, fmt.Errorf("kernel %q: function %q is not registered", kernelName, fname)
	}
	return reg.Fn(args)
}

// Lookup returns the descriptor for an already-loaded kernel.
func (m *Manager) Lookup(name string) (*Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	desc, ok := m.kernels[name]
	return desc, ok
}

// Loaded returns the descriptors of every kernel currently loaded, in
// load order, for inspection by callers such as the CLI's kernels
// subcommand.
func (m *Manager) Loaded() []*Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	descs := make([]*Descriptor, 0, len(m.shutdownOrder))
	for _, name := range m.shutdownOrder {
		descs = append(descs, m.kernels[name])
	}
	return descs
}

// Shutdown tears every loaded kernel down in LIFO order. Go's plugin
// package offers no unload primitive, so "Closed" here means
// logically retired: its OnShutdown ran and CallFunction refuses
// further dispatch to it, but the dylib itself stays mapped for the
// process lifetime.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	order := append([]string(nil), m.shutdownOrder...)
	m.mu.Unlock()

	m.logger.Infof("kernel manager: shutting down %d kernel(s) in LIFO order", len(order))

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		m.mu.Lock()
		desc := m.kernels[name]
		m.mu.Unlock()
		if desc == nil || desc.State == Closed {
			continue
		}
		desc.State = Shutdown
		if desc.OnShutdown != nil {
			desc.OnShutdown(desc.Table)
		}
		desc.State = Closed
		m.logger.Debugf("kernel %q: shut down", name)
	}
}

// resolveKernelDir implements spec §4.K's resolution order: an
// absolute path is used as-is, then each include path joined with
// name, then the working directory joined with name — the first
// candidate containing a kernel.sxs wins.
func (m *Manager) resolveKernelDir(name string) (string, error) {
	if filepath.IsAbs(name) {
		if hasManifest(name) {
			return name, nil
		}
		return "", fmt.Errorf("kernel %q: absolute path has no kernel.sxs", name)
	}

	var tried []string
	for _, base := range m.includePaths {
		candidate := filepath.Join(base, name)
		tried = append(tried, candidate)
		if hasManifest(candidate) {
			return candidate, nil
		}
	}
	candidate := filepath.Join(m.workingDirectory, name)
	tried = append(tried, candidate)
	if hasManifest(candidate) {
		return candidate, nil
	}

	return "", fmt.Errorf("kernel %q: no kernel.sxs found, tried %s", name, strings.Join(tried, ", "))
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "kernel.sxs"))
	return err == nil && !info.IsDir()
}
