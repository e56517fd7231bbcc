// Package sxs is the embeddable facade over the runtime: one call to
// New wires the value store, the shared check.Context, kernel manager,
// importer, event bus, and session layer together and hands back a
// Runtime ready to evaluate source text. Eval hands parsed forms
// straight to the evaluator; no static check pass runs.
package sxs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sxslang/sxs/internal/bus"
	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/eval"
	"github.com/sxslang/sxs/internal/importer"
	"github.com/sxslang/sxs/internal/kernel"
	"github.com/sxslang/sxs/internal/kvstore"
	"github.com/sxslang/sxs/internal/lexsxs"
	"github.com/sxslang/sxs/internal/logging"
	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/session"
	"github.com/sxslang/sxs/internal/value"
)

// DefaultShutdownTimeout bounds how long Close waits for the event
// bus to drain before giving up (spec §5's shutdown ordering).
const DefaultShutdownTimeout = 5 * time.Second

// Runtime is the embeddable sxs interpreter: construct with New,
// evaluate with Eval/EvalFile, and always Close when done so the bus,
// evaluator, importer, and kernel manager tear down in the spec's
// mandated LIFO order.
type Runtime struct {
	ctx       *check.Context
	builder   *value.Builder
	store     kvstore.Store
	bus       *bus.Bus
	kernels   *kernel.Manager
	imports   *importer.Manager
	entities  *session.Entities
	evaluator *eval.Evaluator
	scope     *eval.Scope
	logger    logging.Logger

	workingDirectory string
	includePaths     []string
	shutdownTimeout  time.Duration
	closeStore       bool
}

// New builds a Runtime from opts, defaulting to an in-memory kvstore,
// a working directory of ".", and the default shutdown timeout.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		workingDirectory: ".",
		shutdownTimeout:  DefaultShutdownTimeout,
		logger:           logging.New(nil),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.store == nil {
		r.store = kvstore.NewMemory()
	}

	r.builder = value.NewBuilder()
	r.ctx = check.NewContext()
	r.entities = session.NewEntities(r.store, r.builder)
	r.bus = bus.New(bus.WithLogger(r.logger))

	// evaluator and kernel manager are mutually referential: the
	// kernel manager's ABI table needs an EvalCallback that calls back
	// into the evaluator, and the evaluator needs the kernel manager
	// as its KernelCaller. evalCB closes over a pointer assigned once
	// the evaluator exists below, the same forward-reference trick the
	// teacher's ABI/callback style (its own facade's ProviderFactory)
	// relies on to break the same circularity.
	var ev *eval.Evaluator
	evalCB := func(v value.Value) (value.Value, error) {
		return ev.Eval(r.scope, v)
	}
	r.kernels = kernel.NewManager(r.ctx, r.builder, evalCB, r.workingDirectory, r.includePaths...).WithLogger(r.logger)

	// factory closes over r.imports, which is assigned just below: an
	// imported file's own evaluator needs the same importer so that a
	// transitive `#(import ...)` inside it resolves too, rather than
	// raising "no importer configured".
	factory := func(ctx *check.Context, b *value.Builder) *eval.Evaluator {
		return eval.New(ctx, b,
			eval.WithKernels(r.kernels),
			eval.WithImporter(r.imports),
			eval.WithWorkingDirectory(r.workingDirectory),
		)
	}
	// Imports resolve like kernels: include paths in order, then the
	// working directory.
	importPaths := append(append([]string(nil), r.includePaths...), r.workingDirectory)
	r.imports = importer.NewManager(r.ctx, r.builder, factory, importPaths...)

	ev = eval.New(r.ctx, r.builder,
		eval.WithKernels(r.kernels),
		eval.WithImporter(r.imports),
		eval.WithWorkingDirectory(r.workingDirectory),
	)
	r.evaluator = ev
	r.scope = ev.RootScope()

	return r, nil
}

// Eval parses and evaluates every top-level form in src against the
// runtime's persistent root scope, returning the last form's result
// serialized back to source text (spec §8's round-trip invariant).
func (r *Runtime) Eval(src string) (string, error) {
	p := parser.New(lexsxs.NewFromString(src), r.builder)
	forms, err := p.ParseAll()
	if err != nil {
		return "", fmt.Errorf("sxs: parse error: %w", err)
	}
	if len(forms) == 0 {
		return "", nil
	}

	var last value.Value
	for _, form := range forms {
		v, err := r.evaluator.EvalTopLevel(r.scope, form)
		if err != nil {
			return "", fmt.Errorf("sxs: eval error: %w", err)
		}
		last = v
	}
	return last.String(), nil
}

// EvalReader evaluates every form read from r.
func (r *Runtime) EvalReader(reader io.Reader) (string, error) {
	src, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return r.Eval(string(src))
}

// EvalFile evaluates every form in the file at path.
func (r *Runtime) EvalFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return r.EvalReader(f)
}

// LoadKernel loads the named kernel (spec §4.K), making its
// `kernel/fn` calls available to subsequent Eval calls.
func (r *Runtime) LoadKernel(name string) error {
	_, err := r.kernels.Load(name)
	return err
}

// LoadedKernels returns the descriptors of every kernel currently
// loaded, in load order.
func (r *Runtime) LoadedKernels() []*kernel.Descriptor { return r.kernels.Loaded() }

// Entities exposes the session/entity registry so embedders can grant
// permissions and rate budgets before opening sessions.
func (r *Runtime) Entities() *session.Entities { return r.entities }

// Bus exposes the event bus so embedders can register consumers.
func (r *Runtime) Bus() *bus.Bus { return r.bus }

// NewSession opens a Session for an entity id, creating the entity
// with default (unlimited, no grants) settings on first reference.
func (r *Runtime) NewSession(sessionID, entityID string) (*session.Session, error) {
	entity, err := r.entities.GetOrCreate(entityID)
	if err != nil {
		return nil, err
	}
	return session.NewSession(sessionID, entity, r.bus).WithLogger(r.logger), nil
}

// Close tears the runtime down in the LIFO order spec §5 mandates:
// event bus drain, then evaluator drop, then import manager drop,
// then kernel manager drop, finally closing the backing store.
func (r *Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := r.bus.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	r.evaluator = nil
	r.imports = nil
	r.kernels.Shutdown()

	if r.closeStore {
		if err := r.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
