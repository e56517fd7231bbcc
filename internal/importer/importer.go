// Package importer implements the import subsystem of spec §4.I:
// resolving a path to a sibling program, evaluating it once with its
// own frozen top-level scope, and exposing whatever it `export`ed.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/eval"
	"github.com/sxslang/sxs/internal/lexsxs"
	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/value"
)

// EvaluatorFactory builds a fresh Evaluator for an imported file,
// sharing the importing program's check.Context and value.Builder so
// ABERRANT ids and values line up, but otherwise independent (its own
// root scope). Supplied by whatever wires internal/eval and
// internal/importer together (pkg/sxs), since importer must not
// import eval's construction options directly to stay a thin
// dependency of eval.Importer.
type EvaluatorFactory func(ctx *check.Context, b *value.Builder) *eval.Evaluator

// Manager resolves and caches imports by absolute path, detecting
// cycles via an in-progress set (spec §4.I's "a module currently being
// imported that is imported again is a failure, not a deadlock").
type Manager struct {
	mu           sync.Mutex
	searchPaths  []string
	loaded       map[string]map[string]value.Value
	loading      map[string]bool
	ctx          *check.Context
	builder      *value.Builder
	makeEval     EvaluatorFactory
}

// NewManager creates a Manager resolving relative import paths
// against searchPaths in order, sharing ctx/b with the importing
// program, and building imported-file evaluators via makeEval.
func NewManager(ctx *check.Context, b *value.Builder, makeEval EvaluatorFactory, searchPaths ...string) *Manager {
	return &Manager{
		searchPaths: searchPaths,
		loaded:      make(map[string]map[string]value.Value),
		loading:     make(map[string]bool),
		ctx:         ctx,
		builder:     b,
		makeEval:    makeEval,
	}
}

// Import resolves path, evaluates it (once; cached after), and
// returns its exported bindings.
func (m *Manager) Import(path string) (map[string]value.Value, error) {
	resolved, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if exports, ok := m.loaded[resolved]; ok {
		m.mu.Unlock()
		return exports, nil
	}
	if m.loading[resolved] {
		m.mu.Unlock()
		return nil, fmt.Errorf("importer: import cycle detected at %s", resolved)
	}
	m.loading[resolved] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.loading, resolved)
		m.mu.Unlock()
	}()

	src, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read %s: %w", resolved, err)
	}

	p := parser.New(lexsxs.NewFromString(string(src)), m.builder)
	forms, err := p.ParseAll()
	if err != nil {
		return nil, fmt.Errorf("importer: failed to parse %s: %w", resolved, err)
	}

	ev := m.makeEval(m.ctx, m.builder)
	scope := ev.RootScope()
	for _, form := range forms {
		result, err := ev.EvalTopLevel(scope, form)
		if err != nil {
			return nil, fmt.Errorf("importer: failed to evaluate %s: %w", resolved, err)
		}
		if result.Type() == value.TagError {
			return nil, fmt.Errorf("importer: %s raised %s while importing", resolved, result.String())
		}
	}

	exports := ev.Exports()
	m.mu.Lock()
	m.loaded[resolved] = exports
	m.mu.Unlock()
	return exports, nil
}

func (m *Manager) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, nil
		}
		return "", fmt.Errorf("importer: %s does not exist", path)
	}
	for _, base := range m.searchPaths {
		candidate := filepath.Join(base, path)
		if fileExists(candidate) {
			return filepath.Clean(candidate), nil
		}
	}
	return "", fmt.Errorf("importer: could not resolve %q against search paths %v", path, m.searchPaths)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

var _ eval.Importer = (*Manager)(nil)
