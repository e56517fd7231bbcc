package sxs

import (
	"time"

	"github.com/sxslang/sxs/internal/kvstore"
	"github.com/sxslang/sxs/internal/logging"
)

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithSQLiteStore configures on-disk persistence at path for entity
// state (spec §6.5). The store is closed by Runtime.Close.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := kvstore.NewSQLite(path)
		if err == nil {
			r.store = s
			r.closeStore = true
		}
	}
}

// WithMemoryStore configures an in-memory kvstore; this is also the
// default when no store option is given.
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = kvstore.NewMemory()
		r.closeStore = true
	}
}

// WithStore attaches a caller-provided kvstore.Store, left open by
// Runtime.Close (the caller owns its lifecycle).
func WithStore(s kvstore.Store) Option {
	return func(r *Runtime) { r.store = s }
}

// WithWorkingDirectory sets the directory relative kernel/import
// paths resolve against.
func WithWorkingDirectory(dir string) Option {
	return func(r *Runtime) { r.workingDirectory = dir }
}

// WithIncludePaths sets the kernel/import search path list, tried in
// order before falling back to the working directory.
func WithIncludePaths(paths ...string) Option {
	return func(r *Runtime) { r.includePaths = paths }
}

// WithLogger attaches a structured logger shared by the kernel
// manager, event bus, and sessions this runtime opens.
func WithLogger(l logging.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithShutdownTimeout bounds how long Close waits for the event bus
// to drain before giving up.
func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runtime) { r.shutdownTimeout = d }
}
