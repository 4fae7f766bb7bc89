// Package resolver maps collection names to lazily built update handlers.
package resolver

import (
	"fmt"
	"sync"

	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
)

// Factory builds the handler of one collection.
type Factory func() (interfaces.IUpdateHandler, error)

// Declaration statically binds a collection name to its handler factory.
type Declaration struct {
	Name    string
	Factory Factory
}

// -----------------------------------------------------------------------------

type entry struct {
	mu      sync.Mutex
	handler interfaces.IUpdateHandler
}

// Resolver instantiates each handler at most once and caches it. Concurrent
// first resolutions of the same name share one instantiation; different names
// instantiate in parallel.
type Resolver struct {
	factories map[string]Factory
	logger    *logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// -----------------------------------------------------------------------------

func New(declarations []Declaration, l *logger.Logger) *Resolver {
	if l == nil {
		l = logger.NewNopLogger()
	}
	r := &Resolver{
		factories: make(map[string]Factory, len(declarations)),
		logger:    l,
		entries:   make(map[string]*entry),
	}
	for _, d := range declarations {
		if _, dup := r.factories[d.Name]; dup {
			l.Warning("Duplicate handler declaration for %s ignored", d.Name)
			continue
		}
		r.factories[d.Name] = d.Factory
	}
	return r
}

// -----------------------------------------------------------------------------

// Declared reports whether a factory exists for the name.
func (r *Resolver) Declared(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// -----------------------------------------------------------------------------

// Resolve returns the cached handler, building it on first use. Any failure
// yields false; failures are not cached.
func (r *Resolver) Resolve(name string) (interfaces.IUpdateHandler, bool) {
	h, err := r.resolve(name)
	if err != nil {
		r.logger.Warning("%v", err)
		return nil, false
	}
	return h, true
}

func (r *Resolver) resolve(name string) (interfaces.IUpdateHandler, error) {
	factory, ok := r.factories[name]
	if !ok || factory == nil {
		return nil, helpers.NewResolutionError(fmt.Sprintf("no handler declared for %s", name), nil)
	}

	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handler != nil {
		return e.handler, nil
	}

	h, err := build(factory)
	if err != nil {
		return nil, helpers.NewResolutionError(fmt.Sprintf("cannot build handler for %s", name), err)
	}
	if h == nil {
		return nil, helpers.NewResolutionError(fmt.Sprintf("factory for %s returned no handler", name), nil)
	}
	e.handler = h
	r.logger.Debug("Handler for %s instantiated", name)
	return h, nil
}

func build(factory Factory) (h interfaces.IUpdateHandler, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("factory panicked: %v", rec)
		}
	}()
	return factory()
}
