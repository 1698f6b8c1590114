package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Factory builds the adapter for one provider. It is called at most once per
// Registry.
type Factory func() Provider

// Registry maps provider names to a single long-lived adapter each.
// Adapters are built lazily on first Get and never replaced.
type Registry struct {
	mu        sync.Mutex
	factories map[Name]Factory
	instances map[Name]Provider
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Name]Factory),
		instances: make(map[Name]Provider),
	}
}

// Register adds a factory under name.
func (r *Registry) Register(name Name, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("provider %s: %w", name, errNilProviderFactory)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %s: %w", name, errDuplicateProvider)
	}
	r.factories[name] = factory
	return nil
}

// Get returns the adapter for name, building it on first use. Concurrent
// first calls construct exactly one instance.
func (r *Registry) Get(name Name) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.instances[name]; ok {
		return p, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	p := factory()
	r.instances[name] = p
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]Name, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// InitializeAll resolves and initializes the named adapters concurrently.
// Every name is resolved before any adapter starts. The first failure cancels the context handed to the others and is returned.
func (r *Registry) InitializeAll(ctx context.Context, names ...Name) error {
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Get(name)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			return p.Initialize(gctx)
		})
	}
	return g.Wait()
}
