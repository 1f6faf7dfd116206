// Package registry implements spec.md §4.3's two independent
// keyed builder registries. Adapted from lsmdb's pkg/cluster/router.go,
// whose ClientFactory-behind-a-RWMutex shape is exactly a single-key
// registry; this generalizes it to name-keyed and catalog-keyed maps
// with duplicate/unknown semantics.
//
// Unlike the source this is modeled on (spec.md §9's "Registry
// globalness" redesign flag), a Registry here is an explicitly
// constructed value, not a package-level singleton, so tests build
// their own isolated instance instead of clearing shared state.
package registry

import (
	"context"
	"fmt"
	"sync"

	"commitcoord/pkg/cerrors"
)

// Builder constructs a Client from configuration. conf is opaque to
// the registry; it is whatever the caller's coordinator-builder needs.
type Builder[Config any, Client any] func(conf Config) (Client, error)

// CatalogBuilder constructs a Client bound to a named catalog.
type CatalogBuilder[Client any] func(ctx context.Context, catalogName string) (Client, error)

// Registry holds two independent keyed builder maps: by name, and by
// catalog. Both are guarded by their own mutex, matching spec.md §5's
// "registries serialize registration and lookup under a single mutex
// per registry".
type Registry[Config any, Client any] struct {
	namesMu sync.Mutex
	names   map[string]Builder[Config, Client]
	seeded  map[string]bool

	catalogsMu sync.Mutex
	catalogs   map[string]CatalogBuilder[Client]
}

// New constructs a Registry pre-populated with seed, the way the
// source installs an initial builder list at process start. Seed
// entries are exempt from ClearNonSeed.
func New[Config any, Client any](seed map[string]Builder[Config, Client]) *Registry[Config, Client] {
	r := &Registry[Config, Client]{
		names:    make(map[string]Builder[Config, Client]),
		seeded:   make(map[string]bool),
		catalogs: make(map[string]CatalogBuilder[Client]),
	}
	for name, b := range seed {
		r.names[name] = b
		r.seeded[name] = true
	}
	return r
}

// Register adds a name-keyed builder. Registering the same name twice
// fails with ErrAlreadyRegistered.
func (r *Registry[Config, Client]) Register(name string, b Builder[Config, Client]) error {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()

	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %q", cerrors.ErrAlreadyRegistered, name)
	}
	r.names[name] = b
	return nil
}

// Get looks up a name-keyed builder and invokes it. Fails with
// ErrUnknownCoordinator for an unregistered name.
func (r *Registry[Config, Client]) Get(name string, conf Config) (Client, error) {
	b, ok := r.builder(name)
	if !ok {
		var zero Client
		return zero, fmt.Errorf("%w: %q", cerrors.ErrUnknownCoordinator, name)
	}
	return b(conf)
}

// GetOpt is Get's absence-returning variant: an unknown name yields
// (zero, false, nil) instead of an error.
func (r *Registry[Config, Client]) GetOpt(name string, conf Config) (Client, bool, error) {
	b, ok := r.builder(name)
	if !ok {
		var zero Client
		return zero, false, nil
	}
	client, err := b(conf)
	return client, true, err
}

func (r *Registry[Config, Client]) builder(name string) (Builder[Config, Client], bool) {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()
	b, ok := r.names[name]
	return b, ok
}

// RegisteredNames lists every name-keyed builder currently registered.
func (r *Registry[Config, Client]) RegisteredNames() []string {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	return names
}

// ClearNonSeed removes every name-keyed builder that was not part of
// the seed list passed to New. Test-only affordance.
func (r *Registry[Config, Client]) ClearNonSeed() {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()
	for name := range r.names {
		if !r.seeded[name] {
			delete(r.names, name)
		}
	}
}

// ClearAll removes every name-keyed builder, seeded or not. Test-only
// affordance.
func (r *Registry[Config, Client]) ClearAll() {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()
	r.names = make(map[string]Builder[Config, Client])
}

// RegisterCatalog adds a catalog-keyed builder. Registering the same
// catalog name twice fails with ErrAlreadyRegistered.
func (r *Registry[Config, Client]) RegisterCatalog(catalogName string, b CatalogBuilder[Client]) error {
	r.catalogsMu.Lock()
	defer r.catalogsMu.Unlock()

	if _, exists := r.catalogs[catalogName]; exists {
		return fmt.Errorf("%w: %q", cerrors.ErrAlreadyRegistered, catalogName)
	}
	r.catalogs[catalogName] = b
	return nil
}

// GetCatalog looks up a catalog-keyed builder and invokes it.
func (r *Registry[Config, Client]) GetCatalog(ctx context.Context, catalogName string) (Client, error) {
	b, ok := r.catalogBuilder(catalogName)
	if !ok {
		var zero Client
		return zero, fmt.Errorf("%w: %q", cerrors.ErrUnknownCoordinator, catalogName)
	}
	return b(ctx, catalogName)
}

// GetCatalogOpt is GetCatalog's absence-returning variant.
func (r *Registry[Config, Client]) GetCatalogOpt(ctx context.Context, catalogName string) (Client, bool, error) {
	b, ok := r.catalogBuilder(catalogName)
	if !ok {
		var zero Client
		return zero, false, nil
	}
	client, err := b(ctx, catalogName)
	return client, true, err
}

func (r *Registry[Config, Client]) catalogBuilder(catalogName string) (CatalogBuilder[Client], bool) {
	r.catalogsMu.Lock()
	defer r.catalogsMu.Unlock()
	b, ok := r.catalogs[catalogName]
	return b, ok
}

// RegisteredCatalogs lists every catalog-keyed builder currently
// registered.
func (r *Registry[Config, Client]) RegisteredCatalogs() []string {
	r.catalogsMu.Lock()
	defer r.catalogsMu.Unlock()
	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}
	return names
}
