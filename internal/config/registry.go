package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/worldstate/internal/store"
)

// ErrDriverNotRegistered is returned by [Registry.CreateStore] when no
// factory has been registered under the requested driver name.
var ErrDriverNotRegistered = errors.New("config: store driver not registered")

// StoreFactory opens a store for cfg.
type StoreFactory func(ctx context.Context, cfg StoreConfig) (store.Store, error)

// Registry maps store driver names to their constructors. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]StoreFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]StoreFactory)}
}

// RegisterStore registers a store factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterStore(name string, factory StoreFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = factory
}

// CreateStore opens a store using the factory registered under cfg.Driver.
// Returns [ErrDriverNotRegistered] if no factory has been registered.
func (r *Registry) CreateStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	r.mu.RLock()
	factory, ok := r.stores[cfg.Driver]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDriverNotRegistered, cfg.Driver)
	}
	return factory(ctx, cfg)
}

// StoreDrivers returns the registered driver names in sorted order.
func (r *Registry) StoreDrivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.stores))
}
