package dataflow

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is the process-wide service locator (§4.1). Topics carry data;
// the registry carries capabilities — clocks, loggers, the pose predictor,
// a display sink — so plugins can discover each other without naming each
// other, and tests can swap an implementation without rewiring the bus.
//
// Registration is exclusive and expected only during initialization; lookup
// is shared and is the steady-state path.
type Registry struct {
	mu   sync.RWMutex
	svcs map[reflect.Type]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{svcs: make(map[reflect.Type]any)}
}

// serviceKey returns the stable identity used to key the registry: the
// reflect.Type of T itself, taken through a nil *T so that interface types
// yield their own type rather than a dynamic one. Using the interface's type
// (rather than the concrete implementation's type) is what lets a caller
// look a service up by the abstract capability it wants.
func serviceKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterService registers impl as the implementation of interface T.
// It fails if an entry already exists for T — registration is expected only
// during startup wiring, never as a runtime reconfiguration.
func RegisterService[T any](r *Registry, impl T) error {
	key := serviceKey[T]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.svcs[key]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, key)
	}
	r.svcs[key] = impl
	return nil
}

// LookupService returns the implementation registered for interface T, or
// ErrServiceNotRegistered. Callers are expected to look services up once
// during their own initialization and hold on to the result; a lookup miss
// is a startup-time programming error, not a condition to retry on.
func LookupService[T any](r *Registry) (T, error) {
	key := serviceKey[T]()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	svc, exists := r.svcs[key]
	if !exists {
		return zero, fmt.Errorf("%w: %s", ErrServiceNotRegistered, key)
	}
	return svc.(T), nil
}

// MustLookupService panics if T has not been registered. Startup errors in
// this core are meant to abort the process loudly (§7); this is the
// convenience entry point for wiring code that has no better recovery path.
func MustLookupService[T any](r *Registry) T {
	svc, err := LookupService[T](r)
	if err != nil {
		panic(err)
	}
	return svc
}
