package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves an adapter factory by dialect name.
func Get(name string) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a new adapter instance for the given dialect name.
// The logger parameter is passed to the adapter constructor (nil uses a
// discard logger).
func New(dialect string, logger *slog.Logger) (Adapter, error) {
	if dialect == "" {
		return nil, fmt.Errorf("dialect not specified")
	}

	factory, ok := Get(dialect)
	if !ok {
		return nil, &UnknownDialectError{
			Dialect:   dialect,
			Available: List(),
		}
	}
	return factory(logger), nil
}

// List returns all registered dialect names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a dialect has a registered adapter.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownDialectError is returned when no adapter serves a dialect.
type UnknownDialectError struct {
	Dialect   string
	Available []string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("no adapter registered for dialect %q (available: %v)", e.Dialect, e.Available)
}
