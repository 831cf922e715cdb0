// Package gateway implements the connection registry and query execution
// core: it creates, stores, looks up, and tears down database connections,
// snapshots their schema at connect time, and mediates every downstream SQL
// operation through the stored entry.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
	"github.com/gatestack-labs/sqlgate/pkg/dsn"
)

// ColumnSnapshot is the connect-time view of one column: name and the
// dialect-native type text.
type ColumnSnapshot struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Entry is the registry's record of one active connection. All exported
// fields are written once at connect time and never mutated afterwards;
// in particular the schema snapshot is never refreshed.
type Entry struct {
	// ID is a structurally unique identifier generated at connect time.
	// The redacted connection string is kept in Display as a label only,
	// so two connections that redact to the same text cannot collide.
	ID      string
	Display string
	Dialect dsn.Dialect

	// Tables and Schema are the connect-time snapshot; every name in
	// Tables has an entry in Schema.
	Tables []string
	Schema map[string][]ColumnSnapshot

	// mu serializes use of the underlying handle: the driver connection
	// is not guaranteed safe for parallel use.
	mu      sync.Mutex
	adapter adapter.Adapter
}

// Registry is an in-memory mapping from connection id to connection state.
// It is an explicitly constructed service object: callers own its lifetime
// and tests may run several independent registries side by side. All
// methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	logger  *slog.Logger
}

// New creates an empty registry.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
}

// Connect classifies the connection string, opens a connection through the
// dialect's adapter, snapshots the schema, and registers the resulting
// entry. On any failure no entry is stored and a *ConnectionError carrying
// the cause is returned.
func (r *Registry) Connect(ctx context.Context, connString string) (*Entry, error) {
	corrected, dialect := dsn.Classify(connString)
	display := dsn.Redact(connString)

	r.logger.Info("connecting to database",
		slog.String("target", display),
		slog.String("dialect", string(dialect)))

	if dialect == dsn.Unknown {
		r.logger.Warn("connection string matches no known dialect, attempting anyway",
			slog.String("target", display))
	}

	a, err := adapter.New(string(dialect), r.logger)
	if err != nil {
		return nil, &ConnectionError{Cause: err}
	}

	if err := a.Connect(ctx, corrected); err != nil {
		return nil, &ConnectionError{Cause: err}
	}

	tables, schema, err := snapshot(ctx, a)
	if err != nil {
		_ = a.Close()
		return nil, &ConnectionError{Cause: err}
	}

	entry := &Entry{
		ID:      uuid.NewString(),
		Display: display,
		Dialect: dialect,
		Tables:  tables,
		Schema:  schema,
		adapter: a,
	}

	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()

	r.logger.Info("connection registered",
		slog.String("id", entry.ID),
		slog.Int("tables", len(tables)))
	return entry, nil
}

// snapshot enumerates tables and their columns once, at connect time.
func snapshot(ctx context.Context, a adapter.Adapter) ([]string, map[string][]ColumnSnapshot, error) {
	tables, err := a.ListTables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to snapshot tables: %w", err)
	}

	schema := make(map[string][]ColumnSnapshot, len(tables))
	for _, table := range tables {
		cols, err := a.Columns(ctx, table)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to snapshot columns of %s: %w", table, err)
		}

		snap := make([]ColumnSnapshot, len(cols))
		for i, c := range cols {
			snap[i] = ColumnSnapshot{Name: c.Name, Type: c.Type}
		}
		schema[table] = snap
	}
	return tables, schema, nil
}

// Lookup returns the entry for the given id, or *NotFoundError.
func (r *Registry) Lookup(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return entry, nil
}

// Disconnect removes the entry and releases its handle. The entry is
// removed even when the close fails, so a second disconnect of the same id
// always reports *NotFoundError. The dialect of the closed connection is
// returned for display.
func (r *Registry) Disconnect(id string) (dsn.Dialect, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return "", &NotFoundError{ID: id}
	}

	// Wait for any in-flight operation before releasing the handle.
	entry.mu.Lock()
	err := entry.adapter.Close()
	entry.mu.Unlock()

	r.logger.Info("connection closed", slog.String("id", id))

	if err != nil {
		return entry.Dialect, &DisconnectError{Cause: err}
	}
	return entry.Dialect, nil
}

// List returns all active entries ordered by id.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Count returns the number of active entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close disconnects every remaining entry. Used at process shutdown.
func (r *Registry) Close() error {
	var firstErr error
	for _, e := range r.List() {
		if _, err := r.Disconnect(e.ID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
