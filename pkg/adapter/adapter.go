// Package adapter defines the driver capability contract the gateway uses
// to talk to a SQL backend, together with a database/sql base implementation
// shared by the concrete adapters in pkg/adapters/.
package adapter

import "context"

// Column describes one column of a table as reported by the backend.
// Type is the dialect-native textual type; callers must not assume
// cross-dialect comparability.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"is_primary_key"`
}

// ForeignKey describes a single-column foreign key constraint.
type ForeignKey struct {
	Name             string `json:"name,omitempty"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Index describes an index on a table.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Unique  bool     `json:"unique"`
}

// Tabular holds a fully materialized read-query result.
type Tabular struct {
	Columns []string
	Rows    []map[string]any
}

// Adapter is the per-dialect driver capability. An adapter owns exactly one
// live connection handle between Connect and Close; the gateway serializes
// access per adapter, so implementations need not be safe for concurrent use.
type Adapter interface {
	// DialectName returns the dialect this adapter serves (a dsn.Dialect value).
	DialectName() string

	// Connect opens and verifies a connection using a canonical connection
	// string for this dialect.
	Connect(ctx context.Context, connString string) error

	// Close releases the connection. Safe to call when never connected.
	Close() error

	// ListTables enumerates table names in a stable order.
	ListTables(ctx context.Context) ([]string, error)

	// Columns reports column metadata for a table in definition order.
	Columns(ctx context.Context, table string) ([]Column, error)

	// PrimaryKey reports the primary-key column names of a table.
	PrimaryKey(ctx context.Context, table string) ([]string, error)

	// ForeignKeys reports the foreign-key constraints of a table.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)

	// Indexes reports the indexes on a table.
	Indexes(ctx context.Context, table string) ([]Index, error)

	// CountRows returns the live row count of a table.
	CountRows(ctx context.Context, table string) (int64, error)

	// QueryRead executes a row-returning statement and materializes the
	// full result set.
	QueryRead(ctx context.Context, query string, params []any) (*Tabular, error)

	// ExecWrite executes a statement that returns no rows and reports the
	// affected row count.
	ExecWrite(ctx context.Context, query string, params []any) (int64, error)
}
