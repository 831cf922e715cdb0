package gateway

import (
	"context"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
)

// TableDescription is the on-demand detailed view of one table. Unlike the
// connect-time snapshot, every field is freshly fetched.
type TableDescription struct {
	Table       string               `json:"table_name"`
	Columns     []adapter.Column     `json:"columns"`
	PrimaryKeys []string             `json:"primary_keys"`
	ForeignKeys []adapter.ForeignKey `json:"foreign_keys"`
	Indexes     []adapter.Index      `json:"indexes"`
	RowCount    int64                `json:"row_count"`
}

// Describe fetches fresh column, key, index, and row-count information for
// a table. Failures (missing table, permission denied) are returned as
// *IntrospectionError and leave the registry entry untouched.
func (r *Registry) Describe(ctx context.Context, id, table string) (*TableDescription, error) {
	entry, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	columns, err := entry.adapter.Columns(ctx, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Cause: err}
	}

	pk, err := entry.adapter.PrimaryKey(ctx, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Cause: err}
	}

	fks, err := entry.adapter.ForeignKeys(ctx, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Cause: err}
	}

	indexes, err := entry.adapter.Indexes(ctx, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Cause: err}
	}

	count, err := entry.adapter.CountRows(ctx, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Cause: err}
	}

	return &TableDescription{
		Table:       table,
		Columns:     columns,
		PrimaryKeys: pk,
		ForeignKeys: fks,
		Indexes:     indexes,
		RowCount:    count,
	}, nil
}
