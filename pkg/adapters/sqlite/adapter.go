// Package sqlite provides a SQLite adapter backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
)

// Adapter implements adapter.Adapter for SQLite databases.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the dialect this adapter serves.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens the database file named by the connection string.
func (a *Adapter) Connect(ctx context.Context, connString string) error {
	path := FilePath(connString)

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	return a.OpenAndPing(ctx, "sqlite", path)
}

// FilePath extracts the database file path from a sqlite connection string.
// Three slashes denote a relative path, four an absolute one, matching the
// common sqlite:// URL convention. Bare paths pass through unchanged.
func FilePath(connString string) string {
	rest, ok := strings.CutPrefix(connString, "sqlite://")
	if !ok {
		return connString
	}
	// "sqlite:///x" is the relative path "x"; "sqlite:////x" is "/x".
	if len(rest) > 0 && rest[0] == '/' {
		rest = rest[1:]
	}
	return rest
}

// ListTables enumerates user tables via sqlite_master.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns reports column metadata via PRAGMA table_info.
func (a *Adapter) Columns(ctx context.Context, table string) ([]adapter.Column, error) {
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}

		columns = append(columns, adapter.Column{
			Name:       name,
			Type:       colType,
			Nullable:   notNull == 0,
			Default:    dflt.String,
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// PRAGMA table_info returns no rows for a missing table instead of
	// failing; surface that as an error.
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// PrimaryKey reports primary-key columns in key order.
func (a *Adapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	// pk column holds the 1-based position within the key, 0 for non-key.
	type keyCol struct {
		name string
		pos  int
	}
	var keyCols []keyCol
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		if pk > 0 {
			keyCols = append(keyCols, keyCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(keyCols))
	for _, kc := range keyCols {
		names[kc.pos-1] = kc.name
	}
	return names, nil
}

// ForeignKeys reports foreign-key constraints via PRAGMA foreign_key_list.
func (a *Adapter) ForeignKeys(ctx context.Context, table string) ([]adapter.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var fks []adapter.ForeignKey
	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", table, err)
		}

		fks = append(fks, adapter.ForeignKey{
			Column:           from,
			ReferencedTable:  refTable,
			ReferencedColumn: to.String,
		})
	}
	return fks, rows.Err()
}

// Indexes reports indexes via PRAGMA index_list and index_info.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]adapter.Index, error) {
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}

	type indexEntry struct {
		name   string
		unique bool
	}
	var entries []indexEntry
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan index of %s: %w", table, err)
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	var indexes []adapter.Index
	for _, e := range entries {
		cols, err := a.indexColumns(ctx, e.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, adapter.Index{
			Name:    e.name,
			Columns: cols,
			Unique:  e.unique,
		})
	}
	return indexes, nil
}

func (a *Adapter) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quote(index)))
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString

		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index %s: %w", index, err)
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}

// quote wraps an identifier for PRAGMA calls, which cannot use placeholders.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
