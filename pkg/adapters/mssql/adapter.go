// Package mssql provides a SQL Server adapter backed by microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
)

// Adapter implements adapter.Adapter for SQL Server databases.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQL Server adapter instance.
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
	return "mssql"
}

// Connect opens a SQL Server connection. The driver understands
// sqlserver:// URLs; the gateway's canonical mssql:// scheme is rewritten.
func (a *Adapter) Connect(ctx context.Context, connString string) error {
	dataSource := BuildDSN(connString)

	a.Logger.Debug("connecting to sqlserver")

	return a.OpenAndPing(ctx, "sqlserver", dataSource)
}

// BuildDSN rewrites the canonical mssql:// scheme to the sqlserver://
// scheme the driver expects. Other strings pass through unchanged.
func BuildDSN(connString string) string {
	lower := strings.ToLower(connString)
	if strings.HasPrefix(lower, "mssql://") {
		return "sqlserver://" + connString[len("mssql://"):]
	}
	return connString
}

// ListTables enumerates base tables in the dbo schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'dbo' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
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

// Columns reports column metadata from information_schema.
func (a *Adapter) Columns(ctx context.Context, table string) ([]adapter.Column, error) {
	pk, err := a.PrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]struct{}, len(pk))
	for _, name := range pk {
		pkSet[name] = struct{}{}
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'dbo' AND table_name = @p1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var name, colType, nullable string
		var dflt sql.NullString

		if err := rows.Scan(&name, &colType, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}

		_, isPK := pkSet[name]
		columns = append(columns, adapter.Column{
			Name:       name,
			Type:       colType,
			Nullable:   nullable == "YES",
			Default:    dflt.String,
			PrimaryKey: isPK,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// PrimaryKey reports primary-key columns in key order.
func (a *Adapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = 'dbo'
			AND tc.table_name = @p1
		ORDER BY kcu.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// ForeignKeys reports foreign-key constraints from the sys catalog views.
func (a *Adapter) ForeignKeys(ctx context.Context, table string) ([]adapter.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT
			fk.name,
			pc.name AS column_name,
			rt.name AS referenced_table,
			rc.name AS referenced_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables pt ON fkc.parent_object_id = pt.object_id
		JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
		JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
		JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
		WHERE pt.name = @p1
		ORDER BY fk.name`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var fks []adapter.ForeignKey
	for rows.Next() {
		var fk adapter.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", table, err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// Indexes reports indexes from the sys catalog views.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]adapter.Index, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT i.name, i.is_unique, c.name AS column_name
		FROM sys.indexes i
		JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		JOIN sys.tables t ON i.object_id = t.object_id
		WHERE t.name = @p1 AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []adapter.Index
	byName := make(map[string]int)
	for rows.Next() {
		var name, column string
		var unique bool

		if err := rows.Scan(&name, &unique, &column); err != nil {
			return nil, fmt.Errorf("failed to scan index of %s: %w", table, err)
		}

		if i, ok := byName[name]; ok {
			indexes[i].Columns = append(indexes[i].Columns, column)
			continue
		}
		byName[name] = len(indexes)
		indexes = append(indexes, adapter.Index{
			Name:    name,
			Columns: []string{column},
			Unique:  unique,
		})
	}
	return indexes, rows.Err()
}

// CountRows overrides the base implementation with bracket quoting.
func (a *Adapter) CountRows(ctx context.Context, table string) (int64, error) {
	if a.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	quoted := "[" + strings.ReplaceAll(table, "]", "]]") + "]"
	var count int64
	if err := a.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
