// Package mysql provides a MySQL adapter backed by go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
)

// Adapter implements adapter.Adapter for MySQL databases.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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
	return "mysql"
}

// Connect opens a MySQL connection from a mysql:// URL.
func (a *Adapter) Connect(ctx context.Context, connString string) error {
	dataSource, err := BuildDSN(connString)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to mysql")

	return a.OpenAndPing(ctx, "mysql", dataSource)
}

// BuildDSN converts a mysql:// URL into the go-sql-driver DSN format
// user:password@tcp(host:port)/database.
func BuildDSN(connString string) (string, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return "", fmt.Errorf("invalid mysql connection string: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	var creds string
	if u.User != nil {
		creds = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			creds += ":" + pw
		}
		creds += "@"
	}

	database := strings.TrimPrefix(u.Path, "/")

	dsn := fmt.Sprintf("%stcp(%s:%s)/%s", creds, host, port, database)
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn, nil
}

// ListTables enumerates tables of the current database.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
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
	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable, column_default, column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var name, colType, nullable, key string
		var dflt sql.NullString

		if err := rows.Scan(&name, &colType, &nullable, &dflt, &key); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}

		columns = append(columns, adapter.Column{
			Name:       name,
			Type:       colType,
			Nullable:   nullable == "YES",
			Default:    dflt.String,
			PrimaryKey: key == "PRI",
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
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, table)
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

// ForeignKeys reports foreign-key constraints from key_column_usage.
func (a *Adapter) ForeignKeys(ctx context.Context, table string) ([]adapter.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`, table)
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

// Indexes reports indexes from information_schema.statistics.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]adapter.Index, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT index_name, non_unique, column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []adapter.Index
	byName := make(map[string]int)
	for rows.Next() {
		var name, column string
		var nonUnique int

		if err := rows.Scan(&name, &nonUnique, &column); err != nil {
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
			Unique:  nonUnique == 0,
		})
	}
	return indexes, rows.Err()
}

// CountRows overrides the base implementation with backtick quoting.
func (a *Adapter) CountRows(ctx context.Context, table string) (int64, error) {
	if a.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	quoted := "`" + strings.ReplaceAll(table, "`", "``") + "`"
	var count int64
	if err := a.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
