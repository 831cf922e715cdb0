// Package oracle provides an Oracle adapter backed by godror.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"
)

// Adapter implements adapter.Adapter for Oracle databases.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Oracle adapter instance.
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
	return "oracle"
}

// Connect opens an Oracle connection from an oracle:// URL.
func (a *Adapter) Connect(ctx context.Context, connString string) error {
	dataSource, err := BuildDSN(connString)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to oracle")

	return a.OpenAndPing(ctx, "godror", dataSource)
}

// BuildDSN converts an oracle:// URL into the godror parameter form
// user="..." password="..." connectString="host:port/service".
func BuildDSN(connString string) (string, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return "", fmt.Errorf("invalid oracle connection string: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "1521"
	}
	service := strings.TrimPrefix(u.Path, "/")

	var user, password string
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}

	return fmt.Sprintf(`user=%q password=%q connectString=%q`,
		user, password, fmt.Sprintf("%s:%s/%s", host, port, service)), nil
}

// ListTables enumerates tables owned by the connected user.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT table_name FROM user_tables ORDER BY table_name`)
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

// Columns reports column metadata from USER_TAB_COLUMNS.
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
		SELECT column_name, data_type, nullable, data_default
		FROM user_tab_columns
		WHERE table_name = UPPER(:1)
		ORDER BY column_id`, table)
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
			Nullable:   nullable == "Y",
			Default:    strings.TrimSpace(dflt.String),
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
		SELECT cc.column_name
		FROM user_constraints c
		JOIN user_cons_columns cc ON c.constraint_name = cc.constraint_name
		WHERE c.constraint_type = 'P' AND c.table_name = UPPER(:1)
		ORDER BY cc.position`, table)
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

// ForeignKeys reports foreign-key constraints from the USER_CONSTRAINTS views.
func (a *Adapter) ForeignKeys(ctx context.Context, table string) ([]adapter.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT c.constraint_name, cc.column_name, rc.table_name, rcc.column_name
		FROM user_constraints c
		JOIN user_cons_columns cc ON c.constraint_name = cc.constraint_name
		JOIN user_constraints rc ON c.r_constraint_name = rc.constraint_name
		JOIN user_cons_columns rcc ON rc.constraint_name = rcc.constraint_name
			AND rcc.position = cc.position
		WHERE c.constraint_type = 'R' AND c.table_name = UPPER(:1)
		ORDER BY c.constraint_name, cc.position`, table)
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

// Indexes reports indexes from USER_INDEXES and USER_IND_COLUMNS.
func (a *Adapter) Indexes(ctx context.Context, table string) ([]adapter.Index, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT i.index_name, i.uniqueness, ic.column_name
		FROM user_indexes i
		JOIN user_ind_columns ic ON i.index_name = ic.index_name
		WHERE i.table_name = UPPER(:1)
		ORDER BY i.index_name, ic.column_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []adapter.Index
	byName := make(map[string]int)
	for rows.Next() {
		var name, uniqueness, column string

		if err := rows.Scan(&name, &uniqueness, &column); err != nil {
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
			Unique:  uniqueness == "UNIQUE",
		})
	}
	return indexes, rows.Err()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
