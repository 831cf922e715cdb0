package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, CountRows, QueryRead, and ExecWrite implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// OpenAndPing opens a database/sql handle for the given driver and DSN and
// verifies it with a ping. On ping failure the handle is closed before the
// error is returned.
func (b *BaseSQLAdapter) OpenAndPing(ctx context.Context, driverName, dataSource string) error {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driverName, err)
	}

	b.DB = db
	return nil
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// QueryRead executes a row-returning statement and materializes the full
// result set into a Tabular. Byte slices are converted to strings so results
// serialize cleanly.
func (b *BaseSQLAdapter) QueryRead(ctx context.Context, query string, params []any) (*Tabular, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := b.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return CollectRows(rows)
}

// ExecWrite executes a statement that returns no rows and reports the
// affected row count. Drivers that cannot report an affected count yield 0.
func (b *BaseSQLAdapter) ExecWrite(ctx context.Context, query string, params []any) (int64, error) {
	if b.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	res, err := b.DB.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// CountRows returns the live row count of a table.
func (b *BaseSQLAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	if b.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdentifier(table))
	var count int64
	if err := b.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// CollectRows drains a sql.Rows into a Tabular, preserving column order.
func CollectRows(rows *sql.Rows) (*Tabular, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &Tabular{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// QuoteIdentifier quotes a table name with double quotes, doubling any
// embedded quote. ANSI quoting works for every supported backend except
// MySQL, which accepts it in ANSI_QUOTES mode; the MySQL adapter overrides
// CountRows with backtick quoting.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
