package gateway

import (
	"context"
	"strings"
)

// QueryResult is the discriminated outcome of executing SQL text.
// IsSelect selects the payload: Columns/Rows/RowCount/Truncated for reads,
// AffectedRows for writes.
type QueryResult struct {
	IsSelect bool

	// Read payload. RowCount is the post-truncation count.
	Columns   []string
	Rows      []map[string]any
	RowCount  int
	Truncated bool

	// Write payload.
	AffectedRows int64
}

// isReadQuery reports whether the statement should be executed on the read
// path. The rule is purely textual: the leading non-whitespace text,
// lower-cased, must begin with "select". Statements opened by a comment or
// a CTE are therefore treated as writes; the rule lives here so a SQL-aware
// classifier can replace it without touching callers.
func isReadQuery(query string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), "select")
}

// Execute runs SQL text against the connection identified by id. Read
// queries are fully materialized and then truncated to rowLimit rows when
// rowLimit > 0; rowLimit <= 0 means unlimited. Write statements report the
// driver's affected row count. Driver failures are returned as
// *ExecutionError; an unknown id yields *NotFoundError.
func (r *Registry) Execute(ctx context.Context, id, query string, params []any, rowLimit int) (*QueryResult, error) {
	entry, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !isReadQuery(query) {
		affected, err := entry.adapter.ExecWrite(ctx, query, params)
		if err != nil {
			return nil, &ExecutionError{Cause: err}
		}
		return &QueryResult{IsSelect: false, AffectedRows: affected}, nil
	}

	tab, err := entry.adapter.QueryRead(ctx, query, params)
	if err != nil {
		return nil, &ExecutionError{Cause: err}
	}

	rows := tab.Rows
	truncated := false
	if rowLimit > 0 && len(rows) > rowLimit {
		rows = rows[:rowLimit]
		truncated = true
	}

	return &QueryResult{
		IsSelect:  true,
		Columns:   tab.Columns,
		Rows:      rows,
		RowCount:  len(rows),
		Truncated: truncated,
	}, nil
}
