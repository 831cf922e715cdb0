package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gatestack-labs/sqlgate/internal/render"
)

const (
	schemaURIPrefix = "sql://schema/"
	queryURIPrefix  = "sql://query/"
	tableURIPrefix  = "sql://table/"
)

func (s *Server) handleListResources() (*ListResourcesResult, *Error) {
	entries := s.registry.List()

	resources := make([]Resource, 0, len(entries))
	for _, e := range entries {
		resources = append(resources, Resource{
			URI:      schemaURIPrefix + e.ID,
			Name:     fmt.Sprintf("Schema of %s (%s)", e.Display, e.Dialect.DisplayName()),
			MimeType: "text/markdown",
		})
		for _, table := range e.Tables {
			resources = append(resources, Resource{
				URI:      tableURIPrefix + e.ID + "/" + table,
				Name:     fmt.Sprintf("Table %s of %s", table, e.Display),
				MimeType: "text/markdown",
			})
		}
	}

	return &ListResourcesResult{Resources: resources}, nil
}

func (s *Server) handleReadResource(ctx context.Context, params json.RawMessage) (*ReadResourceResult, *Error) {
	var readParams ReadResourceParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &Error{Code: InvalidParams, Message: "Invalid parameters", Data: err.Error()}
	}

	uri := readParams.URI

	var text string
	switch {
	case strings.HasPrefix(uri, schemaURIPrefix):
		text = s.schemaResource(strings.TrimPrefix(uri, schemaURIPrefix))
	case strings.HasPrefix(uri, queryURIPrefix):
		text = s.queryResource(ctx, strings.TrimPrefix(uri, queryURIPrefix))
	case strings.HasPrefix(uri, tableURIPrefix):
		text = s.tableResource(ctx, strings.TrimPrefix(uri, tableURIPrefix))
	default:
		return nil, &Error{
			Code:    InvalidParams,
			Message: fmt.Sprintf("Invalid resource URI: %s", uri),
		}
	}

	return &ReadResourceResult{
		Contents: []ResourceContent{
			{URI: uri, MimeType: "text/markdown", Text: text},
		},
	}, nil
}

// schemaResource renders the cached connect-time schema for a connection.
// Failures are reported inside the document, not as protocol errors.
func (s *Server) schemaResource(id string) string {
	entry, err := s.registry.Lookup(id)
	if err != nil {
		return "# Error\n\nInvalid connection ID. Please connect to the database first.\n"
	}
	return render.Schema(entry)
}

// queryResource executes an URI-embedded query with a hard row cap. Only
// the escapes a client needs to embed SQL in a path are decoded: %20, %22,
// and %27.
func (s *Server) queryResource(ctx context.Context, rest string) string {
	id, query, ok := strings.Cut(rest, "/")
	if !ok || query == "" {
		return "# Error\n\nInvalid query resource URI: expected sql://query/{connection_id}/{query}.\n"
	}

	query = unescapeQuery(query)

	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	res, err := s.registry.Execute(qctx, id, query, nil, s.opts.ResourceRowCap)
	if err != nil {
		return fmt.Sprintf("# Error Executing Query\n\n%v\n", err)
	}

	out := render.QueryResults(query, res)
	if res.IsSelect && res.Truncated {
		out += fmt.Sprintf("\n*Query limited to %d rows. Use the execute_query tool for more results.*\n",
			s.opts.ResourceRowCap)
	}
	return out
}

// tableResource renders a fresh description of one table: columns, keys,
// indexes, and row count.
func (s *Server) tableResource(ctx context.Context, rest string) string {
	id, table, ok := strings.Cut(rest, "/")
	if !ok || table == "" {
		return "# Error\n\nInvalid table resource URI: expected sql://table/{connection_id}/{table}.\n"
	}

	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	desc, err := s.registry.Describe(qctx, id, table)
	if err != nil {
		return fmt.Sprintf("# Error Describing Table\n\n%v\n", err)
	}
	return render.TableDescription(desc)
}

func unescapeQuery(q string) string {
	q = strings.ReplaceAll(q, "%20", " ")
	q = strings.ReplaceAll(q, "%22", `"`)
	q = strings.ReplaceAll(q, "%27", "'")
	return q
}
