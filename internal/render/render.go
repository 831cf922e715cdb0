// Package render formats schema and query results as markdown for resource
// consumers. The renderers impose no row limits of their own.
package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gatestack-labs/sqlgate/internal/gateway"
)

// Schema renders the cached connect-time schema of one connection: a
// heading per table with a column/type table underneath.
func Schema(entry *gateway.Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Database Schema\n\n", entry.Dialect.DisplayName())
	fmt.Fprintf(&b, "## Tables (%d)\n\n", len(entry.Tables))

	for _, name := range entry.Tables {
		fmt.Fprintf(&b, "### %s\n\n", name)

		t := newMarkdownWriter()
		t.AppendHeader(table.Row{"Column", "Type"})
		for _, col := range entry.Schema[name] {
			t.AppendRow(table.Row{col.Name, col.Type})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n\n")
	}

	return b.String()
}

// QueryResults renders the outcome of a query: the statement in a sql code
// fence followed by a markdown table for reads or the affected row count
// for writes.
func QueryResults(query string, res *gateway.QueryResult) string {
	var b strings.Builder

	b.WriteString("# SQL Query Results\n\n")
	fmt.Fprintf(&b, "```sql\n%s\n```\n\n", query)

	if !res.IsSelect {
		fmt.Fprintf(&b, "**Affected rows:** %d\n", res.AffectedRows)
		return b.String()
	}

	if res.RowCount == 0 {
		b.WriteString("No results returned.\n")
		return b.String()
	}

	t := newMarkdownWriter()
	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, result := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n")

	return b.String()
}

// TableDescription renders the fresh, detailed view of one table.
func TableDescription(desc *gateway.TableDescription) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", desc.Table)
	fmt.Fprintf(&b, "**Rows:** %d\n\n", desc.RowCount)

	t := newMarkdownWriter()
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default", "PK"})
	for _, col := range desc.Columns {
		t.AppendRow(table.Row{
			col.Name, col.Type, yesNo(col.Nullable), col.Default, yesNo(col.PrimaryKey),
		})
	}
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n")

	if len(desc.ForeignKeys) > 0 {
		b.WriteString("\n## Foreign Keys\n\n")
		for _, fk := range desc.ForeignKeys {
			fmt.Fprintf(&b, "- %s → %s.%s\n", fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
		}
	}

	if len(desc.Indexes) > 0 {
		b.WriteString("\n## Indexes\n\n")
		for _, idx := range desc.Indexes {
			kind := ""
			if idx.Unique {
				kind = " (unique)"
			}
			fmt.Fprintf(&b, "- %s%s: %s\n", idx.Name, kind, strings.Join(idx.Columns, ", "))
		}
	}

	return b.String()
}

func newMarkdownWriter() table.Writer {
	t := table.NewWriter()
	// Keep header cells as given instead of the default upper-casing.
	t.Style().Format.Header = text.FormatDefault
	return t
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
