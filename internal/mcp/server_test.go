package mcp

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/gatestack-labs/sqlgate/internal/gateway"
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/sqlite"
)

func seedDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mcp.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	stmts := []string{
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			price REAL
		)`,
		`INSERT INTO products (id, name, price) VALUES
			(1, 'anvil', 99.5), (2, 'rope', 12.0), (3, 'dynamite', 45.25)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := gateway.New(nil)
	t.Cleanup(func() { _ = registry.Close() })
	return NewServer(registry, strings.NewReader(""), &bytes.Buffer{}, "test", Options{}, nil)
}

// rpc sends one request through the server and returns the raw response
// decoded into generic JSON, the way a client would see it.
func rpc(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()

	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	resp := s.handleMessage(context.Background(), data)
	require.NotNil(t, resp)

	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	return decoded
}

// callTool invokes tools/call and decodes the JSON payload in the content.
func callTool(t *testing.T, s *Server, name string, args map[string]any) map[string]any {
	t.Helper()

	resp := rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp["error"], "tools/call must not produce protocol errors")

	result := resp["result"].(map[string]any)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	text := content[0].(map[string]any)["text"].(string)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	return payload
}

func connectTool(t *testing.T, s *Server) string {
	t.Helper()

	payload := callTool(t, s, "connect_database", map[string]any{
		"connection_string": "sqlite:///" + seedDB(t),
	})
	require.Equal(t, true, payload["success"])
	return payload["connection_id"].(string)
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "initialize", map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientInfo":      map[string]any{"name": "test-client", "version": "0.1"},
	})

	require.Nil(t, resp["error"])
	result := resp["result"].(map[string]any)
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])

	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "sqlgate", info["name"])

	caps := result["capabilities"].(map[string]any)
	assert.Contains(t, caps, "tools")
	assert.Contains(t, caps, "resources")
	assert.Contains(t, caps, "prompts")
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "tools/list", nil)
	require.Nil(t, resp["error"])

	tools := resp["result"].(map[string]any)["tools"].([]any)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{
		"connect_database", "execute_query", "list_tables", "describe_table", "disconnect",
	}, names)
}

func TestMethodNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "no/such/method", nil)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(MethodNotFound), errObj["code"])
}

func TestToolFlow(t *testing.T) {
	s := newTestServer(t)
	id := connectTool(t, s)

	listed := callTool(t, s, "list_tables", map[string]any{"connection_id": id})
	assert.Equal(t, true, listed["success"])
	assert.Equal(t, "SQLite", listed["database_type"])
	assert.Equal(t, []any{"products"}, listed["tables"])

	desc := callTool(t, s, "describe_table", map[string]any{
		"connection_id": id, "table_name": "products",
	})
	assert.Equal(t, true, desc["success"])
	assert.Equal(t, "products", desc["table_name"])
	assert.Equal(t, []any{"id"}, desc["primary_keys"])
	assert.Equal(t, float64(3), desc["row_count"])

	query := callTool(t, s, "execute_query", map[string]any{
		"connection_id": id,
		"query":         "SELECT name FROM products ORDER BY id",
		"limit":         2,
	})
	assert.Equal(t, true, query["success"])
	assert.Equal(t, true, query["is_select"])
	assert.Equal(t, float64(2), query["row_count"])
	assert.Equal(t, true, query["truncated"])

	write := callTool(t, s, "execute_query", map[string]any{
		"connection_id": id,
		"query":         "DELETE FROM products WHERE price < ?",
		"params":        []any{50.0},
	})
	assert.Equal(t, true, write["success"])
	assert.Equal(t, false, write["is_select"])
	assert.Equal(t, float64(2), write["affected_rows"])

	disc := callTool(t, s, "disconnect", map[string]any{"connection_id": id})
	assert.Equal(t, true, disc["success"])
	assert.Contains(t, disc["message"], "SQLite")

	again := callTool(t, s, "disconnect", map[string]any{"connection_id": id})
	assert.Equal(t, false, again["success"])
	assert.Contains(t, again["error"], "connect to the database first")
}

func TestToolConnect_Failure(t *testing.T) {
	s := newTestServer(t)

	payload := callTool(t, s, "connect_database", map[string]any{
		"connection_string": "bogus://nowhere",
	})
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["error"], "failed to connect")
}

func TestToolCall_MissingParam(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "tools/call", map[string]any{
		"name": "execute_query", "arguments": map[string]any{"connection_id": "x"},
	})
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(InvalidParams), errObj["code"])
	assert.Contains(t, errObj["message"], "query")
}

func TestResources(t *testing.T) {
	s := newTestServer(t)
	id := connectTool(t, s)

	resp := rpc(t, s, "resources/list", nil)
	require.Nil(t, resp["error"])
	resources := resp["result"].(map[string]any)["resources"].([]any)
	require.Len(t, resources, 2)
	first := resources[0].(map[string]any)
	assert.Equal(t, "sql://schema/"+id, first["uri"])
	assert.Equal(t, "text/markdown", first["mimeType"])
	second := resources[1].(map[string]any)
	assert.Equal(t, "sql://table/"+id+"/products", second["uri"])

	read := rpc(t, s, "resources/read", map[string]any{"uri": "sql://schema/" + id})
	require.Nil(t, read["error"])
	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "# SQLite Database Schema")
	assert.Contains(t, text, "### products")
}

func TestQueryResource(t *testing.T) {
	s := newTestServer(t)
	id := connectTool(t, s)

	uri := fmt.Sprintf("sql://query/%s/SELECT%%20name%%20FROM%%20products%%20WHERE%%20name%%20=%%20%%27rope%%27", id)
	read := rpc(t, s, "resources/read", map[string]any{"uri": uri})
	require.Nil(t, read["error"])

	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "# SQL Query Results")
	assert.Contains(t, text, "SELECT name FROM products WHERE name = 'rope'")
	assert.Contains(t, text, "rope")
}

func TestTableResource(t *testing.T) {
	s := newTestServer(t)
	id := connectTool(t, s)

	read := rpc(t, s, "resources/read", map[string]any{"uri": "sql://table/" + id + "/products"})
	require.Nil(t, read["error"])

	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "# products")
	assert.Contains(t, text, "**Rows:** 3")
	assert.Contains(t, text, "price")
}

func TestTableResource_MissingTable(t *testing.T) {
	s := newTestServer(t)
	id := connectTool(t, s)

	read := rpc(t, s, "resources/read", map[string]any{"uri": "sql://table/" + id + "/nope"})
	require.Nil(t, read["error"])

	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "# Error Describing Table")
	assert.Contains(t, text, "nope")
}

func TestQueryResource_Capped(t *testing.T) {
	s := newTestServer(t)
	s.opts.ResourceRowCap = 2
	id := connectTool(t, s)

	uri := fmt.Sprintf("sql://query/%s/SELECT%%20name%%20FROM%%20products", id)
	read := rpc(t, s, "resources/read", map[string]any{"uri": uri})
	require.Nil(t, read["error"])

	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "Query limited to 2 rows")
}

func TestSchemaResource_UnknownConnection(t *testing.T) {
	s := newTestServer(t)

	read := rpc(t, s, "resources/read", map[string]any{"uri": "sql://schema/ghost"})
	require.Nil(t, read["error"])

	contents := read["result"].(map[string]any)["contents"].([]any)
	text := contents[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "# Error")
	assert.Contains(t, text, "Invalid connection ID")
}

func TestReadResource_BadURI(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "resources/read", map[string]any{"uri": "ftp://nope"})
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(InvalidParams), errObj["code"])
}

func TestPrompts(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, "prompts/list", nil)
	require.Nil(t, resp["error"])
	prompts := resp["result"].(map[string]any)["prompts"].([]any)
	require.Len(t, prompts, 2)

	get := rpc(t, s, "prompts/get", map[string]any{
		"name":      "connect_database",
		"arguments": map[string]any{"connection_string": "mysql://root:hunter2@db:3306/shop"},
	})
	require.Nil(t, get["error"])
	messages := get["result"].(map[string]any)["messages"].([]any)
	text := messages[0].(map[string]any)["content"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "mysql://root:*****@db:3306/shop")
	assert.NotContains(t, text, "hunter2")

	empty := rpc(t, s, "prompts/get", map[string]any{"name": "connect_database"})
	require.Nil(t, empty["error"])
	messages = empty["result"].(map[string]any)["messages"].([]any)
	text = messages[0].(map[string]any)["content"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "sqlite:///path/to/database.db")
}

func TestRun_StreamLoop(t *testing.T) {
	registry := gateway.New(nil)
	t.Cleanup(func() { _ = registry.Close() })

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"c","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`not json at all`,
		`{"jsonrpc":"1.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
		``,
	}, "\n")

	var out bytes.Buffer
	s := NewServer(registry, strings.NewReader(input), &out, "test", Options{}, nil)
	require.NoError(t, s.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// initialize, parse error, version error, ping; the notification
	// produces no output.
	require.Len(t, lines, 4)

	var parseResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &parseResp))
	errObj := parseResp["error"].(map[string]any)
	assert.Equal(t, float64(ParseError), errObj["code"])

	var pingResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &pingResp))
	assert.Equal(t, float64(3), pingResp["id"])
}
