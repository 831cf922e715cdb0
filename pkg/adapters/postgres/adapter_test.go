package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gatestack-labs/sqlgate/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := New(nil)
	a.DB = db
	return a, mock
}

func TestAdapter_ListTables(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestAdapter_Columns(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "nullable", "column_default", "pk"}).
			AddRow("id", "integer", false, "nextval('users_id_seq')", true).
			AddRow("email", "text", true, nil, false))

	cols, err := a.Columns(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, adapter.Column{
		Name:       "id",
		Type:       "integer",
		Nullable:   false,
		Default:    "nextval('users_id_seq')",
		PrimaryKey: true,
	}, cols[0])
	assert.Equal(t, "email", cols[1].Name)
	assert.True(t, cols[1].Nullable)
}

func TestAdapter_Columns_MissingTable(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "nullable", "column_default", "pk"}))

	_, err := a.Columns(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAdapter_Indexes(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM pg_indexes").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"indexname", "indexdef"}).
			AddRow("users_pkey", "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)").
			AddRow("idx_users_email", "CREATE INDEX idx_users_email ON public.users USING btree (email, created_at)"))

	indexes, err := a.Indexes(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, indexes, 2)

	assert.True(t, indexes[0].Unique)
	assert.Equal(t, []string{"id"}, indexes[0].Columns)
	assert.False(t, indexes[1].Unique)
	assert.Equal(t, []string{"email", "created_at"}, indexes[1].Columns)
}

func TestIndexColumns(t *testing.T) {
	tests := []struct {
		def  string
		want []string
	}{
		{"CREATE INDEX i ON t USING btree (a)", []string{"a"}},
		{"CREATE UNIQUE INDEX i ON t (a, b)", []string{"a", "b"}},
		{"no parens", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, indexColumns(tt.def))
	}
}
