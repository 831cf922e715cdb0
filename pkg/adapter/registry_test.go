package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	BaseSQLAdapter
	name string
}

func (s *stubAdapter) DialectName() string { return s.name }

func (s *stubAdapter) Connect(context.Context, string) error { return nil }

func (s *stubAdapter) ListTables(context.Context) ([]string, error) { return nil, nil }

func (s *stubAdapter) Columns(context.Context, string) ([]Column, error) { return nil, nil }

func (s *stubAdapter) PrimaryKey(context.Context, string) ([]string, error) { return nil, nil }

func (s *stubAdapter) ForeignKeys(context.Context, string) ([]ForeignKey, error) { return nil, nil }

func (s *stubAdapter) Indexes(context.Context, string) ([]Index, error) { return nil, nil }

func TestRegistry_RegisterAndNew(t *testing.T) {
	Register("stub", func(logger *slog.Logger) Adapter {
		return &stubAdapter{name: "stub"}
	})

	assert.True(t, IsRegistered("stub"))
	assert.Contains(t, List(), "stub")

	a, err := New("stub", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", a.DialectName())
}

func TestRegistry_New_UnknownDialect(t *testing.T) {
	_, err := New("no-such-dialect", nil)
	require.Error(t, err)

	var unknownErr *UnknownDialectError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "no-such-dialect", unknownErr.Dialect)
	assert.Contains(t, err.Error(), "no adapter registered")
}

func TestRegistry_New_EmptyDialect(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect not specified")
}
