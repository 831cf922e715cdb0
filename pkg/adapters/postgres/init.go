// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/gatestack-labs/sqlgate/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
