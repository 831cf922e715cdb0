// This file registers the SQL Server adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/gatestack-labs/sqlgate/pkg/adapters/mssql"
package mssql

import (
	"log/slog"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

func init() {
	adapter.Register("mssql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
