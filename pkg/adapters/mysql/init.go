// This file registers the MySQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/gatestack-labs/sqlgate/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
