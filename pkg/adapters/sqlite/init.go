// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/gatestack-labs/sqlgate/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"

	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
