// This file registers the Oracle adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/gatestack-labs/sqlgate/pkg/adapters/oracle"
package oracle

import (
	"log/slog"

	"github.com/gatestack-labs/sqlgate/pkg/adapter"

	_ "github.com/godror/godror" // Oracle driver
)

func init() {
	adapter.Register("oracle", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
