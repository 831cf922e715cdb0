// Command sqlgate is an MCP server that gives agents access to SQL
// databases over stdio.
package main

import (
	"os"

	"github.com/gatestack-labs/sqlgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
