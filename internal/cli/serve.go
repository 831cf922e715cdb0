package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatestack-labs/sqlgate/internal/config"
	"github.com/gatestack-labs/sqlgate/internal/gateway"
	"github.com/gatestack-labs/sqlgate/internal/mcp"

	// Register all dialect adapters.
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/mssql"
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/mysql"
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/oracle"
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/postgres"
	_ "github.com/gatestack-labs/sqlgate/pkg/adapters/sqlite"
)

// newServeCommand creates the serve command. The MCP stream runs on
// stdin/stdout, so all logging goes to stderr.
func newServeCommand(getConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP protocol on stdin/stdout",
		Long: `Start the gateway and speak the Model Context Protocol on standard
input and output. Intended to be launched by an MCP client.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				<-sigChan
				logger.Info("received shutdown signal")
				cancel()
			}()

			registry := gateway.New(logger)
			defer func() {
				if err := registry.Close(); err != nil {
					logger.Error("failed to close connections", slog.Any("error", err))
				}
			}()

			server := mcp.NewServer(registry, cmd.InOrStdin(), cmd.OutOrStdout(), Version, mcp.Options{
				RowLimit:       cfg.RowLimit,
				ResourceRowCap: cfg.ResourceRowCap,
				QueryTimeout:   cfg.QueryTimeout(),
			}, logger)

			logger.Info("sqlgate started", slog.String("version", Version))

			if err := server.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("server shutdown")
					return nil
				}
				return err
			}
			return nil
		},
	}
}
