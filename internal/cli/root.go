// Package cli provides the command-line interface for sqlgate.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatestack-labs/sqlgate/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		cfg     *config.Config
	)

	rootCmd := &cobra.Command{
		Use:   "sqlgate",
		Short: "sqlgate - SQL database gateway for MCP clients",
		Long: `sqlgate is a Model Context Protocol server that gives agents safe access
to SQL databases: it manages connections, introspects schemas, and executes
queries against MySQL, PostgreSQL, SQLite, SQL Server, and Oracle.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlgate.yaml)")
	rootCmd.PersistentFlags().Int("row-limit", 100, "Default row cap for query tool calls")
	rootCmd.PersistentFlags().Int("resource-row-cap", 20, "Row cap for query resources")
	rootCmd.PersistentFlags().Int("query-timeout-seconds", 30, "Per-statement timeout in seconds")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand(func() *config.Config { return cfg }))
	rootCmd.AddCommand(newVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
