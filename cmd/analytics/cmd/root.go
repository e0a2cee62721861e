// Package cmd provides the analytics CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/backend"
	"financialchecker/internal/cli"
	"financialchecker/internal/config"
	applog "financialchecker/internal/log"
)

var (
	envFile string
	debug   bool

	cfg    *config.Config
	logger *applog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Inspect recorded income and expenses",
	Long: `analytics reads every recorded transaction from the configured
backend and reports on it.

Example:
  analytics transaction -t expense -s 2024-01-01 -e 2024-01-31 -f expenses.png
  analytics rates -s 2024-01-01 -p monthly`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		exitOnError(cli.LoadEnvFile(envFile), "failed to load env file")

		var err error
		cfg, err = cli.LoadAndValidateConfig()
		exitOnError(err, "invalid configuration")
		if debug {
			cfg.LogLevel = "debug"
		}
		logger = cli.SetupLogger(cfg, applog.ComponentCLI)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file with the backend settings")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(transactionCmd)
	rootCmd.AddCommand(ratesCmd)
}

// openBuilder opens the configured backend and wraps it in a builder. The
// returned func closes the backend.
func openBuilder(ctx context.Context) (*aggregate.Builder, func(), error) {
	be, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := be.Close(); err != nil {
			logger.Warn("Backend close error", applog.FieldError, err)
		}
	}
	return aggregate.NewBuilder(be.Store, aggregate.WithLogger(logger)), closeFn, nil
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		if logger != nil {
			logger.Error(msg, applog.FieldError, err)
		}
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
