package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clawncore/colabwize-backend/internal/interfaces/cli/migrate"
	"github.com/clawncore/colabwize-backend/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "colabwize",
		Short: "ColabWize - entitlement and metering backend",
		Long:  `ColabWize billing backend: plan entitlements, credit ledger and usage metering behind the writing tools.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
