package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "golang-stock-tracker",
	Short: "Personal stock tracker: watchlist, portfolio and price alerts",
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
