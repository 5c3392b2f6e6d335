// Package commands holds the assetaudit subcommands.
package commands

import "github.com/spf13/cobra"

// Init registers run, schedule and history on rootCmd.
func Init(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		runCmd(),
		scheduleCmd(),
		historyCmd(),
	)
}
