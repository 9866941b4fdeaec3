package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "pi-api",
	Short: "Pi calculator service",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workerCmd)
}
