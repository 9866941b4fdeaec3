package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/picalc/pi-calculator/internal/cli"
)

func main() {
	command := NewPiCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewPiCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pi [flags] [options]",
		Short: "pi controls the Pi Calculator service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdSubmit())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdCancel())
	cmd.AddCommand(cli.NewCmdWait())

	return cmd
}
