package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type SubmitOptions struct {
	WaitOptions

	Wait bool
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		WaitOptions: *DefaultWaitOptions(),
	}
}

func NewCmdSubmit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:   "submit DIGITS",
		Short: "Start computing pi to DIGITS decimal places.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd, args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.WaitOptions.Bind(fs)

	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Wait for the job to complete")
}

func (o *SubmitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return fmt.Errorf("digits must be an integer: %q", args[0])
	}
	return o.validateWait()
}

func (o *SubmitOptions) Run(cmd *cobra.Command, args []string) error {
	digits, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	id, err := o.Client().CreateJob(ctx, digits)
	if err != nil {
		return err
	}
	if !o.Wait {
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	}
	return o.wait(ctx, cmd.OutOrStdout(), id)
}
