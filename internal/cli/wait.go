package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
)

type WaitOptions struct {
	GlobalOptions

	Output   string
	Interval time.Duration
	Quiet    bool
}

func DefaultWaitOptions() *WaitOptions {
	return &WaitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Interval:      500 * time.Millisecond,
	}
}

func NewCmdWait() *cobra.Command {
	o := DefaultWaitOptions()
	cmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Wait for a job to complete and display its status.",
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

func (o *WaitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.DurationVar(&o.Interval, "interval", o.Interval, "Polling interval")
	fs.BoolVarP(&o.Quiet, "quiet", "q", o.Quiet, "Do not print progress")
}

func (o *WaitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := parseJobID(args[0]); err != nil {
		return err
	}
	return o.validateWait()
}

func (o *WaitOptions) validateWait() error {
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return validateOutput(o.Output)
}

func (o *WaitOptions) Run(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	return o.wait(commandContext(cmd), cmd.OutOrStdout(), id)
}

// wait polls the job and prints its final status. A failed job is an error.
func (o *WaitOptions) wait(ctx context.Context, w io.Writer, id uuid.UUID) error {
	var onProgress func(*api.JobStatus)
	if !o.Quiet && o.Output == "" {
		onProgress = func(s *api.JobStatus) {
			if s.State == api.JobStateProgress {
				fmt.Fprintf(w, "%s: %.0f%%\n", id, s.Progress*100)
			}
		}
	}

	status, err := o.Client().WaitJob(ctx, id, o.Interval, onProgress)
	if err != nil {
		return err
	}
	if err := printStatus(w, id, status, o.Output); err != nil {
		return err
	}
	if status.State == api.JobStateFailed {
		return fmt.Errorf("job %s failed", id)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
