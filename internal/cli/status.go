package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

var waitOpts processFlags

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the current status of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			st, err := client.GetStatus(ctx, args[0])
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		})
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "Wait until a job completes or fails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			st, err := client.WaitForCompletion(ctx, args[0], waitOpts.wait(progressLogger()))
			if err != nil {
				return err
			}
			if err := printStatus(cmd.OutOrStdout(), st); err != nil {
				return err
			}
			// A failed job is reported through the exit code as well.
			return ocr.FailureError(st)
		})
	},
}

func init() {
	waitOpts.registerWait(waitCmd)
	rootCmd.AddCommand(statusCmd, waitCmd)
}
