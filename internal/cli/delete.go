package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <job-id>...",
	Aliases: []string{"rm"},
	Short:   "Delete jobs and their stored documents",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := client.DeleteJob(ctx, id); err != nil {
					return err
				}
				slog.Info("Job deleted", "job_id", id)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
