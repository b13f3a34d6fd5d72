package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

var (
	resultPage  int
	resultLimit int
	resultAll   bool
)

var resultCmd = &cobra.Command{
	Use:   "result <job-id>",
	Short: "Print the recognized pages of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var res *domain.JobResult
			if resultAll {
				res, err = client.GetAllResults(ctx, args[0], resultLimit)
			} else {
				res, err = client.GetResult(ctx, args[0], resultPage, resultLimit)
			}
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	resultCmd.Flags().IntVar(&resultPage, "page", 1, "result page to fetch")
	resultCmd.Flags().IntVar(&resultLimit, "limit", ocr.DefaultPageLimit, "pages per request")
	resultCmd.Flags().BoolVar(&resultAll, "all", false, "fetch every page")

	rootCmd.AddCommand(resultCmd)
}
