package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

var (
	batchOpts        processFlags
	batchConcurrency int
	batchSubmitOnly  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|url>...",
	Short: "Process many documents in groups",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			concurrency := batchConcurrency
			if concurrency <= 0 {
				concurrency = cfg.Batch.Concurrency
			}

			items := client.ProcessBatch(ctx, args, ocr.BatchOptions{
				Concurrency: concurrency,
				Options:     batchOpts.options(),
				SubmitOnly:  batchSubmitOnly,
				Wait:        batchOpts.wait(nil),
				OnItem:      logBatchItem,
			})

			if err := printBatch(cmd.OutOrStdout(), items); err != nil {
				return err
			}
			return batchError(items)
		})
	},
}

func init() {
	batchOpts.register(batchCmd)
	batchOpts.registerWait(batchCmd)
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "documents processed together (default from config)")
	batchCmd.Flags().BoolVar(&batchSubmitOnly, "submit-only", false, "submit without waiting for results")

	rootCmd.AddCommand(batchCmd)
}

// logBatchItem reports finished items. Failures are logged by ProcessBatch.
func logBatchItem(item ocr.BatchItem) {
	if item.Err != nil {
		return
	}
	slog.Info("Batch item done", "input", item.Input, "job_id", item.JobID, "duration", item.Duration)
}

// batchError returns the first item error, annotated with the failure count.
func batchError(items []ocr.BatchItem) error {
	var first error
	failed := 0
	for _, item := range items {
		if item.Err == nil {
			continue
		}
		failed++
		if first == nil {
			first = item.Err
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%d of %d items failed: %w", failed, len(items), first)
}
