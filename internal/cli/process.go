package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

var (
	processOpts processFlags
	processOut  string

	submitOpts processFlags
)

var processCmd = &cobra.Command{
	Use:   "process <file|url>",
	Short: "Submit a document, wait for it and print the text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			return runProcess(ctx, cmd.OutOrStdout(), args[0])
		})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <file|url>",
	Short: "Submit a document and print the job id without waiting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context) error {
			return runSubmit(ctx, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	processOpts.register(processCmd)
	processOpts.registerWait(processCmd)
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "write the recognized text to this file")
	submitOpts.register(submitCmd)

	rootCmd.AddCommand(processCmd, submitCmd)
}

func runProcess(ctx context.Context, w io.Writer, input string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	wait := processOpts.wait(progressLogger())
	var res *domain.JobResult
	if ocr.IsURL(input) {
		res, err = client.ProcessURL(ctx, input, processOpts.options(), wait)
	} else {
		res, err = client.ProcessFile(ctx, input, processOpts.options(), wait)
	}
	if err != nil {
		return err
	}

	if processOut != "" {
		if err := os.WriteFile(processOut, []byte(res.Text()), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", processOut, err)
		}
		slog.Info("Result written", "job_id", res.JobID, "path", processOut, "pages", len(res.Pages))
		return nil
	}
	return printResult(w, res)
}

func runSubmit(ctx context.Context, w io.Writer, input string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var jobID string
	if ocr.IsURL(input) {
		jobID, err = client.SubmitURL(ctx, input, submitOpts.options())
	} else {
		jobID, err = client.SubmitFile(ctx, input, submitOpts.options())
	}
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(w, map[string]string{"jobId": jobID})
	}
	_, err = fmt.Fprintln(w, jobID)
	return err
}
