package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/job"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStatus(w io.Writer, st domain.JobStatus) error {
	if asJSON {
		return printJSON(w, st)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(tw, "JOB\t%s\n", st.ID)
	_, _ = fmt.Fprintf(tw, "STATUS\t%s\n", job.StatusDescription(st.Status))
	if st.Progress != nil {
		_, _ = fmt.Fprintf(tw, "PROGRESS\t%d%%\n", *st.Progress)
	}
	if st.Error != nil {
		_, _ = fmt.Fprintf(tw, "ERROR\t%s: %s\n", st.Error.Code, st.Error.Message)
	}
	_, _ = fmt.Fprintf(tw, "CREATED\t%s\n", st.CreatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(tw, "UPDATED\t%s\n", st.UpdatedAt.Format(time.RFC3339))
	return tw.Flush()
}

func printResult(w io.Writer, res *domain.JobResult) error {
	if asJSON {
		return printJSON(w, res)
	}
	for i, p := range res.Pages {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "--- page %d (confidence %.2f) ---\n", p.PageNumber, p.Confidence)
		_, _ = fmt.Fprintln(w, p.Text)
	}
	if res.Pagination.HasMore() {
		_, _ = fmt.Fprintf(w, "\n(page %d of %d, use --page or --all for more)\n", res.Pagination.Page, res.Pagination.TotalPages)
	}
	return nil
}

type batchRow struct {
	Input    string `json:"input"`
	JobID    string `json:"jobId,omitempty"`
	Status   string `json:"status"`
	Pages    int    `json:"pages"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func batchRows(items []ocr.BatchItem) []batchRow {
	rows := make([]batchRow, len(items))
	for i, item := range items {
		row := batchRow{
			Input:    item.Input,
			JobID:    item.JobID,
			Status:   "submitted",
			Duration: item.Duration.Round(time.Millisecond).String(),
		}
		if item.Status != nil {
			row.Status = string(item.Status.Status)
		}
		if item.Result != nil {
			row.Pages = len(item.Result.Pages)
		}
		if item.Err != nil {
			row.Status = "error"
			row.Error = item.Err.Error()
		}
		rows[i] = row
	}
	return rows
}

func printBatch(w io.Writer, items []ocr.BatchItem) error {
	rows := batchRows(items)
	if asJSON {
		return printJSON(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(tw, "INPUT\tJOB\tSTATUS\tPAGES\tDURATION\tERROR")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.Input, r.JobID, r.Status, r.Pages, r.Duration, r.Error)
	}
	return tw.Flush()
}

// progressLogger logs each status change once.
func progressLogger() func(domain.JobStatus) {
	var last domain.Status
	var lastProgress = -1
	return func(s domain.JobStatus) {
		p := -1
		if s.Progress != nil {
			p = *s.Progress
		}
		if s.Status == last && p == lastProgress {
			return
		}
		last, lastProgress = s.Status, p
		if p >= 0 {
			slog.Info("Job progress", "job_id", s.ID, "status", s.Status, "progress", p)
			return
		}
		slog.Info("Job progress", "job_id", s.ID, "status", s.Status)
	}
}
