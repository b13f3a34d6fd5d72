package ocr

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
)

// DefaultBatchConcurrency is the group size when none is given.
const DefaultBatchConcurrency = 3

// BatchOptions configures ProcessBatch.
type BatchOptions struct {
	// Concurrency is the group size: this many items run together and the
	// next group starts once the whole group has finished.
	Concurrency int
	Options     domain.ProcessOptions

	// SubmitOnly skips waiting and result retrieval.
	SubmitOnly bool
	Wait       WaitOptions

	// OnItem is called as each item finishes. Calls may be concurrent.
	OnItem func(BatchItem)
}

// BatchItem is the outcome of one input. Exactly one of Result or Err is
// set unless SubmitOnly was requested, in which case only JobID is.
type BatchItem struct {
	Index    int
	Input    string
	JobID    string
	Status   *domain.JobStatus
	Result   *domain.JobResult
	Err      error
	Duration time.Duration
}

// ProcessBatch processes file paths and http(s) URLs in fixed-size groups.
// A failing item never aborts its siblings. Items are returned in input
// order. If ctx is cancelled, items of groups not yet started carry a
// KindCancelled error.
func (c *Client) ProcessBatch(ctx context.Context, inputs []string, opts BatchOptions) []BatchItem {
	size := opts.Concurrency
	if size < 1 {
		size = DefaultBatchConcurrency
	}

	items := make([]BatchItem, len(inputs))
	for i, in := range inputs {
		items[i] = BatchItem{Index: i, Input: in}
	}

	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(inputs); i++ {
				items[i].Err = ocrerr.NewCancelledError(err)
				metrics.BatchItemsTotal.WithLabelValues("cancelled").Inc()
			}
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(size)

		for i := start; i < end; i++ {
			g.Go(func() error {
				c.processItem(gctx, &items[i], opts)
				if items[i].Err != nil {
					c.log.Warn("Batch item failed", "input", items[i].Input, "job_id", items[i].JobID, "error", items[i].Err)
					// Don't fail the entire batch for individual errors
				}
				if opts.OnItem != nil {
					opts.OnItem(items[i])
				}
				return nil
			})
		}
		_ = g.Wait()

		c.log.Debug("Batch group finished", "from", start, "to", end-1, "total", len(inputs))
	}

	return items
}

func (c *Client) processItem(ctx context.Context, item *BatchItem, opts BatchOptions) {
	metrics.BatchInFlight.Inc()
	defer metrics.BatchInFlight.Dec()

	start := time.Now()
	defer func() {
		item.Duration = time.Since(start)
		outcome := "ok"
		if item.Err != nil {
			outcome = strings.ToLower(string(ocrerr.KindOf(item.Err)))
			if outcome == "" {
				outcome = "error"
			}
		}
		metrics.BatchItemsTotal.WithLabelValues(outcome).Inc()
	}()

	var err error
	if IsURL(item.Input) {
		item.JobID, err = c.SubmitURL(ctx, item.Input, opts.Options)
	} else {
		item.JobID, err = c.SubmitFile(ctx, item.Input, opts.Options)
	}
	if err != nil || opts.SubmitOnly {
		item.Err = err
		return
	}

	st, err := c.WaitForCompletion(ctx, item.JobID, opts.Wait)
	if err != nil {
		item.Err = err
		return
	}
	item.Status = &st
	if err := FailureError(st); err != nil {
		item.Err = err
		return
	}

	item.Result, item.Err = c.GetAllResults(ctx, item.JobID, MaxPageLimit)
}

// IsURL reports whether s is an http(s) URL rather than a file path.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
