package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/job"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
	"github.com/vietddude/ocrflow/internal/infra/ocr/poll"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
	"github.com/vietddude/ocrflow/internal/infra/ocr/transport"
)

// maxResultPages stops GetAllResults if the service never reports the end.
const maxResultPages = 10000

// WaitOptions overrides the client's poll settings for one wait.
type WaitOptions struct {
	Interval   time.Duration
	MaxWait    time.Duration
	OnProgress func(domain.JobStatus)
}

func jobPath(jobID string, suffix ...string) string {
	p := "/v1/jobs/" + url.PathEscape(jobID)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func requireJobID(jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return ocrerr.NewLocalValidationError("job id is required", map[string][]string{"jobId": {"required"}})
	}
	return nil
}

// GetStatus fetches and normalizes the job's current status.
func (c *Client) GetStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	if err := requireJobID(jobID); err != nil {
		return domain.JobStatus{}, err
	}

	raw, err := call[job.RawStatus](ctx, c, transport.Request{
		Name:   "get_status",
		Method: http.MethodGet,
		Path:   jobPath(jobID),
	})
	if err != nil {
		return domain.JobStatus{}, err
	}

	st := job.MapStatus(raw, time.Now())
	if st.ID == "" {
		st.ID = jobID
	}
	metrics.PollsTotal.WithLabelValues(string(st.Status)).Inc()
	return st, nil
}

// WaitForCompletion polls until the job is completed or failed.
// A failed job is returned as a status, not as an error.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string, opts WaitOptions) (domain.JobStatus, error) {
	if err := requireJobID(jobID); err != nil {
		return domain.JobStatus{}, err
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = c.pollInterval
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = c.maxWait
	}

	log := c.log.With("job_id", jobID)
	var tracker job.Tracker
	start := time.Now()

	st, err := poll.Until(ctx,
		func(ctx context.Context) (domain.JobStatus, error) {
			return c.GetStatus(ctx, jobID)
		},
		job.IsTerminal,
		poll.Policy[domain.JobStatus]{
			Interval: interval,
			MaxWait:  maxWait,
			OnProgress: func(s domain.JobStatus) {
				if tr, ok := tracker.Observe(s); ok && !tr.IsValid() {
					log.Warn("Unexpected status transition", "from", tr.From, "to", tr.To)
				}
				log.Debug("Job status", "status", s.Status, "progress", progressValue(s.Progress))
				if opts.OnProgress != nil {
					opts.OnProgress(s)
				}
			},
		},
	)

	metrics.JobWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JobsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return domain.JobStatus{}, err
	}

	metrics.JobsTotal.WithLabelValues(string(st.Status)).Inc()
	log.Info("Job finished", "status", st.Status, "duration", time.Since(start))
	return st, nil
}

// GetResult fetches one page window of the job's output.
// page starts at 1; limit defaults to DefaultPageLimit and is capped at MaxPageLimit.
func (c *Client) GetResult(ctx context.Context, jobID string, page, limit int) (*domain.JobResult, error) {
	if err := requireJobID(jobID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	res, err := call[domain.JobResult](ctx, c, transport.Request{
		Name:   "get_result",
		Method: http.MethodGet,
		Path:   jobPath(jobID, "result"),
		Query: url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(limit)},
		},
	})
	if err != nil {
		return nil, err
	}

	if res.JobID == "" {
		res.JobID = jobID
	}
	res.Status = job.NormalizeStatus(string(res.Status))
	if res.Pagination.Page == 0 {
		res.Pagination.Page = page
	}
	if res.Pagination.Limit == 0 {
		res.Pagination.Limit = limit
	}
	return &res, nil
}

// GetAllResults walks every result page and returns them as one result.
func (c *Client) GetAllResults(ctx context.Context, jobID string, limit int) (*domain.JobResult, error) {
	var all *domain.JobResult

	for page := 1; page <= maxResultPages; page++ {
		res, err := c.GetResult(ctx, jobID, page, limit)
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = res
		} else {
			all.Pages = append(all.Pages, res.Pages...)
			all.Status = res.Status
			all.Pagination.Total = res.Pagination.Total
			all.Pagination.TotalPages = res.Pagination.TotalPages
		}
		if len(res.Pages) == 0 || !res.Pagination.HasMore() {
			break
		}
	}

	all.Pagination.Page = 1
	all.Pagination.Limit = len(all.Pages)
	if all.Pagination.Total < len(all.Pages) {
		all.Pagination.Total = len(all.Pages)
	}
	all.Pagination.TotalPages = 1
	return all, nil
}

// DeleteJob removes the job and its results. Deleting an unknown job is an
// API error with status 404.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if err := requireJobID(jobID); err != nil {
		return err
	}

	err := retry.Do(ctx, c.policy("delete_job"), func(ctx context.Context) error {
		return c.transport.Do(ctx, transport.Request{
			Name:   "delete_job",
			Method: http.MethodDelete,
			Path:   jobPath(jobID),
		}, nil)
	})
	if err != nil {
		return err
	}
	c.log.Info("Job deleted", "job_id", jobID)
	return nil
}

// outcomeOf labels a failed wait for metrics.
func outcomeOf(err error) string {
	switch ocrerr.KindOf(err) {
	case ocrerr.KindTimeout:
		return "timeout"
	case ocrerr.KindCancelled:
		return "cancelled"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "error"
}

func progressValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
