package ocr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/core/validate"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
	"github.com/vietddude/ocrflow/internal/infra/ocr/transport"
	"github.com/vietddude/ocrflow/internal/infra/ocr/upload"
)

type initiateUploadRequest struct {
	FileName    string                `json:"fileName"`
	FileSize    int64                 `json:"fileSize"`
	ContentType string                `json:"contentType"`
	Options     domain.ProcessOptions `json:"options"`
}

type initiateURLRequest struct {
	URL     string                `json:"url"`
	Options domain.ProcessOptions `json:"options"`
}

type completeUploadRequest struct {
	Parts []domain.UploadedPart `json:"parts"`
}

type jobCreatedResponse struct {
	JobID string `json:"jobId"`
}

// SubmitFile validates and uploads the file at path and returns the job id.
func (c *Client) SubmitFile(ctx context.Context, path string, opts domain.ProcessOptions) (string, error) {
	if err := validate.Check(validate.File(path, c.limits), "file"); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ocrerr.NewLocalValidationError(fmt.Sprintf("read %s: %v", path, err), nil)
	}
	return c.SubmitBytes(ctx, filepath.Base(path), data, opts)
}

// SubmitBytes uploads an in-memory document named name and returns the job id.
func (c *Client) SubmitBytes(ctx context.Context, name string, data []byte, opts domain.ProcessOptions) (string, error) {
	if err := validate.Check(validate.Bytes(name, int64(len(data)), c.limits), "file"); err != nil {
		return "", err
	}
	if err := validate.Check(validate.Options(opts), "options"); err != nil {
		return "", err
	}

	session, err := call[domain.UploadSession](ctx, c, transport.Request{
		Name:   "initiate_upload",
		Method: http.MethodPost,
		Path:   "/v1/jobs",
		Body: initiateUploadRequest{
			FileName:    name,
			FileSize:    int64(len(data)),
			ContentType: validate.ContentType(name),
			Options:     opts,
		},
	})
	if err != nil {
		return "", err
	}
	if session.JobID == "" {
		return "", &ocrerr.Error{Kind: ocrerr.KindAPI, Message: "initiate upload returned no job id"}
	}

	log := c.log.With("job_id", session.JobID)
	log.Debug("Upload initiated", "file", name, "type", session.UploadType, "parts", len(session.Parts))

	complete := func(ctx context.Context, parts []domain.UploadedPart) error {
		return c.CompleteUpload(ctx, session.JobID, parts)
	}

	parts, err := upload.NewOrchestrator(c.storage(), log).Upload(ctx, data, session.Parts, complete)
	if err != nil {
		return "", err
	}

	// The orchestrator only completes uploads with several parts; a
	// multipart session that was issued a single part still needs it.
	if session.UploadType == domain.UploadTypeMultipart && len(parts) == 1 {
		if err := complete(ctx, parts); err != nil {
			return "", fmt.Errorf("complete upload: %w", err)
		}
	}

	log.Info("Job submitted", "file", name, "bytes", len(data))
	return session.JobID, nil
}

// SubmitURL asks the service to fetch the document itself.
func (c *Client) SubmitURL(ctx context.Context, documentURL string, opts domain.ProcessOptions) (string, error) {
	if err := validate.Check(validate.URL(documentURL), "url"); err != nil {
		return "", err
	}
	if err := validate.Check(validate.Options(opts), "options"); err != nil {
		return "", err
	}

	resp, err := call[jobCreatedResponse](ctx, c, transport.Request{
		Name:   "initiate_url_upload",
		Method: http.MethodPost,
		Path:   "/v1/jobs/url",
		Body:   initiateURLRequest{URL: documentURL, Options: opts},
	})
	if err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", &ocrerr.Error{Kind: ocrerr.KindAPI, Message: "url upload returned no job id"}
	}

	c.log.Info("Job submitted", "job_id", resp.JobID, "url", documentURL)
	return resp.JobID, nil
}

// CompleteUpload finalizes a multipart upload with the ordered part list.
func (c *Client) CompleteUpload(ctx context.Context, jobID string, parts []domain.UploadedPart) error {
	if err := requireJobID(jobID); err != nil {
		return err
	}
	if len(parts) == 0 {
		return ocrerr.NewLocalValidationError("no uploaded parts to complete", nil)
	}

	return retry.Do(ctx, c.policy("complete_upload"), func(ctx context.Context) error {
		return c.transport.Do(ctx, transport.Request{
			Name:   "complete_upload",
			Method: http.MethodPost,
			Path:   jobPath(jobID, "complete"),
			Body:   completeUploadRequest{Parts: parts},
		}, nil)
	})
}

// ProcessFile submits path, waits for a terminal status and returns every
// result page. A failed job is returned as a KindJobFailed error.
func (c *Client) ProcessFile(ctx context.Context, path string, opts domain.ProcessOptions, wait WaitOptions) (*domain.JobResult, error) {
	jobID, err := c.SubmitFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, jobID, wait)
}

// ProcessBytes is ProcessFile for in-memory documents.
func (c *Client) ProcessBytes(ctx context.Context, name string, data []byte, opts domain.ProcessOptions, wait WaitOptions) (*domain.JobResult, error) {
	jobID, err := c.SubmitBytes(ctx, name, data, opts)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, jobID, wait)
}

// ProcessURL is ProcessFile for remote documents.
func (c *Client) ProcessURL(ctx context.Context, documentURL string, opts domain.ProcessOptions, wait WaitOptions) (*domain.JobResult, error) {
	jobID, err := c.SubmitURL(ctx, documentURL, opts)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, jobID, wait)
}

func (c *Client) finish(ctx context.Context, jobID string, wait WaitOptions) (*domain.JobResult, error) {
	st, err := c.WaitForCompletion(ctx, jobID, wait)
	if err != nil {
		return nil, err
	}
	if err := FailureError(st); err != nil {
		return nil, err
	}
	return c.GetAllResults(ctx, jobID, MaxPageLimit)
}

// FailureError returns a KindJobFailed error for a failed status, nil otherwise.
func FailureError(st domain.JobStatus) error {
	if st.Status != domain.StatusFailed {
		return nil
	}
	var code, msg string
	if st.Error != nil {
		code, msg = st.Error.Code, st.Error.Message
	}
	return ocrerr.NewJobFailedError(st.ID, code, msg)
}
