// Package ocr provides a resilient client for an asynchronous OCR service.
//
// A submission returns a job id immediately; the job then moves through
// pending, processing and finally completed or failed. This package offers:
//   - Direct and multipart uploads to presigned storage URLs
//   - URL-based submissions
//   - Retry with exponential backoff, jitter and Retry-After support
//   - Status polling with progress reporting, deadline and cancellation
//   - Paginated result retrieval
//   - Bounded batch processing
//
// # Quick Start
//
//	import "github.com/vietddude/ocrflow/internal/infra/ocr"
//
//	client, err := ocr.NewClient(ocr.Options{
//	    BaseURL: "https://ocr.example.com/api",
//	    APIKey:  os.Getenv("OCR_API_KEY"),
//	})
//
//	// Submit, wait and fetch every page in one call
//	result, err := client.ProcessFile(ctx, "invoice.pdf", ocr.ProcessOptions{}, ocr.WaitOptions{})
//
// # Step by Step
//
//	jobID, err := client.SubmitFile(ctx, "scan.png", ocr.ProcessOptions{Languages: []string{"en"}})
//	status, err := client.WaitForCompletion(ctx, jobID, ocr.WaitOptions{
//	    OnProgress: func(s ocr.JobStatus) { log.Printf("%s %v", s.Status, s.Progress) },
//	})
//	if status.Status == ocr.StatusFailed {
//	    // inspect status.Error
//	}
//	page, err := client.GetResult(ctx, jobID, 1, 20)
//
// # Errors
//
// Every error produced by the client is an *ocrerr.Error (possibly wrapped).
// Branch on its kind:
//
//	switch ocr.KindOf(err) {
//	case ocr.KindRateLimit, ocr.KindNetwork:
//	    // retry later
//	case ocr.KindValidation, ocr.KindLocalValidation:
//	    // fix the input
//	case ocr.KindJobFailed:
//	    // the job will never complete as submitted
//	}
//
// # Package Structure
//
//   - retry/     - Error classification and the retry executor
//   - poll/      - Generic poll loop
//   - upload/    - Part splitting and multipart orchestration
//   - transport/ - Single HTTP calls and error mapping
//
// Most types are re-exported at the root level for convenience.
package ocr

import (
	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
)

// =============================================================================
// Re-exported domain types
// =============================================================================

type (
	JobStatus      = domain.JobStatus
	Status         = domain.Status
	JobError       = domain.JobError
	JobResult      = domain.JobResult
	PageResult     = domain.PageResult
	ProcessOptions = domain.ProcessOptions
	UploadedPart   = domain.UploadedPart
)

// Job status constants
const (
	StatusPending    = domain.StatusPending
	StatusProcessing = domain.StatusProcessing
	StatusCompleted  = domain.StatusCompleted
	StatusFailed     = domain.StatusFailed
)

// =============================================================================
// Re-exported retry types
// =============================================================================

// RetryPolicy defines retry behavior.
type RetryPolicy = retry.Policy

// DefaultRetryPolicy provides sensible defaults.
var DefaultRetryPolicy = retry.DefaultPolicy

// =============================================================================
// Re-exported error types
// =============================================================================

// Error is the structured error returned by the client.
type Error = ocrerr.Error

// ErrorKind identifies the failure class of an Error.
type ErrorKind = ocrerr.Kind

// Error kinds
const (
	KindAuthentication  = ocrerr.KindAuthentication
	KindAuthorization   = ocrerr.KindAuthorization
	KindRateLimit       = ocrerr.KindRateLimit
	KindValidation      = ocrerr.KindValidation
	KindLocalValidation = ocrerr.KindLocalValidation
	KindJobFailed       = ocrerr.KindJobFailed
	KindTimeout         = ocrerr.KindTimeout
	KindCancelled       = ocrerr.KindCancelled
	KindNetwork         = ocrerr.KindNetwork
	KindAPI             = ocrerr.KindAPI
)

// KindOf returns the kind of the first Error in err's chain.
func KindOf(err error) ErrorKind {
	return ocrerr.KindOf(err)
}
