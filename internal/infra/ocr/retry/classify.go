package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vietddude/ocrflow/internal/core/ocrerr"
)

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

func (a ErrorAction) String() string {
	if a == ActionFatal {
		return "fatal"
	}
	return "retry"
}

// ClassifyError determines the action for a given error.
//
// Responses are retried on 5xx, 429 and 408; every other status is fatal.
// Errors without a status code are network-level failures and are retried,
// except for client-side kinds (local validation, job failure, timeout,
// cancellation) and a caller's own context error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	e, ok := ocrerr.As(err)

	// Caller cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return ActionFatal
	}
	if errors.Is(err, context.DeadlineExceeded) && (!ok || e.Subcode != ocrerr.SubcodeTimeout) {
		return ActionFatal
	}

	if !ok {
		return ActionRetry
	}

	switch e.Kind {
	case ocrerr.KindLocalValidation, ocrerr.KindJobFailed, ocrerr.KindTimeout, ocrerr.KindCancelled:
		return ActionFatal
	}

	return classifyStatus(e.StatusCode)
}

func classifyStatus(status int) ErrorAction {
	switch {
	case status == 0:
		return ActionRetry
	case status >= 500:
		return ActionRetry
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return ActionRetry
	default:
		return ActionFatal
	}
}

// RetryAfter extracts the server-suggested delay from the error's response
// headers. Only integer seconds are honored.
func RetryAfter(err error) (time.Duration, bool) {
	e, ok := ocrerr.As(err)
	if !ok {
		return 0, false
	}
	return ocrerr.ParseRetryAfter(e.Header)
}
