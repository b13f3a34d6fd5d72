// Package ocrerr defines the error variant shared by every layer of the OCR
// client. Each error carries a Kind so callers can branch on the failure
// class with errors.As or errors.Is instead of matching message text.
package ocrerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the failure class of an Error.
type Kind string

const (
	// Remote API rejections
	KindAuthentication Kind = "AUTHENTICATION_FAILED"
	KindAuthorization  Kind = "AUTHORIZATION_FAILED"
	KindRateLimit      Kind = "RATE_LIMITED"
	KindValidation     Kind = "VALIDATION_FAILED"
	KindAPI            Kind = "API_ERROR"

	// Raised before any network call
	KindLocalValidation Kind = "INVALID_INPUT"

	// Job lifecycle and orchestration
	KindJobFailed Kind = "JOB_FAILED"
	KindTimeout   Kind = "TIMEOUT"
	KindCancelled Kind = "CANCELLED"

	// No response received
	KindNetwork Kind = "NETWORK_ERROR"
)

// Network subcodes.
const (
	SubcodeTimeout = "timeout"
	SubcodeAborted = "aborted"
)

// Sentinels for errors.Is checks. They match any Error of the same kind.
var (
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrRateLimited     = &Error{Kind: KindRateLimit}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrLocalValidation = &Error{Kind: KindLocalValidation}
	ErrJobFailed       = &Error{Kind: KindJobFailed}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrCancelled       = &Error{Kind: KindCancelled}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrAPI             = &Error{Kind: KindAPI}
)

// Error is the structured error returned by the client.
// Only the payload fields relevant to Kind are populated.
type Error struct {
	Kind    Kind
	Message string

	// Response context, set for every kind produced from an HTTP response.
	StatusCode int
	Header     http.Header
	Body       []byte
	Code       string // server or job error code

	RetryAfter time.Duration       // KindRateLimit, zero when the server sent none
	Fields     map[string][]string // KindValidation, KindLocalValidation
	JobID      string              // KindJobFailed
	Deadline   time.Duration       // KindTimeout
	Subcode    string              // KindNetwork

	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As returns the first Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// NewLocalValidationError reports input rejected before any network call.
func NewLocalValidationError(message string, fields map[string][]string) *Error {
	return &Error{
		Kind:    KindLocalValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewJobFailedError reports a job that reached the failed terminal status.
func NewJobFailedError(jobID, code, message string) *Error {
	msg := fmt.Sprintf("job %s failed", jobID)
	if message != "" {
		msg += ": " + message
	}
	return &Error{
		Kind:    KindJobFailed,
		Message: msg,
		Code:    code,
		JobID:   jobID,
	}
}

// NewTimeoutError reports a poll deadline that elapsed.
func NewTimeoutError(deadline time.Duration) *Error {
	return &Error{
		Kind:     KindTimeout,
		Message:  fmt.Sprintf("operation did not complete within %v", deadline),
		Deadline: deadline,
	}
}

// NewCancelledError reports a caller-requested cancellation.
func NewCancelledError(cause error) *Error {
	return &Error{
		Kind:    KindCancelled,
		Message: "operation cancelled",
		Cause:   cause,
	}
}

// Network wraps a transport failure where no response was received.
func Network(cause error) *Error {
	e := &Error{
		Kind:    KindNetwork,
		Message: "request failed",
		Cause:   cause,
	}

	var netErr net.Error
	switch {
	case errors.Is(cause, context.Canceled):
		e.Subcode = SubcodeAborted
	case errors.Is(cause, context.DeadlineExceeded):
		e.Subcode = SubcodeTimeout
	case errors.As(cause, &netErr) && netErr.Timeout():
		e.Subcode = SubcodeTimeout
	}
	return e
}

// FromResponse maps a non-2xx response to an Error of the matching kind.
func FromResponse(status int, header http.Header, body []byte) *Error {
	parsed := parseBody(body)

	e := &Error{
		Message:    parsed.message,
		StatusCode: status,
		Header:     header,
		Body:       body,
		Code:       parsed.code,
	}
	if e.Message == "" {
		e.Message = strings.ToLower(http.StatusText(status))
	}

	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindAuthentication
	case http.StatusForbidden:
		e.Kind = KindAuthorization
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimit
		if d, ok := ParseRetryAfter(header); ok {
			e.RetryAfter = d
		}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Fields = parsed.fields
	default:
		e.Kind = KindAPI
	}
	return e
}

// ParseRetryAfter reads an integer Retry-After header as seconds.
// HTTP-date values and garbage are ignored.
func ParseRetryAfter(header http.Header) (time.Duration, bool) {
	if header == nil {
		return 0, false
	}
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
