package ocr

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
	"github.com/vietddude/ocrflow/internal/infra/ocr/transport"
)

func newTestClient(t *testing.T, f *fakeService) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL: f.server.URL,
		APIKey:  "test-key",
		Retry: &retry.Policy{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
		PollInterval: time.Millisecond,
		MaxWait:      2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func mustTransport(t *testing.T, f *fakeService) *transport.HTTPTransport {
	t.Helper()
	tr, err := transport.New(transport.Config{BaseURL: f.server.URL})
	require.NoError(t, err)
	return tr
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestClient_ProcessFile_SinglePart(t *testing.T) {
	// Arrange
	f := newFakeService(t)
	c := newTestClient(t, f)
	path := writeTemp(t, "receipt.png", []byte("png-bytes"))

	// Act
	res, err := c.ProcessFile(context.Background(), path, domain.ProcessOptions{Languages: []string{"en"}}, WaitOptions{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "page 1 of job-1", res.Pages[0].Text)

	assert.Equal(t, []byte("png-bytes"), f.uploads["/storage/job-1/1"])
	assert.Empty(t, f.completed, "single-part uploads are not completed")

	require.Len(t, f.initiations, 1)
	assert.Equal(t, "receipt.png", f.initiations[0]["fileName"])
	assert.Equal(t, "image/png", f.initiations[0]["contentType"])
	assert.EqualValues(t, 9, f.initiations[0]["fileSize"])
}

func TestClient_SubmitBytes_Multipart(t *testing.T) {
	// Arrange
	f := newFakeService(t)
	f.partCount = 3
	c := newTestClient(t, f)
	data := []byte(strings.Repeat("a", 100) + strings.Repeat("b", 100) + strings.Repeat("c", 100))

	// Act
	jobID, err := c.SubmitBytes(context.Background(), "book.pdf", data, domain.ProcessOptions{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 100), string(f.uploads["/storage/"+jobID+"/1"]))
	assert.Equal(t, strings.Repeat("b", 100), string(f.uploads["/storage/"+jobID+"/2"]))
	assert.Equal(t, strings.Repeat("c", 100), string(f.uploads["/storage/"+jobID+"/3"]))

	require.Len(t, f.completed[jobID], 3)
	for i, p := range f.completed[jobID] {
		assert.Equal(t, i+1, p.PartNumber)
		assert.NotContains(t, p.ETag, `"`)
	}
}

func TestClient_SubmitFile_LocalValidationMakesNoCalls(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)

	tests := []struct {
		name string
		path string
	}{
		{"unsupported", writeTemp(t, "notes.txt", []byte("hi"))},
		{"empty", writeTemp(t, "empty.pdf", nil)},
		{"missing", filepath.Join(t.TempDir(), "gone.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SubmitFile(context.Background(), tt.path, domain.ProcessOptions{})
			assert.ErrorIs(t, err, ocrerr.ErrLocalValidation)
		})
	}
	assert.Zero(t, f.count(http.MethodPost, "/v1/jobs"))
}

func TestClient_SubmitBytes_InvalidOptions(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)

	_, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("x"), domain.ProcessOptions{Pages: "3-1"})

	assert.Equal(t, ocrerr.KindLocalValidation, ocrerr.KindOf(err))
	assert.Zero(t, f.count(http.MethodPost, "/v1/jobs"))
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	// Arrange
	f := newFakeService(t)
	f.failNext("/v1/jobs", http.StatusServiceUnavailable, http.StatusTooManyRequests)
	c := newTestClient(t, f)

	var retries []int
	c.retry.OnRetry = func(attempt int, err error) { retries = append(retries, attempt) }

	// Act
	jobID, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("x"), domain.ProcessOptions{})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
	assert.Equal(t, 3, f.count(http.MethodPost, "/v1/jobs"))
	assert.Equal(t, []int{1, 2}, retries)
}

func TestClient_FatalErrorIsNotRetried(t *testing.T) {
	f := newFakeService(t)
	f.failNext("/v1/jobs", http.StatusUnauthorized)
	c := newTestClient(t, f)

	_, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("x"), domain.ProcessOptions{})

	var e *ocrerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ocrerr.KindAuthentication, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
	assert.Equal(t, "injected failure", e.Message)
	assert.Equal(t, 1, f.count(http.MethodPost, "/v1/jobs"))
}

func TestClient_ExhaustedRetriesReturnLastError(t *testing.T) {
	f := newFakeService(t)
	f.failNext("/v1/jobs", 500, 502, 504)
	c := newTestClient(t, f)

	_, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("x"), domain.ProcessOptions{})

	var e *ocrerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusGatewayTimeout, e.StatusCode)
	assert.Equal(t, 3, f.count(http.MethodPost, "/v1/jobs"))
}

func TestClient_ZeroMaxRetriesMakesOneAttempt(t *testing.T) {
	f := newFakeService(t)
	f.failNext("/v1/jobs", http.StatusServiceUnavailable)
	c, err := NewClient(Options{
		BaseURL: f.server.URL,
		Retry:   &retry.Policy{MaxRetries: 0},
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.SubmitBytes(context.Background(), "a.pdf", []byte("x"), domain.ProcessOptions{})

	var e *ocrerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusServiceUnavailable, e.StatusCode)
	assert.Equal(t, 1, f.count(http.MethodPost, "/v1/jobs"))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "no backoff sleep expected")
}

func TestNewClientWithTransport_NilRetryUsesDefault(t *testing.T) {
	c := NewClientWithTransport(nil, Options{})
	assert.Equal(t, retry.DefaultPolicy.MaxRetries, c.retry.MaxRetries)
	assert.Equal(t, retry.DefaultPolicy.InitialDelay, c.retry.InitialDelay)

	c = NewClientWithTransport(nil, Options{Retry: &retry.Policy{MaxRetries: 0, InitialDelay: time.Millisecond}})
	assert.Zero(t, c.retry.MaxRetries)
}

func TestClient_PartFailureFailsUpload(t *testing.T) {
	f := newFakeService(t)
	f.partCount = 2
	f.failNext("/storage/job-1/2", http.StatusInternalServerError)
	c := newTestClient(t, f)

	_, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("0123456789"), domain.ProcessOptions{})

	require.Error(t, err)
	assert.Equal(t, 1, f.count(http.MethodPut, "/storage/job-1/2"), "parts are not retried by default")
	assert.Empty(t, f.completed)
}

func TestClient_RetryPartsOption(t *testing.T) {
	f := newFakeService(t)
	f.partCount = 2
	f.failNext("/storage/job-1/2", http.StatusInternalServerError)
	c := newTestClient(t, f)
	c.retryParts = true

	jobID, err := c.SubmitBytes(context.Background(), "a.pdf", []byte("0123456789"), domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, f.count(http.MethodPut, "/storage/job-1/2"))
	assert.Len(t, f.completed[jobID], 2)
}

func TestClient_WaitForCompletion_ReportsProgress(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("", "pending", "processing", "completed")

	var seen []domain.JobStatus
	st, err := c.WaitForCompletion(context.Background(), jobID, WaitOptions{
		OnProgress: func(s domain.JobStatus) { seen = append(seen, s) },
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, st.Status)
	require.Len(t, seen, 4)
	assert.Equal(t, domain.StatusPending, seen[0].Status, "missing status defaults to pending")
	assert.Nil(t, seen[0].Progress)
	require.NotNil(t, seen[2].Progress)
	assert.Equal(t, 50, *seen[2].Progress)
	assert.Equal(t, jobID, st.ID)
}

func TestClient_WaitForCompletion_FailedIsNotAnError(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("processing", "failed")
	f.jobErrors[jobID] = &domain.JobError{Code: "UNREADABLE", Message: "image too blurry"}

	st, err := c.WaitForCompletion(context.Background(), jobID, WaitOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, st.Status)
	require.NotNil(t, st.Error)
	assert.Equal(t, "UNREADABLE", st.Error.Code)

	jobErr := FailureError(st)
	assert.ErrorIs(t, jobErr, ocrerr.ErrJobFailed)
	e, _ := ocrerr.As(jobErr)
	assert.Equal(t, jobID, e.JobID)
}

func TestClient_ProcessURL_FailedJob(t *testing.T) {
	f := newFakeService(t)
	f.script("failed")
	c := newTestClient(t, f)

	_, err := c.ProcessURL(context.Background(), "https://docs.example.com/a.pdf", domain.ProcessOptions{}, WaitOptions{})

	assert.Equal(t, ocrerr.KindJobFailed, ocrerr.KindOf(err))
	assert.Zero(t, f.count(http.MethodGet, "/v1/jobs/job-1/result"))
}

func TestClient_WaitForCompletion_Timeout(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("processing")

	_, err := c.WaitForCompletion(context.Background(), jobID, WaitOptions{
		Interval: 5 * time.Millisecond,
		MaxWait:  30 * time.Millisecond,
	})

	var e *ocrerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ocrerr.KindTimeout, e.Kind)
	assert.Equal(t, 30*time.Millisecond, e.Deadline)
}

func TestClient_WaitForCompletion_Cancelled(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("processing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.WaitForCompletion(ctx, jobID, WaitOptions{})

	assert.ErrorIs(t, err, ocrerr.ErrCancelled)
	assert.Zero(t, f.count(http.MethodGet, "/v1/jobs/"+jobID))
}

func TestClient_GetAllResults_Paginates(t *testing.T) {
	f := newFakeService(t)
	f.pages = 3
	c := newTestClient(t, f)
	jobID := f.newJob("completed")

	res, err := c.GetAllResults(context.Background(), jobID, 1)

	require.NoError(t, err)
	require.Len(t, res.Pages, 3)
	for i, p := range res.Pages {
		assert.Equal(t, i+1, p.PageNumber)
	}
	assert.Equal(t, 3, f.count(http.MethodGet, "/v1/jobs/"+jobID+"/result"))
	assert.Equal(t, "page 1 of "+jobID+"\fpage 2 of "+jobID+"\fpage 3 of "+jobID, res.Text())
}

func TestClient_GetResult_ClampsPaging(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("completed")

	res, err := c.GetResult(context.Background(), jobID, 0, 1000)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, MaxPageLimit, res.Pagination.Limit)
}

func TestClient_DeleteJob(t *testing.T) {
	f := newFakeService(t)
	c := newTestClient(t, f)
	jobID := f.newJob("completed")

	require.NoError(t, c.DeleteJob(context.Background(), jobID))

	err := c.DeleteJob(context.Background(), jobID)
	var e *ocrerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
	assert.Equal(t, 2, f.count(http.MethodDelete, "/v1/jobs/"+jobID), "404 is not retried")
}

func TestClient_EmptyJobID(t *testing.T) {
	c := newTestClient(t, newFakeService(t))

	_, err := c.GetStatus(context.Background(), " ")
	assert.ErrorIs(t, err, ocrerr.ErrLocalValidation)
	assert.ErrorIs(t, c.DeleteJob(context.Background(), ""), ocrerr.ErrLocalValidation)
}

func TestClient_SubmitURL_ServerValidation(t *testing.T) {
	f := newFakeService(t)
	c := NewClientWithTransport(mustTransport(t, f), Options{})

	_, err := c.SubmitURL(context.Background(), "ftp://nope", domain.ProcessOptions{})
	assert.ErrorIs(t, err, ocrerr.ErrLocalValidation)
	assert.Zero(t, f.count(http.MethodPost, "/v1/jobs/url"))

	jobID, err := c.SubmitURL(context.Background(), "https://docs.example.com/a.pdf", domain.ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: ""})
	assert.Error(t, err)
}

func TestKindOf_ReExport(t *testing.T) {
	assert.Equal(t, KindRateLimit, KindOf(ocrerr.FromResponse(429, nil, nil)))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
