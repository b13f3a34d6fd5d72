package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
)

// fakeService imitates the OCR API and its presigned storage.
type fakeService struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	nextID      int
	partCount   int                     // parts handed out per direct upload
	statuses    map[string][]string     // job id -> remaining statuses to report
	jobErrors   map[string]*domain.JobError
	uploads     map[string][]byte       // storage path -> body
	completed   map[string][]domain.UploadedPart
	deleted     map[string]bool
	pages       int                     // result pages per job
	failStatus  map[string][]int        // path -> status codes to return first
	calls       map[string]int          // "METHOD path" -> count
	initiations []map[string]any
}

func newFakeService(t *testing.T) *fakeService {
	f := &fakeService{
		t:          t,
		partCount:  1,
		statuses:   map[string][]string{},
		jobErrors:  map[string]*domain.JobError{},
		uploads:    map[string][]byte{},
		completed:  map[string][]domain.UploadedPart{},
		deleted:    map[string]bool{},
		pages:      1,
		failStatus: map[string][]int{},
		calls:      map[string]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

// failNext makes the next requests to path answer with the given codes.
func (f *fakeService) failNext(path string, codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus[path] = append(f.failStatus[path], codes...)
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.Method+" "+r.URL.Path]++
	if codes := f.failStatus[r.URL.Path]; len(codes) > 0 {
		f.failStatus[r.URL.Path] = codes[1:]
		f.mu.Unlock()
		if codes[0] == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "0")
		}
		w.WriteHeader(codes[0])
		_, _ = io.WriteString(w, `{"error":{"code":"INJECTED","message":"injected failure"}}`)
		return
	}
	f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/storage/"):
		f.handlePut(w, r)
	case r.Method == http.MethodPost && path == "/v1/jobs":
		f.handleInitiate(w, r)
	case r.Method == http.MethodPost && path == "/v1/jobs/url":
		f.handleInitiateURL(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/complete"):
		f.handleComplete(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/result"):
		f.handleResult(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/jobs/"):
		f.handleStatus(w, r)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/v1/jobs/"):
		f.handleDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) newJob(statuses ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("job-%d", f.nextID)
	if len(statuses) == 0 {
		statuses = []string{"processing", "completed"}
	}
	f.statuses[id] = statuses
	return id
}

// script sets the statuses reported for jobs created from now on.
func (f *fakeService) script(statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses["*"] = statuses
}

func (f *fakeService) createJob() string {
	f.mu.Lock()
	scripted := f.statuses["*"]
	f.mu.Unlock()
	return f.newJob(scripted...)
}

func (f *fakeService) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Errorf("decode initiate body: %v", err)
	}
	id := f.createJob()

	f.mu.Lock()
	f.initiations = append(f.initiations, body)
	n := f.partCount
	f.mu.Unlock()

	parts := make([]domain.UploadPart, n)
	for i := range parts {
		parts[i] = domain.UploadPart{
			PartNumber: i + 1,
			URL:        fmt.Sprintf("%s/storage/%s/%d?sig=x", f.server.URL, id, i+1),
		}
	}
	uploadType := domain.UploadTypeSingle
	if n > 1 {
		uploadType = domain.UploadTypeMultipart
	}
	writeJSON(w, http.StatusCreated, domain.UploadSession{JobID: id, UploadType: uploadType, Parts: parts})
}

func (f *fakeService) handleInitiateURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.URL == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "invalid",
			"errors":  map[string]any{"url": "required"},
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": f.createJob()})
}

func (f *fakeService) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		f.t.Errorf("storage method = %s", r.Method)
	}
	if r.Header.Get("Authorization") != "" {
		f.t.Error("storage PUT carried the API key")
	}
	b, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.uploads[r.URL.Path] = b
	f.mu.Unlock()

	w.Header().Set("ETag", `"`+strings.ReplaceAll(strings.TrimPrefix(r.URL.Path, "/storage/"), "/", "-")+`"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeService) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"), "/complete")
	var body struct {
		Parts []domain.UploadedPart `json:"parts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Errorf("decode complete body: %v", err)
	}

	f.mu.Lock()
	f.completed[id] = body.Parts
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeService) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")

	f.mu.Lock()
	seq, ok := f.statuses[id]
	if !ok || f.deleted[id] {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "job not found"})
		return
	}
	status := seq[0]
	if len(seq) > 1 {
		f.statuses[id] = seq[1:]
	}
	jobErr := f.jobErrors[id]
	f.mu.Unlock()

	payload := map[string]any{"jobId": id, "createdAt": time.Now().Add(-time.Minute).Format(time.RFC3339)}
	if status != "" {
		payload["status"] = status
	}
	if status == "processing" {
		payload["progress"] = 50
	}
	if jobErr != nil && status == "failed" {
		payload["error"] = jobErr
	}
	writeJSON(w, http.StatusOK, payload)
}

func (f *fakeService) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"), "/result")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	f.mu.Lock()
	total := f.pages
	f.mu.Unlock()

	var pages []domain.PageResult
	if page <= total {
		pages = []domain.PageResult{{PageNumber: page, Text: fmt.Sprintf("page %d of %s", page, id), Confidence: 0.9}}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":  id,
		"status": "completed",
		"pages":  pages,
		"pagination": map[string]int{
			"page": page, "limit": limit, "total": total, "totalPages": total,
		},
	})
}

func (f *fakeService) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[id]; !ok || f.deleted[id] {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.deleted[id] = true
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
