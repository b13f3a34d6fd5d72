// Package upload splits a payload across presigned part URLs and assembles
// the completion metadata for multipart uploads.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
)

// ContentType is sent with every part.
const ContentType = "application/octet-stream"

// Storage performs a single PUT of body to a presigned URL and returns the
// response headers. Non-2xx responses must be returned as errors.
type Storage interface {
	Put(ctx context.Context, url, contentType string, body []byte) (http.Header, error)
}

// StorageFunc adapts a function to Storage.
type StorageFunc func(ctx context.Context, url, contentType string, body []byte) (http.Header, error)

func (f StorageFunc) Put(ctx context.Context, url, contentType string, body []byte) (http.Header, error) {
	return f(ctx, url, contentType, body)
}

// Completer finalizes a multipart upload with the ordered part list.
type Completer func(ctx context.Context, parts []domain.UploadedPart) error

// Range is the byte window [Start, End) assigned to a part.
type Range struct {
	PartNumber int
	URL        string
	Start      int
	End        int
}

// Orchestrator uploads parts sequentially in part-number order.
type Orchestrator struct {
	storage Storage
	log     *slog.Logger
}

// NewOrchestrator creates an orchestrator writing through storage.
func NewOrchestrator(storage Storage, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{storage: storage, log: log}
}

// Upload PUTs each slice of data to its part URL. Any part failure fails
// the whole upload. complete is invoked only for uploads with more than one
// part and may be nil for single-part uploads.
func (o *Orchestrator) Upload(
	ctx context.Context,
	data []byte,
	parts []domain.UploadPart,
	complete Completer,
) ([]domain.UploadedPart, error) {
	ranges, err := SplitRanges(len(data), parts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	uploaded := make([]domain.UploadedPart, 0, len(ranges))

	for _, r := range ranges {
		partStart := time.Now()
		chunk := data[r.Start:r.End]

		header, err := o.storage.Put(ctx, r.URL, ContentType, chunk)
		if err != nil {
			metrics.UploadPartsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("upload part %d: %w", r.PartNumber, err)
		}

		etag := strings.Trim(strings.TrimSpace(header.Get("ETag")), `"`)
		if etag == "" {
			metrics.UploadPartsTotal.WithLabelValues("error").Inc()
			return nil, &ocrerr.Error{
				Kind:    ocrerr.KindAPI,
				Message: fmt.Sprintf("storage returned no ETag for part %d", r.PartNumber),
				Header:  header,
			}
		}

		metrics.UploadPartsTotal.WithLabelValues("ok").Inc()
		metrics.UploadBytesTotal.Add(float64(len(chunk)))
		o.log.Debug("Uploaded part",
			"part", r.PartNumber,
			"bytes", len(chunk),
			"duration", time.Since(partStart),
		)

		uploaded = append(uploaded, domain.UploadedPart{PartNumber: r.PartNumber, ETag: etag})
	}

	if len(parts) > 1 && len(uploaded) > 0 {
		if complete == nil {
			return nil, fmt.Errorf("multipart upload of %d parts has no completer", len(parts))
		}
		if err := complete(ctx, uploaded); err != nil {
			return nil, fmt.Errorf("complete upload: %w", err)
		}
	}

	o.log.Info("Upload finished",
		"parts", len(uploaded),
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return uploaded, nil
}

// SplitRanges validates part descriptors and assigns each an even share of
// size bytes: chunk = ceil(size/n), part p covers [(p-1)*chunk, min(p*chunk, size)).
// The result is ordered by part number.
func SplitRanges(size int, parts []domain.UploadPart) ([]Range, error) {
	if len(parts) == 0 {
		return nil, ocrerr.NewLocalValidationError("no upload parts provided", nil)
	}

	n := len(parts)
	seen := make(map[int]struct{}, n)
	for i, p := range parts {
		field := fmt.Sprintf("parts[%d]", i)
		switch {
		case p.PartNumber <= 0:
			return nil, invalidPart(field, "missing part number")
		case p.PartNumber > n:
			return nil, invalidPart(field, fmt.Sprintf("part number %d exceeds part count %d", p.PartNumber, n))
		case strings.TrimSpace(p.URL) == "":
			return nil, invalidPart(field, "missing upload url")
		}
		if _, dup := seen[p.PartNumber]; dup {
			return nil, invalidPart(field, fmt.Sprintf("duplicate part number %d", p.PartNumber))
		}
		seen[p.PartNumber] = struct{}{}
	}

	sorted := make([]domain.UploadPart, n)
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	chunk := (size + n - 1) / n
	ranges := make([]Range, n)
	for i, p := range sorted {
		start := min((p.PartNumber-1)*chunk, size)
		ranges[i] = Range{
			PartNumber: p.PartNumber,
			URL:        p.URL,
			Start:      start,
			End:        min(start+chunk, size),
		}
	}
	return ranges, nil
}

func invalidPart(field, msg string) error {
	return ocrerr.NewLocalValidationError("invalid upload part: "+msg, map[string][]string{field: {msg}})
}
