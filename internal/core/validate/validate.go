// Package validate checks caller input before any network call is made.
package validate

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
)

// DefaultMaxFileSize is the service's upload cap.
const DefaultMaxFileSize int64 = 100 << 20

// contentTypes lists the accepted extensions and their upload content type.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Limits bounds what File and Bytes accept.
type Limits struct {
	MaxFileSize       int64
	AllowedExtensions []string // with leading dot; empty means every known type
}

// DefaultLimits returns the service defaults.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize}
}

func ok() domain.ValidationResult {
	return domain.ValidationResult{Valid: true}
}

func fail(format string, args ...any) domain.ValidationResult {
	return domain.ValidationResult{Error: fmt.Sprintf(format, args...)}
}

// File stats path and checks type, emptiness and size.
func File(path string, limits Limits) domain.ValidationResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail("file not found: %s", path)
		}
		return fail("cannot access file: %v", err)
	}
	if !info.Mode().IsRegular() {
		return fail("not a regular file: %s", path)
	}
	return Bytes(filepath.Base(path), info.Size(), limits)
}

// Bytes checks an in-memory payload by name and size.
func Bytes(name string, size int64, limits Limits) domain.ValidationResult {
	ext := strings.ToLower(filepath.Ext(name))
	if !extensionAllowed(ext, limits.AllowedExtensions) {
		if ext == "" {
			return fail("file %q has no extension", name)
		}
		return fail("unsupported file type %q", ext)
	}
	if size <= 0 {
		return fail("file %q is empty", name)
	}
	limit := limits.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if size > limit {
		return fail("file %q is %d bytes, limit is %d", name, size, limit)
	}
	return ok()
}

// ContentType returns the upload content type for name.
func ContentType(name string) string {
	if ct, found := contentTypes[strings.ToLower(filepath.Ext(name))]; found {
		return ct
	}
	return "application/octet-stream"
}

// SupportedExtensions returns every extension the service understands.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(contentTypes))
	for ext := range contentTypes {
		exts = append(exts, ext)
	}
	return exts
}

func extensionAllowed(ext string, allowed []string) bool {
	if _, known := contentTypes[ext]; !known {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		a = strings.ToLower(a)
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}

// URL accepts absolute http(s) URLs with a host.
func URL(raw string) domain.ValidationResult {
	if strings.TrimSpace(raw) == "" {
		return fail("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fail("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fail("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fail("url %q has no host", raw)
	}
	return ok()
}

var (
	pagesPattern    = regexp.MustCompile(`^\d+(-\d+)?(,\d+(-\d+)?)*$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}([_-][A-Za-z]{2,4})?$`)
)

// Options checks processing options.
func Options(opts domain.ProcessOptions) domain.ValidationResult {
	switch opts.OutputFormat {
	case "", domain.OutputFormatText, domain.OutputFormatMarkdown, domain.OutputFormatJSON:
	default:
		return fail("unsupported output format %q", opts.OutputFormat)
	}

	for _, lang := range opts.Languages {
		if !languagePattern.MatchString(lang) {
			return fail("invalid language code %q", lang)
		}
	}

	if opts.Pages != "" {
		if r := pages(opts.Pages); !r.Valid {
			return r
		}
	}

	if opts.WebhookURL != "" {
		if r := URL(opts.WebhookURL); !r.Valid {
			return fail("webhook: %s", r.Error)
		}
	}
	return ok()
}

func pages(sel string) domain.ValidationResult {
	compact := strings.ReplaceAll(sel, " ", "")
	if !pagesPattern.MatchString(compact) {
		return fail("invalid page selection %q", sel)
	}
	for _, part := range strings.Split(compact, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		from, _ := strconv.Atoi(lo)
		to := from
		if isRange {
			to, _ = strconv.Atoi(hi)
		}
		if from < 1 || to < from {
			return fail("invalid page range %q", part)
		}
	}
	return ok()
}

// Check converts a failed result into a local validation error.
func Check(r domain.ValidationResult, field string) error {
	if r.Valid {
		return nil
	}
	var fields map[string][]string
	if field != "" {
		fields = map[string][]string{field: {r.Error}}
	}
	return ocrerr.NewLocalValidationError(r.Error, fields)
}
