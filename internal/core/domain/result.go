package domain

// PageResult is the recognized content of a single document page.
type PageResult struct {
	PageNumber int            `json:"pageNumber"`
	Text       string         `json:"text"`
	Markdown   string         `json:"markdown,omitempty"`
	Confidence float64        `json:"confidence"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasMore reports whether a later page exists.
func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}

// JobResult holds one page window of a job's output.
type JobResult struct {
	JobID      string       `json:"jobId"`
	Status     Status       `json:"status"`
	Pages      []PageResult `json:"pages"`
	Pagination Pagination   `json:"pagination"`
}

// Text joins the text of every page, separated by form feeds.
func (r *JobResult) Text() string {
	var n int
	for _, p := range r.Pages {
		n += len(p.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, p := range r.Pages {
		if i > 0 {
			buf = append(buf, '\f')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}
