package domain

type OutputFormat string

const (
	OutputFormatText     OutputFormat = "text"
	OutputFormatMarkdown OutputFormat = "markdown"
	OutputFormatJSON     OutputFormat = "json"
)

// ProcessOptions are forwarded to the service with every submission.
type ProcessOptions struct {
	Languages    []string     `json:"languages,omitempty"`
	OutputFormat OutputFormat `json:"outputFormat,omitempty"`
	Pages        string       `json:"pages,omitempty"` // e.g. "1-3,5"
	DetectTables bool         `json:"detectTables,omitempty"`
	WebhookURL   string       `json:"webhookUrl,omitempty"`
}
