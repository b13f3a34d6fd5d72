package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

// processFlags are shared by every command that submits documents.
type processFlags struct {
	languages []string
	format    string
	pages     string
	tables    bool
	webhook   string
	interval  time.Duration
	maxWait   time.Duration
}

func (f *processFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.languages, "lang", nil, "document languages, e.g. en,vi")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: text, markdown or json")
	cmd.Flags().StringVar(&f.pages, "pages", "", "page selection, e.g. 1-3,5")
	cmd.Flags().BoolVar(&f.tables, "tables", false, "detect tables")
	cmd.Flags().StringVar(&f.webhook, "webhook", "", "url notified when the job finishes")
}

func (f *processFlags) registerWait(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().DurationVar(&f.maxWait, "timeout", 0, "maximum time to wait (default from config)")
}

func (f *processFlags) options() domain.ProcessOptions {
	return domain.ProcessOptions{
		Languages:    f.languages,
		OutputFormat: domain.OutputFormat(f.format),
		Pages:        f.pages,
		DetectTables: f.tables,
		WebhookURL:   f.webhook,
	}
}

func (f *processFlags) wait(onProgress func(domain.JobStatus)) ocr.WaitOptions {
	return ocr.WaitOptions{
		Interval:   f.interval,
		MaxWait:    f.maxWait,
		OnProgress: onProgress,
	}
}
