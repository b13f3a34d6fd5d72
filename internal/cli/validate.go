package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/ocrflow/internal/core/domain"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/core/validate"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
)

var validateOpts processFlags

var validateCmd = &cobra.Command{
	Use:   "validate <file|url>...",
	Short: "Check documents and options locally without contacting the service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limits := validate.Limits{
			MaxFileSize:       cfg.Upload.MaxFileSize,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		}

		results := make(map[string]domain.ValidationResult, len(args)+1)
		results["options"] = validate.Options(validateOpts.options())
		for _, in := range args {
			results[in] = checkInput(in, limits)
		}

		w := cmd.OutOrStdout()
		if asJSON {
			if err := printJSON(w, results); err != nil {
				return err
			}
		} else {
			_, _ = fmt.Fprintf(w, "supported: %s\n", strings.Join(validate.SupportedExtensions(), ", "))
			for _, name := range append([]string{"options"}, args...) {
				r := results[name]
				if r.Valid {
					_, _ = fmt.Fprintf(w, "ok       %s\n", name)
					continue
				}
				_, _ = fmt.Fprintf(w, "invalid  %s: %s\n", name, r.Error)
			}
		}

		invalid := 0
		for _, r := range results {
			if !r.Valid {
				invalid++
			}
		}
		if invalid > 0 {
			return ocrerr.NewLocalValidationError(fmt.Sprintf("%d input(s) failed validation", invalid), nil)
		}
		return nil
	},
}

func init() {
	validateOpts.register(validateCmd)
	rootCmd.AddCommand(validateCmd)
}

func checkInput(in string, limits validate.Limits) domain.ValidationResult {
	if ocr.IsURL(in) {
		return validate.URL(in)
	}
	return validate.File(in, limits)
}
