package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/ocrflow/internal/core/config"
	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/core/validate"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
	"github.com/vietddude/ocrflow/internal/infra/ocr"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath     string
	isDebug     bool
	asJSON      bool
	metricsPort int
	baseURL     string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ocrctl",
	Short: "Submit documents to the OCR service and fetch results",
	Long: `ocrctl uploads documents to an asynchronous OCR service, waits for the
jobs to finish and prints the recognized text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "serve /metrics on this port while the command runs")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "OCR API base url (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	loaded, err := loadConfig(cfgPath, cmd.Flags().Changed("config"))
	if err != nil {
		stylelog.InitDefault()
		return err
	}
	cfg = loaded

	// Setup logging
	stylelog.InitDefault(&tint.Options{
		Level:      logLevel(cfg.Logging.Level, isDebug),
		TimeFormat: time.RFC3339,
	})

	if metricsPort == 0 {
		metricsPort = cfg.Metrics.Port
	}
	return nil
}

// loadConfig reads path. A missing default config file falls back to
// defaults so ocrctl works with environment variables alone.
func loadConfig(path string, explicit bool) (*config.AppConfig, error) {
	c, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c = config.Default()
	}

	if v := os.Getenv("OCR_BASE_URL"); v != "" && c.Client.BaseURL == "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("OCR_API_KEY"); v != "" && c.Client.APIKey == "" {
		c.Client.APIKey = v
	}
	if baseURL != "" {
		c.Client.BaseURL = baseURL
	}
	return c, nil
}

func logLevel(level string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// clientOptions converts configuration into client options.
func clientOptions(c *config.AppConfig) ocr.Options {
	return ocr.Options{
		BaseURL:    c.Client.BaseURL,
		APIKey:     c.Client.APIKey,
		AuthHeader: c.Client.AuthHeader,
		Timeout:    c.Client.Timeout,
		UserAgent:  c.Client.UserAgent,
		Retry: &retry.Policy{
			MaxRetries:   c.Retry.Retries(),
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Multiplier:   c.Retry.Multiplier,
		},
		PollInterval: c.Polling.Interval,
		MaxWait:      c.Polling.MaxWait,
		Limits: validate.Limits{
			MaxFileSize:       c.Upload.MaxFileSize,
			AllowedExtensions: c.Upload.AllowedExtensions,
		},
		RetryParts: c.Upload.PartRetry,
		Logger:     slog.Default(),
	}
}

func newClient() (*ocr.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return ocr.NewClient(clientOptions(cfg))
}

// run executes fn with a context cancelled on SIGINT/SIGTERM, serving
// metrics alongside it when a port is configured.
func run(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsPort <= 0 {
		return fn(ctx)
	}

	server := metrics.NewServer(metricsPort)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Debug("Metrics server listening", "port", metricsPort)
		return server.Start()
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Error("Error stopping metrics server", "error", err)
			}
		}()
		return fn(gctx)
	})
	return g.Wait()
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	// Ctrl-C during a request surfaces as an aborted network error.
	if errors.Is(err, context.Canceled) {
		return 130
	}
	switch ocrerr.KindOf(err) {
	case ocrerr.KindLocalValidation, ocrerr.KindValidation:
		return 2
	case ocrerr.KindJobFailed:
		return 3
	case ocrerr.KindTimeout:
		return 4
	case ocrerr.KindCancelled:
		return 130
	default:
		return 1
	}
}
