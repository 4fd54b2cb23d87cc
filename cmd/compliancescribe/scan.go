package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/compliancescribe/internal/config"
	"github.com/nao1215/compliancescribe/internal/database"
	"github.com/nao1215/compliancescribe/internal/log"
	"github.com/nao1215/compliancescribe/internal/model"
	"github.com/nao1215/compliancescribe/internal/pipeline"
	"github.com/nao1215/compliancescribe/internal/redact"
	"github.com/nao1215/compliancescribe/internal/report"
	"github.com/nao1215/compliancescribe/internal/scribe"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [audio-file...]",
		Short: "Transcribe call recordings and report PII risks",
		Long: `Scan uploads call recordings to the speech-to-text service and reports
the personal data detected in each call.

For every recording it produces:
- A list of PII and compliance risks with approximate timestamps
- A redacted transcript with entities replaced by [CATEGORY] tags
- A sample of the speaker diarization
- redacted_call.txt and compliance_report.json in the export directory

Supported formats: mp3, wav, m4a, ogg, flac, webm, mp4.

Examples:
  # Scan a single call
  compliancescribe scan call.mp3

  # Scan several calls, two at a time
  compliancescribe scan --batch 2 monday.wav tuesday.wav

  # Write a Markdown report and put exports in ./exports
  compliancescribe scan --markdown -o report.md --export-dir exports call.mp3

  # Use a SOCKS5 proxy and a longer timeout
  compliancescribe scan --proxy 127.0.0.1:1080 --timeout 20m long-call.m4a

Configuration file (.compliancescribe) example:
  defaults:
    model: scribe_v2
    sample_limit: 20
    policy: longest
  categories:
    name: high`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Service flags
	cmd.Flags().StringP("api-key", "k", "",
		"Speech-to-text API key (default: $"+config.APIKeyEnv+")")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Speech-to-text API root URL")
	cmd.Flags().String("model", config.DefaultModel,
		"Transcription model")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each transcription request")
	cmd.Flags().StringP("proxy", "p", "",
		"SOCKS5 proxy address for API requests (e.g., 127.0.0.1:1080)")

	// Redaction and report flags
	cmd.Flags().Int("sample-limit", config.DefaultSampleLimit,
		"Number of words in the speaker diarization sample")
	cmd.Flags().String("policy", config.DefaultPolicy,
		"Redaction policy: longest or sequential")
	cmd.Flags().Bool("ignore-case", false,
		"Match entity texts case-insensitively when redacting")
	cmd.Flags().Bool("transcript", false,
		"Include the unredacted transcript in the text report")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent uploads")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .compliancescribe in current, home or XDG config directory)")

	// Output flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringP("export-dir", "e", ".",
		"Directory for redacted_call.txt and compliance_report.json")
	cmd.Flags().Bool("no-export", false,
		"Do not write export files")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not save the scan to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Environment first so buildConfig sees a key from .env.
	if _, err := config.LoadDotEnv(config.DefaultDotEnvPaths()...); err != nil {
		return fmt.Errorf("failed to load %s: %w", config.DotEnvFile, err)
	}

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file. Flags the user set explicitly win over file defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.APIKey, err = flags.GetString("api-key"); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = config.APIKeyFromEnv()
	}
	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.Model, err = flags.GetString("model"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.SampleLimit, err = flags.GetInt("sample-limit"); err != nil {
		return nil, err
	}
	if cfg.Policy, err = flags.GetString("policy"); err != nil {
		return nil, err
	}
	if cfg.IgnoreCase, err = flags.GetBool("ignore-case"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ShowTranscript, err = flags.GetBool("transcript"); err != nil {
		return nil, err
	}
	if cfg.ExportDir, err = flags.GetString("export-dir"); err != nil {
		return nil, err
	}
	if cfg.NoExport, err = flags.GetBool("no-export"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; a discovered one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Settings, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Settings = &config.File{Categories: make(map[string]string)}
	}
	applyFileDefaults(cmd, cfg)

	cfg.Targets = args

	return cfg, nil
}

// applyFileDefaults copies configuration file defaults into cfg for every
// flag the user did not set.
func applyFileDefaults(cmd *cobra.Command, cfg *config.Config) {
	d := cfg.Settings.Defaults
	flags := cmd.Flags()

	if d.Model != "" && !flags.Changed("model") {
		cfg.Model = d.Model
	}
	if d.SampleLimit > 0 && !flags.Changed("sample-limit") {
		cfg.SampleLimit = d.SampleLimit
	}
	if d.Policy != "" && !flags.Changed("policy") {
		cfg.Policy = d.Policy
	}
	if d.IgnoreCase && !flags.Changed("ignore-case") {
		cfg.IgnoreCase = true
	}
	if d.ExportDir != "" && !flags.Changed("export-dir") {
		cfg.ExportDir = d.ExportDir
	}
}

// newClient creates the speech-to-text client from the configuration.
func newClient(cfg *config.Config, logger *slog.Logger) (*scribe.Client, error) {
	opts := []scribe.Option{
		scribe.WithBaseURL(cfg.BaseURL),
		scribe.WithModel(cfg.Model),
		scribe.WithTimeout(cfg.Timeout),
		scribe.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, scribe.WithProxy(cfg.ProxyAddress))
	}
	return scribe.NewClient(cfg.APIKey, opts...)
}

// scanConfig converts the CLI configuration into pipeline settings.
func scanConfig(cfg *config.Config) (pipeline.ScanConfig, error) {
	policy, err := redact.ParsePolicy(cfg.Policy)
	if err != nil {
		return pipeline.ScanConfig{}, err
	}
	overrides, err := cfg.Settings.SeverityOverrides()
	if err != nil {
		return pipeline.ScanConfig{}, err
	}

	sc := pipeline.ScanConfig{
		Model:       cfg.Model,
		MaxFileSize: cfg.MaxFileSize,
		Policy:      policy,
		IgnoreCase:  cfg.IgnoreCase,
		Overrides:   overrides,
	}
	if !cfg.NoExport {
		sc.ExportDir = cfg.ExportDir
		sc.PrefixExports = len(cfg.Targets) > 1
		if sc.PrefixExports {
			sc.ExportPrefixes = report.ExportPrefixes(cfg.Targets)
		}
	}
	return sc, nil
}

// scanner holds what every scan in one command invocation shares.
type scanner struct {
	cfg    *config.Config
	db     *database.ScanDB
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	// mu serializes report output and database writes in batch mode.
	mu     sync.Mutex
	failed int
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, out, errOut io.Writer, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"model", cfg.Model,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	sc, err := scanConfig(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create speech-to-text client: %w", err)
	}

	if cfg.ReportFile != "" {
		f, err := openReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	s := &scanner{cfg: cfg, out: out, errOut: errOut, logger: logger}

	if cfg.SaveToDB {
		s.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.db.Close()
		logger.Info("database opened", "path", s.db.Path())
	}

	newPipeline := func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(client, sc, pipeline.WithLogger(logger))
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		err = s.runBatch(ctx, newPipeline)
	} else {
		err = s.runSequential(ctx, newPipeline)
	}
	if err != nil {
		return err
	}

	if s.failed > 0 {
		return fmt.Errorf("%d of %d scans failed", s.failed, len(cfg.Targets))
	}
	return nil
}

// runSequential scans targets one at a time.
func (s *scanner) runSequential(ctx context.Context, newPipeline func() *pipeline.Pipeline) error {
	for _, target := range s.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := model.NewScanResult(target)

		fmt.Fprintf(s.errOut, "Transcribing %s...\n", result.SourceName())
		startTime := time.Now()

		if err := newPipeline().Execute(ctx, result); err == nil {
			fmt.Fprintf(s.errOut, "Scan completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
		}

		s.handleResult(ctx, result)
	}
	return nil
}

// runBatch scans several targets concurrently.
func (s *scanner) runBatch(ctx context.Context, newPipeline func() *pipeline.Pipeline) error {
	fmt.Fprintf(s.errOut, "Starting batch scan of %d recordings (concurrency: %d)...\n\n",
		len(s.cfg.Targets), s.cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(newPipeline,
		pipeline.WithConcurrency(s.cfg.BatchSize),
		pipeline.WithBatchLogger(s.logger),
	)

	err := bp.ProcessBatchWithCallback(ctx, s.cfg.Targets, func(result *model.ScanResult, index int) {
		fmt.Fprintf(s.errOut, "[%d/%d] Scan completed: %s\n", index+1, len(s.cfg.Targets), result.SourceName())
		s.handleResult(ctx, result)
	})

	fmt.Fprintf(s.errOut, "\nBatch scan completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// handleResult reports, exports and stores one scan. It is safe for
// concurrent use.
func (s *scanner) handleResult(ctx context.Context, result *model.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Error != nil {
		s.failed++
		printScanError(s.errOut, result)
		return
	}

	if err := outputReport(s.cfg, s.out, result); err != nil {
		s.logger.Error("report failed", "file", result.SourceName(), "error", err)
	}

	for _, path := range result.ExportedFiles {
		fmt.Fprintf(s.errOut, "Exported %s\n", path)
	}

	if err := saveScanResult(ctx, s.db, result, s.logger); err != nil {
		s.logger.Error("failed to save scan result", "file", result.SourceName(), "error", err)
	}
}

// printScanError prints a failed scan with troubleshooting hints.
func printScanError(w io.Writer, result *model.ScanResult) {
	fmt.Fprintf(w, "Scan error for %s: %v\n", result.SourceName(), result.Error)
	if se, ok := scribe.AsError(result.Error); ok {
		if se.Timeout() {
			fmt.Fprintln(w, "The request timed out; raise --timeout for long recordings.")
		}
		fmt.Fprintln(w, se.Hint())
	}
	fmt.Fprintln(w)
}

// openReportFile creates the report file, including missing directories.
// Reports contain PII, so the file is readable by the owner only.
func openReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// outputReport writes the report in the requested format.
func outputReport(cfg *config.Config, output io.Writer, result *model.ScanResult) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
			report.WithJSONSampleLimit(cfg.SampleLimit),
		)
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output, report.WithMarkdownSampleLimit(cfg.SampleLimit))
	default:
		w = report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithTranscript(cfg.ShowTranscript),
			report.WithSampleLimit(cfg.SampleLimit),
		)
	}
	_, err := w.Write(result)
	return err
}

// saveScanResult saves the scan to the database if enabled.
// If db is nil, this function is a no-op.
func saveScanResult(ctx context.Context, db *database.ScanDB, result *model.ScanResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	seen, err := db.HasFingerprint(ctx, result.AudioHash)
	if err != nil {
		return err
	}
	if seen {
		logger.Info("recording was scanned before", "file", result.SourceName())
	}

	if _, err := db.SaveScanResult(ctx, result); err != nil {
		if errors.Is(err, database.ErrNoReport) {
			return nil
		}
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	logger.Info("scan result saved to database", "file", result.SourceName())
	return nil
}
