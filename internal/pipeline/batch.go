package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/compliancescribe/internal/model"
)

// DefaultConcurrency is the default number of concurrent uploads.
const DefaultConcurrency = 2

// BatchProcessor scans several recordings concurrently.
// Each recording gets a fresh pipeline from the factory and its own
// ScanResult; only the callback sees results from several goroutines.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each recording.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent uploads.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent uploads.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch scans the recordings and returns one result per path, in
// input order. A failed recording does not stop the others; its error is
// recorded on its result. Recordings not started before cancellation are
// returned with TimedOut set.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) ([]*model.ScanResult, error) {
	results := make([]*model.ScanResult, len(paths))
	err := bp.ProcessBatchWithCallback(ctx, paths, func(result *model.ScanResult, index int) {
		results[index] = result
	})
	return results, err
}

// ProcessBatchWithCallback scans the recordings and calls callback as each
// one completes. The callback runs on the worker goroutine and must be
// safe for concurrent use if it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	paths []string,
	callback func(result *model.ScanResult, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_files", len(paths),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			result := model.NewScanResult(path)

			select {
			case <-gctx.Done():
				result.TimedOut = true
				result.SetError(gctx.Err())
				callback(result, i)
				return nil
			default:
			}

			bp.logger.Info("scanning file",
				"file", result.SourceName(),
				"index", i+1,
				"total", len(paths),
			)

			if err := bp.pipelineFactory().Execute(gctx, result); err != nil {
				bp.logger.Warn("scan failed",
					"file", result.SourceName(),
					"error", err,
				)
			} else {
				bp.logger.Info("scan completed", "file", result.SourceName())
			}

			callback(result, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("batch processing complete",
		"total_files", len(paths),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	return err
}
