package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"billboard-poi-scraper/metrics"
	"billboard-poi-scraper/models"
	"billboard-poi-scraper/storage"
	"billboard-poi-scraper/utils"
)

// ErrMissingCoordinates marks a billboard row without latitude or longitude.
var ErrMissingCoordinates = errors.New("billboard has no coordinates")

// Failure stages recorded in models.RowFailure.
const (
	StageCoordinates = "coordinates"
	StagePipeline    = "pipeline"
)

// Runner processes a single billboard.
type Runner interface {
	Run(ctx context.Context, coord models.Coordinate, billboardID int64) ([]models.ScoredRecord, error)
}

// BatchOptions holds the optional parts of a Batch.
type BatchOptions struct {
	// ResumeAfterID skips rows with id <= ResumeAfterID.
	ResumeAfterID int64
	// RowDelay is the minimum pause between two processed rows.
	RowDelay time.Duration
	// Failures receives every failed row. May be nil.
	Failures storage.FailureRecorder
	// Cleanup runs after a failed row to kill leftover browser processes and
	// returns how many it killed. May be nil.
	Cleanup func() int
}

// Batch runs the pipeline for every billboard in storage, one at a time.
type Batch struct {
	reader   storage.BillboardReader
	runner   Runner
	opts     BatchOptions
	throttle *utils.Throttle
	logger   *utils.Logger
	now      func() time.Time
}

// NewBatch creates a Batch.
func NewBatch(reader storage.BillboardReader, runner Runner, opts BatchOptions, logger *utils.Logger) *Batch {
	return &Batch{
		reader:   reader,
		runner:   runner,
		opts:     opts,
		throttle: utils.NewThrottle(opts.RowDelay),
		logger:   logger,
		now:      time.Now,
	}
}

// RunAll processes every billboard row. A failing row is logged, recorded and
// skipped; only failing to read the billboards table (or cancellation) ends
// the batch with an error.
func (b *Batch) RunAll(ctx context.Context) (*models.BatchReport, error) {
	report := &models.BatchReport{RunID: uuid.NewString(), StartedAt: b.now()}

	rows, err := b.reader.Billboards(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: read billboards: %w", err)
	}
	report.Total = len(rows)
	b.logger.Info("[batch] Run %s: %d billboards, resuming after id %d",
		report.RunID, len(rows), b.opts.ResumeAfterID)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = b.now()
			return report, fmt.Errorf("batch: interrupted: %w", err)
		}

		if row.ID <= b.opts.ResumeAfterID {
			report.Skipped++
			metrics.BillboardRows.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}

		coord, ok := row.Coordinate()
		if !ok {
			b.fail(ctx, report, row.ID, StageCoordinates, ErrMissingCoordinates)
			continue
		}

		if err := b.throttle.Wait(ctx); err != nil {
			report.FinishedAt = b.now()
			return report, fmt.Errorf("batch: interrupted: %w", err)
		}

		records, err := b.runner.Run(ctx, coord, row.ID)
		if err != nil {
			b.fail(ctx, report, row.ID, StagePipeline, err)
			continue
		}

		report.Succeeded++
		report.Records += len(records)
		metrics.BillboardRows.WithLabelValues(metrics.OutcomeSucceeded).Inc()
	}

	report.FinishedAt = b.now()
	metrics.LastBatchFinished.Set(float64(report.FinishedAt.Unix()))
	b.logger.Info("[batch] Run %s finished: %d succeeded, %d failed, %d skipped, %d records",
		report.RunID, report.Succeeded, report.Failed, report.Skipped, report.Records)
	return report, nil
}

func (b *Batch) fail(ctx context.Context, report *models.BatchReport, billboardID int64, stage string, cause error) {
	b.logger.Error("[batch] Billboard %d failed at %s: %v", billboardID, stage, cause)

	f := models.RowFailure{
		RunID:       report.RunID,
		BillboardID: billboardID,
		Stage:       stage,
		Error:       cause.Error(),
		FailedAt:    b.now(),
	}
	report.Failed++
	report.Failures = append(report.Failures, f)
	metrics.BillboardRows.WithLabelValues(metrics.OutcomeFailed).Inc()

	if b.opts.Failures != nil {
		if err := b.opts.Failures.RecordFailure(ctx, f); err != nil {
			b.logger.Error("[batch] Could not record failure of billboard %d: %v", billboardID, err)
		}
	}
	if b.opts.Cleanup != nil {
		if killed := b.opts.Cleanup(); killed > 0 {
			b.logger.Warn("[batch] Killed %d leftover browser processes after billboard %d", killed, billboardID)
		}
	}
}
