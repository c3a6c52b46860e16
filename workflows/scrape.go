package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"billboard-poi-scraper/models"
)

// Activity names registered by the worker.
const (
	RunBatchActivity        = "RunBatch"
	ScrapeBillboardActivity = "ScrapeBillboard"
)

// Policy is the retry policy applied to a scheduled run. Retries are spaced
// evenly by RetryDelay.
type Policy struct {
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// BatchInput is the input of ScrapeAllWorkflow.
type BatchInput struct {
	Policy Policy
}

// BillboardInput is the input of ScrapeBillboardWorkflow.
type BillboardInput struct {
	BillboardID int64
	Latitude    float64
	Longitude   float64
	Policy      Policy
}

func activityOptions(p Policy) workflow.ActivityOptions {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    p.RetryDelay,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    int32(attempts),
		},
	}
}

// ScrapeAllWorkflow runs one full batch over the billboards table. A failed
// batch is retried as a whole.
func ScrapeAllWorkflow(ctx workflow.Context, input BatchInput) (*models.BatchReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting billboard batch", "attempts", input.Policy.Attempts)

	ctx = workflow.WithActivityOptions(ctx, activityOptions(input.Policy))

	var report models.BatchReport
	if err := workflow.ExecuteActivity(ctx, RunBatchActivity).Get(ctx, &report); err != nil {
		return nil, err
	}

	logger.Info("Billboard batch finished", "runID", report.RunID,
		"succeeded", report.Succeeded, "failed", report.Failed)
	return &report, nil
}

// ScrapeBillboardWorkflow scrapes the POIs around a single billboard and
// returns the number of records appended.
func ScrapeBillboardWorkflow(ctx workflow.Context, input BillboardInput) (int, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting billboard scrape", "billboardID", input.BillboardID)

	ctx = workflow.WithActivityOptions(ctx, activityOptions(input.Policy))

	var appended int
	err := workflow.ExecuteActivity(ctx, ScrapeBillboardActivity, input.BillboardID, input.Latitude, input.Longitude).Get(ctx, &appended)
	if err != nil {
		return 0, err
	}
	return appended, nil
}
