package workflows

import (
	"context"
	"fmt"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/services"
)

// BatchRunner runs a full batch.
type BatchRunner interface {
	RunAll(ctx context.Context) (*models.BatchReport, error)
}

// Activities holds the activity implementations for the scrape workflows.
type Activities struct {
	Batch    BatchRunner
	Pipeline services.Runner
}

// RunBatch processes every billboard row.
func (a *Activities) RunBatch(ctx context.Context) (*models.BatchReport, error) {
	report, err := a.Batch.RunAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("run batch: %w", err)
	}
	return report, nil
}

// ScrapeBillboard runs the pipeline for one billboard.
func (a *Activities) ScrapeBillboard(ctx context.Context, billboardID int64, lat, lon float64) (int, error) {
	records, err := a.Pipeline.Run(ctx, models.Coordinate{Latitude: lat, Longitude: lon}, billboardID)
	if err != nil {
		return 0, fmt.Errorf("scrape billboard %d: %w", billboardID, err)
	}
	return len(records), nil
}
