package storage

import (
	"context"

	"billboard-poi-scraper/models"
)

// RecordWriter appends scored records to the poi_billboards table.
// Appends never deduplicate.
type RecordWriter interface {
	Append(ctx context.Context, records []models.ScoredRecord) error
}

// BillboardReader lists the billboards to process.
type BillboardReader interface {
	Billboards(ctx context.Context) ([]models.BillboardRow, error)
}

// FailureRecorder keeps a record of billboard rows a batch failed to process.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f models.RowFailure) error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(billboardID int64, listings []models.RawListing) error
	Close() error
}
