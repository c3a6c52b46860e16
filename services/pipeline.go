package services

import (
	"context"
	"fmt"
	"time"

	"billboard-poi-scraper/metrics"
	"billboard-poi-scraper/models"
	"billboard-poi-scraper/scraper/gmaps"
	"billboard-poi-scraper/storage"
	"billboard-poi-scraper/utils"
)

// debugZoomPct is the page zoom used when a visible browser window is wanted.
const debugZoomPct = 25

// Session is an open browser the pipeline drives.
type Session interface {
	gmaps.PageFetcher
	SetZoom(ctx context.Context, pct int) error
	Close() error
}

// LauncherFunc opens a new browser session.
type LauncherFunc func(ctx context.Context) (Session, error)

// CategoryScraper extracts the raw listings of one POI category.
type CategoryScraper interface {
	ScrapeCategory(ctx context.Context, page gmaps.PageFetcher, coord models.Coordinate, category models.POICategory) ([]models.RawListing, error)
}

// PipelineOptions holds the optional parts of a Pipeline.
type PipelineOptions struct {
	// Headless=false sets the browser zoom before scraping.
	Headless bool
	// Categories defaults to models.Categories.
	Categories []models.POICategory
	// RawWriter, when set, receives every raw listing before parsing.
	RawWriter storage.RawListingWriter
}

// Pipeline scrapes every POI category around one billboard, scores the
// listings and appends them to storage.
type Pipeline struct {
	launch     LauncherFunc
	scraper    CategoryScraper
	cleaner    *Cleaner
	writer     storage.RecordWriter
	rawWriter  storage.RawListingWriter
	categories []models.POICategory
	headless   bool
	logger     *utils.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(launch LauncherFunc, scraper CategoryScraper, writer storage.RecordWriter, opts PipelineOptions, logger *utils.Logger) *Pipeline {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = models.Categories
	}
	return &Pipeline{
		launch:     launch,
		scraper:    scraper,
		cleaner:    NewCleaner(logger),
		writer:     writer,
		rawWriter:  opts.RawWriter,
		categories: categories,
		headless:   opts.Headless,
		logger:     logger,
	}
}

// Run processes one billboard and returns the records it appended. Nothing is
// written unless every category was scraped.
func (p *Pipeline) Run(ctx context.Context, coord models.Coordinate, billboardID int64) ([]models.ScoredRecord, error) {
	start := time.Now()
	p.logger.Info("[pipeline] Billboard %d at (%v, %v): scraping %d categories",
		billboardID, coord.Latitude, coord.Longitude, len(p.categories))

	session, err := p.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Warn("[pipeline] Closing browser: %v", err)
		}
	}()

	if !p.headless {
		if err := session.SetZoom(ctx, debugZoomPct); err != nil {
			p.logger.Warn("[pipeline] Could not set zoom: %v", err)
		}
	}

	var all []models.ParsedListing
	for _, category := range p.categories {
		listings, err := p.ScrapeCategory(ctx, session, coord, billboardID, category)
		if err != nil {
			return nil, fmt.Errorf("pipeline: billboard %d: %w", billboardID, err)
		}
		all = append(all, listings...)
	}

	records := ScoreListings(all, coord, billboardID)
	if err := p.writer.Append(ctx, records); err != nil {
		return nil, fmt.Errorf("pipeline: billboard %d: append %d records: %w", billboardID, len(records), err)
	}
	metrics.RecordsPersisted.Add(float64(len(records)))

	p.logger.Info("[pipeline] Billboard %d done: %d records in %v",
		billboardID, len(records), time.Since(start).Round(time.Millisecond))
	return records, nil
}

// ScrapeCategory loads one category's search page and parses its listings.
func (p *Pipeline) ScrapeCategory(ctx context.Context, page gmaps.PageFetcher, coord models.Coordinate, billboardID int64, category models.POICategory) ([]models.ParsedListing, error) {
	start := time.Now()
	raw, err := p.scraper.ScrapeCategory(ctx, page, coord, category)
	if err != nil {
		return nil, err
	}
	metrics.ObserveCategory(string(category), len(raw), time.Since(start))

	if p.rawWriter != nil {
		if err := p.rawWriter.WriteRaw(billboardID, raw); err != nil {
			p.logger.Warn("[pipeline] Raw CSV write failed for %s: %v", category, err)
		}
	}

	parsed := p.cleaner.Clean(raw)
	p.logger.Debug("[pipeline] %s: %d listings", category, len(parsed))
	return parsed, nil
}

// ScoreListings attaches the billboard identity and location and the
// popularity score to every listing.
func ScoreListings(listings []models.ParsedListing, coord models.Coordinate, billboardID int64) []models.ScoredRecord {
	records := make([]models.ScoredRecord, 0, len(listings))
	for _, l := range listings {
		records = append(records, models.ScoredRecord{
			ParsedListing: l,
			LatBillboard:  coord.Latitude,
			LonBillboard:  coord.Longitude,
			IDBillboard:   billboardID,
			AvgScore:      Score(l.NumberRating, l.NumberReview),
		})
	}
	return records
}
