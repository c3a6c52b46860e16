package gmaps

import (
	"context"
	"fmt"
	"time"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/utils"
)

// PageFetcher loads a URL in a browser and returns the rendered HTML once the
// settle delay has passed.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, settle time.Duration) (string, error)
}

// Scraper extracts raw listings for one POI category around a coordinate.
type Scraper struct {
	markup Markup
	settle time.Duration
	logger *utils.Logger
	now    func() time.Time
}

// New creates a Scraper.
func New(markup Markup, settle time.Duration, logger *utils.Logger) *Scraper {
	return &Scraper{markup: markup, settle: settle, logger: logger, now: time.Now}
}

// ScrapeCategory navigates page to the search URL for category and returns the
// listings found there. Navigation errors are returned as is.
func (s *Scraper) ScrapeCategory(ctx context.Context, page PageFetcher, coord models.Coordinate, category models.POICategory) ([]models.RawListing, error) {
	url := BuildURL(coord, category)
	s.logger.Debug("[gmaps] %s → %s", category, url)

	html, err := page.Fetch(ctx, url, s.settle)
	if err != nil {
		return nil, fmt.Errorf("gmaps: %s: %w", category, err)
	}

	names, reviews, err := s.markup.Extract(html)
	if err != nil {
		return nil, fmt.Errorf("gmaps: %s: %w", category, err)
	}
	if len(names) != len(reviews) {
		s.logger.Debug("[gmaps] %s: %d names vs %d reviews, padding shorter list",
			category, len(names), len(reviews))
	}

	return Pair(category, names, reviews, s.now()), nil
}
