package gmaps

import (
	"time"

	"billboard-poi-scraper/models"
)

// Pair joins names and reviews by index. The result is as long as the longer
// list; positions missing from the shorter one are left nil.
func Pair(category models.POICategory, names, reviews []string, scrapedAt time.Time) []models.RawListing {
	n := len(names)
	if len(reviews) > n {
		n = len(reviews)
	}

	out := make([]models.RawListing, 0, n)
	for i := 0; i < n; i++ {
		l := models.RawListing{POI: category, ScrapedAt: scrapedAt}
		if i < len(names) {
			l.Name = models.StringPtr(names[i])
		}
		if i < len(reviews) {
			l.ReviewSummary = models.StringPtr(reviews[i])
		}
		out = append(out, l)
	}
	return out
}
