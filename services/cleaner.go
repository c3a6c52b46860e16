package services

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/utils"
)

// Cleaner transforms RawListings into ParsedListings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses the review text of every raw listing. Nothing is dropped:
// listings without review text get zero counts.
func (c *Cleaner) Clean(raw []models.RawListing) []models.ParsedListing {
	result := make([]models.ParsedListing, 0, len(raw))
	missing := 0

	for _, r := range raw {
		p := models.ParsedListing{POI: r.POI}
		if r.Name != nil {
			p.Name = models.StringPtr(normaliseText(*r.Name))
		}
		if r.ReviewSummary == nil {
			missing++
		} else {
			p.NumberReview, p.NumberRating = ParseReview(*r.ReviewSummary)
		}
		result = append(result, p)
	}

	if missing > 0 {
		c.logger.Debug("[cleaner] %d of %d listings had no review text", missing, len(raw))
	}
	return result
}

// ParseReview reads a review summary shaped like "4.5(1,234)": the number in
// the first parentheses is the review count, the text with that parenthesised
// part removed is the rating. Thousands separators are ignored. Any field that
// is missing or not a non-negative number yields 0; it never fails.
//
//	"4.5(1,234)" → 1234, 4.5
//	"no parens"  → 0, 0
func ParseReview(text string) (review int, rating float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, 0
	}

	reviewField := ""
	ratingField := text
	if open := strings.Index(text, "("); open >= 0 {
		if end := strings.Index(text, ")"); end > open {
			reviewField = text[open+1 : end]
			ratingField = strings.ReplaceAll(text, "("+reviewField+")", "")
		}
	}

	if v, ok := parseNumber(reviewField); ok {
		review = int(v)
	}
	if v, ok := parseNumber(ratingField); ok {
		rating = v
	}
	return review, rating
}

func parseNumber(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
