package models

import "time"

// POICategory is a place type searched for around a billboard.
type POICategory string

const (
	School     POICategory = "school"
	Restaurant POICategory = "restaurant"
	Mall       POICategory = "mall"
	Office     POICategory = "office"
	Mart       POICategory = "mart"
	Halte      POICategory = "halte"
	Mosque     POICategory = "mosque"
	GasStation POICategory = "gas station"
)

// Categories is the fixed, ordered set of POI categories scraped per billboard.
var Categories = []POICategory{
	School, Restaurant, Mall, Office, Mart, Halte, Mosque, GasStation,
}

// Coordinate is a billboard location.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// RawListing holds one scraped business entry, paired positionally with its
// review text. A nil Name or ReviewSummary means the entry was absent on the page.
type RawListing struct {
	POI           POICategory
	Name          *string
	ReviewSummary *string
	ScrapedAt     time.Time
}

// ParsedListing is a RawListing with the review text turned into counts.
type ParsedListing struct {
	POI          POICategory
	Name         *string
	NumberReview int
	NumberRating float64
}

// ScoredRecord is the row appended to the poi_billboards table.
type ScoredRecord struct {
	ParsedListing
	LatBillboard float64
	LonBillboard float64
	IDBillboard  int64
	AvgScore     float64
}

// POISummary holds per-run statistics over scored records.
type POISummary struct {
	BillboardID  int64
	TotalRecords int
	NamedRecords int
	RecordsByPOI map[POICategory]int
	ReviewsByPOI map[POICategory]int
	AverageScore float64
	TopScored    []ScoredRecord
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
