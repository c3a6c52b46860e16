package gmaps

import (
	"math"
	"strconv"
	"strings"

	"billboard-poi-scraper/models"
)

const (
	searchBaseURL = "https://maps.google.com/maps/search/"
	// zoomLevel shows roughly a 200 m radius around the centre.
	zoomLevel = "16z"
)

// BuildURL returns the map search URL for category around coord.
func BuildURL(coord models.Coordinate, category models.POICategory) string {
	query := strings.ReplaceAll(string(category), " ", "+")
	return searchBaseURL + query + "/" +
		"@" + formatCoord(coord.Latitude) + "," + formatCoord(coord.Longitude) + "," + zoomLevel + "/" +
		"?hl=en"
}

// formatCoord prints v in its shortest form, always keeping a decimal point
// so that 1 renders as "1.0".
func formatCoord(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
