package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/utils"
)

type SummaryService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewSummaryService(out io.Writer, logger *utils.Logger) *SummaryService {
	return &SummaryService{out: out, logger: logger}
}

func (s *SummaryService) Generate(billboardID int64, records []models.ScoredRecord) *models.POISummary {
	summary := &models.POISummary{
		BillboardID:  billboardID,
		RecordsByPOI: make(map[models.POICategory]int),
		ReviewsByPOI: make(map[models.POICategory]int),
	}

	if len(records) == 0 {
		return summary
	}

	summary.TotalRecords = len(records)

	var total float64
	var named []models.ScoredRecord
	for _, r := range records {
		summary.RecordsByPOI[r.POI]++
		summary.ReviewsByPOI[r.POI] += r.NumberReview
		total += r.AvgScore
		if r.Name != nil && *r.Name != "" {
			summary.NamedRecords++
			named = append(named, r)
		}
	}
	summary.AverageScore = round2(total / float64(len(records)))

	// Top 5 by score
	sort.SliceStable(named, func(i, j int) bool {
		return named[i].AvgScore > named[j].AvgScore
	})
	if len(named) > 5 {
		summary.TopScored = named[:5]
	} else {
		summary.TopScored = named
	}

	return summary
}

func (s *SummaryService) Print(r *models.POISummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(s.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(s.out, "\033[1;35m  📍 POI SUMMARY, BILLBOARD %d\033[0m\n", r.BillboardID)
	fmt.Fprintf(s.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(s.out, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	fmt.Fprintf(s.out, "  Records scraped : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Fprintf(s.out, "  With a name     : \033[1m%d\033[0m\n", r.NamedRecords)
	fmt.Fprintf(s.out, "  Average score   : \033[1;32m%.2f\033[0m\n\n", r.AverageScore)

	fmt.Fprintf(s.out, "\033[1;33m  Listings by POI\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	if len(r.RecordsByPOI) == 0 {
		fmt.Fprintf(s.out, "  No listings found\n")
	} else {
		for _, poi := range models.Categories {
			count, ok := r.RecordsByPOI[poi]
			if !ok {
				continue
			}
			bar := strings.Repeat("█", count)
			fmt.Fprintf(s.out, "  %-14s %s (%d, %d reviews)\n", poi, bar, count, r.ReviewsByPOI[poi])
		}
	}
	fmt.Fprintln(s.out)

	fmt.Fprintf(s.out, "\033[1;33m  Top 5 Most Popular\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	if len(r.TopScored) == 0 {
		fmt.Fprintf(s.out, "  No named listings\n")
	} else {
		for i, rec := range r.TopScored {
			fmt.Fprintf(s.out, "  \033[1m%d.\033[0m %-34s %-11s \033[1;32m%.1f\033[0m\n",
				i+1, truncate(*rec.Name, 32), rec.POI, rec.AvgScore)
		}
	}

	fmt.Fprintf(s.out, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintBatch prints the outcome of a batch run, including every failed row.
func (s *SummaryService) PrintBatch(r *models.BatchReport) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(s.out, "\n\033[1;33m  Batch %s\033[0m\n", r.RunID)
	fmt.Fprintf(s.out, "  %s\n", thin)
	fmt.Fprintf(s.out, "  Billboards : %d (skipped %d)\n", r.Total, r.Skipped)
	fmt.Fprintf(s.out, "  Succeeded  : \033[1;32m%d\033[0m\n", r.Succeeded)
	fmt.Fprintf(s.out, "  Failed     : \033[1;31m%d\033[0m\n", r.Failed)
	fmt.Fprintf(s.out, "  Records    : %d\n", r.Records)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(s.out, "  Took       : %v\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(s.out, "  ✗ billboard %-6d %-11s %s\n", f.BillboardID, f.Stage, truncate(f.Error, 60))
	}
	fmt.Fprintln(s.out)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
