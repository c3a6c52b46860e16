package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"billboard-poi-scraper/models"
)

func scored(poi models.POICategory, name string, review int, score float64) models.ScoredRecord {
	r := models.ScoredRecord{AvgScore: score}
	r.POI = poi
	r.NumberReview = review
	if name != "" {
		r.Name = models.StringPtr(name)
	}
	return r
}

func TestSummaryGenerate(t *testing.T) {
	records := []models.ScoredRecord{
		scored(models.School, "SMA 3", 10, 8),
		scored(models.School, "", 0, 0.2),
		scored(models.Mall, "Grand Indonesia", 1000, 900),
		scored(models.Mall, "Plaza", 100, 90),
		scored(models.Mart, "Indomaret", 5, 4),
		scored(models.Halte, "Halte Bundaran", 2, 1.6),
		scored(models.Mosque, "Istiqlal", 500, 480),
	}

	s := NewSummaryService(&bytes.Buffer{}, newTestLogger())
	sum := s.Generate(49, records)

	if sum.TotalRecords != 7 || sum.NamedRecords != 6 {
		t.Errorf("counts: got total=%d named=%d", sum.TotalRecords, sum.NamedRecords)
	}
	if sum.RecordsByPOI[models.School] != 2 || sum.ReviewsByPOI[models.Mall] != 1100 {
		t.Errorf("per-POI: got %v / %v", sum.RecordsByPOI, sum.ReviewsByPOI)
	}
	if len(sum.TopScored) != 5 {
		t.Fatalf("expected top 5, got %d", len(sum.TopScored))
	}
	if *sum.TopScored[0].Name != "Grand Indonesia" || *sum.TopScored[1].Name != "Istiqlal" {
		t.Errorf("top order: got %s, %s", *sum.TopScored[0].Name, *sum.TopScored[1].Name)
	}
	for _, r := range sum.TopScored {
		if r.Name == nil {
			t.Errorf("unnamed record in top list")
		}
	}
}

func TestSummaryGenerateEmpty(t *testing.T) {
	s := NewSummaryService(&bytes.Buffer{}, newTestLogger())
	sum := s.Generate(1, nil)
	if sum.TotalRecords != 0 || sum.AverageScore != 0 || len(sum.TopScored) != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
}

func TestSummaryPrintBatch(t *testing.T) {
	var out bytes.Buffer
	s := NewSummaryService(&out, newTestLogger())
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.PrintBatch(&models.BatchReport{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Total:      3,
		Succeeded:  1,
		Failed:     1,
		Skipped:    1,
		Failures:   []models.RowFailure{{BillboardID: 50, Stage: StagePipeline, Error: "timeout"}},
	})

	text := out.String()
	for _, want := range []string{"run-1", "billboard 50", "timeout", "1m30s"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}
