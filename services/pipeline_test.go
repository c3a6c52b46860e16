package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/scraper/gmaps"
)

type fakeSession struct {
	closed int
	zoom   []int
}

func (s *fakeSession) Fetch(context.Context, string, time.Duration) (string, error) {
	return "<html></html>", nil
}

func (s *fakeSession) SetZoom(_ context.Context, pct int) error {
	s.zoom = append(s.zoom, pct)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeScraper struct {
	fn    func(category models.POICategory) ([]models.RawListing, error)
	calls []models.POICategory
}

func (f *fakeScraper) ScrapeCategory(_ context.Context, _ gmaps.PageFetcher, _ models.Coordinate, category models.POICategory) ([]models.RawListing, error) {
	f.calls = append(f.calls, category)
	return f.fn(category)
}

type fakeWriter struct {
	appended [][]models.ScoredRecord
	err      error
}

func (w *fakeWriter) Append(_ context.Context, records []models.ScoredRecord) error {
	if w.err != nil {
		return w.err
	}
	w.appended = append(w.appended, records)
	return nil
}

type fakeRawWriter struct {
	rows map[int64]int
}

func (w *fakeRawWriter) WriteRaw(billboardID int64, listings []models.RawListing) error {
	if w.rows == nil {
		w.rows = make(map[int64]int)
	}
	w.rows[billboardID] += len(listings)
	return nil
}

func (w *fakeRawWriter) Close() error { return nil }

func launcherFor(s *fakeSession) LauncherFunc {
	return func(context.Context) (Session, error) { return s, nil }
}

func oneListingPerCategory(category models.POICategory) ([]models.RawListing, error) {
	return []models.RawListing{
		{POI: category, Name: models.StringPtr(string(category) + " A"), ReviewSummary: models.StringPtr("4.0(10)")},
	}, nil
}

func TestPipelineRunScoresEveryCategory(t *testing.T) {
	session := &fakeSession{}
	scraper := &fakeScraper{fn: oneListingPerCategory}
	writer := &fakeWriter{}
	coord := models.Coordinate{Latitude: -6.2, Longitude: 106.8}

	p := NewPipeline(launcherFor(session), scraper, writer, PipelineOptions{Headless: true}, newTestLogger())
	records, err := p.Run(context.Background(), coord, 49)
	require.NoError(t, err)

	assert.Equal(t, models.Categories, scraper.calls)
	require.Len(t, records, len(models.Categories))
	for _, r := range records {
		assert.Equal(t, int64(49), r.IDBillboard)
		assert.Equal(t, -6.2, r.LatBillboard)
		assert.Equal(t, 106.8, r.LonBillboard)
		assert.Equal(t, 10, r.NumberReview)
		assert.InDelta(t, 8.0, r.AvgScore, 1e-9)
	}
	require.Len(t, writer.appended, 1)
	assert.Equal(t, 1, session.closed)
	assert.Empty(t, session.zoom)
}

func TestPipelineZoomsWhenVisible(t *testing.T) {
	session := &fakeSession{}
	scraper := &fakeScraper{fn: oneListingPerCategory}
	opts := PipelineOptions{Headless: false, Categories: []models.POICategory{models.Mall}}

	p := NewPipeline(launcherFor(session), scraper, &fakeWriter{}, opts, newTestLogger())
	_, err := p.Run(context.Background(), models.Coordinate{}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{debugZoomPct}, session.zoom)
}

func TestPipelineCategoryFailureWritesNothing(t *testing.T) {
	session := &fakeSession{}
	boom := errors.New("navigation failed")
	scraper := &fakeScraper{fn: func(category models.POICategory) ([]models.RawListing, error) {
		if category == models.Mall {
			return nil, boom
		}
		return oneListingPerCategory(category)
	}}
	writer := &fakeWriter{}

	p := NewPipeline(launcherFor(session), scraper, writer, PipelineOptions{Headless: true}, newTestLogger())
	records, err := p.Run(context.Background(), models.Coordinate{}, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, records)
	assert.Empty(t, writer.appended)
	assert.Equal(t, 1, session.closed, "browser must be closed on failure")
	// Categories after the failing one are never attempted.
	assert.NotContains(t, scraper.calls, models.Office)
}

func TestPipelineLaunchFailure(t *testing.T) {
	launchErr := errors.New("no chrome")
	launch := func(context.Context) (Session, error) { return nil, launchErr }
	writer := &fakeWriter{}

	p := NewPipeline(launch, &fakeScraper{fn: oneListingPerCategory}, writer, PipelineOptions{}, newTestLogger())
	_, err := p.Run(context.Background(), models.Coordinate{}, 1)
	assert.ErrorIs(t, err, launchErr)
	assert.Empty(t, writer.appended)
}

func TestPipelineRerunAppendsDuplicates(t *testing.T) {
	scraper := &fakeScraper{fn: oneListingPerCategory}
	writer := &fakeWriter{}
	opts := PipelineOptions{Headless: true, Categories: []models.POICategory{models.School, models.Mart}}

	p := NewPipeline(launcherFor(&fakeSession{}), scraper, writer, opts, newTestLogger())
	for i := 0; i < 2; i++ {
		_, err := p.Run(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2}, 7)
		require.NoError(t, err)
	}

	require.Len(t, writer.appended, 2)
	assert.Equal(t, writer.appended[0], writer.appended[1])
}

func TestPipelineWritesRawListings(t *testing.T) {
	raw := &fakeRawWriter{}
	scraper := &fakeScraper{fn: func(category models.POICategory) ([]models.RawListing, error) {
		return []models.RawListing{{POI: category}, {POI: category}}, nil
	}}
	opts := PipelineOptions{Headless: true, Categories: []models.POICategory{models.Halte}, RawWriter: raw}

	p := NewPipeline(launcherFor(&fakeSession{}), scraper, &fakeWriter{}, opts, newTestLogger())
	records, err := p.Run(context.Background(), models.Coordinate{}, 3)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, raw.rows[3])
}

func TestPipelineAppendFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("connection reset")}
	opts := PipelineOptions{Headless: true, Categories: []models.POICategory{models.Mosque}}

	p := NewPipeline(launcherFor(&fakeSession{}), &fakeScraper{fn: oneListingPerCategory}, writer, opts, newTestLogger())
	_, err := p.Run(context.Background(), models.Coordinate{}, 9)
	assert.ErrorContains(t, err, "connection reset")
}

func TestPipelineEmptyPageStillSucceeds(t *testing.T) {
	scraper := &fakeScraper{fn: func(models.POICategory) ([]models.RawListing, error) { return nil, nil }}
	writer := &fakeWriter{}

	p := NewPipeline(launcherFor(&fakeSession{}), scraper, writer, PipelineOptions{Headless: true}, newTestLogger())
	records, err := p.Run(context.Background(), models.Coordinate{}, 11)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, writer.appended, 1)
}
