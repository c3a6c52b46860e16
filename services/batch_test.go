package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billboard-poi-scraper/models"
)

type fakeReader struct {
	rows []models.BillboardRow
	err  error
}

func (r *fakeReader) Billboards(context.Context) ([]models.BillboardRow, error) {
	return r.rows, r.err
}

type fakeRunner struct {
	fn  func(ctx context.Context, id int64) ([]models.ScoredRecord, error)
	ids []int64
}

func (f *fakeRunner) Run(ctx context.Context, _ models.Coordinate, id int64) ([]models.ScoredRecord, error) {
	f.ids = append(f.ids, id)
	if f.fn == nil {
		return []models.ScoredRecord{{IDBillboard: id}}, nil
	}
	return f.fn(ctx, id)
}

type fakeRecorder struct {
	failures []models.RowFailure
}

func (r *fakeRecorder) RecordFailure(_ context.Context, f models.RowFailure) error {
	r.failures = append(r.failures, f)
	return nil
}

func row(id int64) models.BillboardRow {
	return models.BillboardRow{
		ID:         id,
		Latitude1:  sql.NullFloat64{Float64: -6.2, Valid: true},
		Longitude1: sql.NullFloat64{Float64: 106.8, Valid: true},
	}
}

func TestBatchSkipsRowsUpToResumeThreshold(t *testing.T) {
	reader := &fakeReader{rows: []models.BillboardRow{row(1), row(47), row(48), row(49), row(50)}}
	runner := &fakeRunner{}

	b := NewBatch(reader, runner, BatchOptions{ResumeAfterID: 48}, newTestLogger())
	report, err := b.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{49, 50}, runner.ids)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Records)
	assert.NotEmpty(t, report.RunID)
}

func TestBatchContinuesAfterRowFailure(t *testing.T) {
	reader := &fakeReader{rows: []models.BillboardRow{row(49), row(50), row(51)}}
	runner := &fakeRunner{fn: func(_ context.Context, id int64) ([]models.ScoredRecord, error) {
		if id == 50 {
			return nil, errors.New("page never loaded")
		}
		return []models.ScoredRecord{{IDBillboard: id}, {IDBillboard: id}}, nil
	}}
	recorder := &fakeRecorder{}
	cleanups := 0

	b := NewBatch(reader, runner, BatchOptions{
		ResumeAfterID: 48,
		Failures:      recorder,
		Cleanup:       func() int { cleanups++; return 1 },
	}, newTestLogger())
	report, err := b.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{49, 50, 51}, runner.ids)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 1, cleanups)

	require.Len(t, recorder.failures, 1)
	f := recorder.failures[0]
	assert.Equal(t, int64(50), f.BillboardID)
	assert.Equal(t, StagePipeline, f.Stage)
	assert.Equal(t, "page never loaded", f.Error)
	assert.Equal(t, report.RunID, f.RunID)
	assert.Equal(t, report.Failures, recorder.failures)
}

func TestBatchMissingCoordinatesIsRowFailure(t *testing.T) {
	noCoords := models.BillboardRow{ID: 60}
	reader := &fakeReader{rows: []models.BillboardRow{noCoords, row(61)}}
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	b := NewBatch(reader, runner, BatchOptions{ResumeAfterID: 48, Failures: recorder}, newTestLogger())
	report, err := b.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{61}, runner.ids)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, recorder.failures, 1)
	assert.Equal(t, StageCoordinates, recorder.failures[0].Stage)
	assert.Equal(t, ErrMissingCoordinates.Error(), recorder.failures[0].Error)
}

func TestBatchReadErrorEndsRun(t *testing.T) {
	readErr := errors.New("table billboards does not exist")
	runner := &fakeRunner{}

	b := NewBatch(&fakeReader{err: readErr}, runner, BatchOptions{}, newTestLogger())
	report, err := b.RunAll(context.Background())
	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, report)
	assert.Empty(t, runner.ids)
}

func TestBatchStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{rows: []models.BillboardRow{row(49), row(50), row(51)}}
	runner := &fakeRunner{fn: func(_ context.Context, id int64) ([]models.ScoredRecord, error) {
		cancel()
		return nil, nil
	}}

	b := NewBatch(reader, runner, BatchOptions{ResumeAfterID: 48}, newTestLogger())
	report, err := b.RunAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, []int64{49}, runner.ids)
	assert.Equal(t, 1, report.Succeeded)
}

func TestBatchEmptyTable(t *testing.T) {
	b := NewBatch(&fakeReader{}, &fakeRunner{}, BatchOptions{ResumeAfterID: 48}, newTestLogger())
	report, err := b.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}
