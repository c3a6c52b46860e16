package models

import (
	"database/sql"
	"time"
)

// BillboardRow is one row of the billboards table.
type BillboardRow struct {
	ID         int64
	Latitude1  sql.NullFloat64
	Longitude1 sql.NullFloat64
}

// Coordinate returns the row location and whether both values are present.
func (b BillboardRow) Coordinate() (Coordinate, bool) {
	if !b.Latitude1.Valid || !b.Longitude1.Valid {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: b.Latitude1.Float64, Longitude: b.Longitude1.Float64}, true
}

// Trigger is the inbound request for a single pipeline run.
type Trigger struct {
	Latitude    float64 `mapstructure:"lat"`
	Longitude   float64 `mapstructure:"long"`
	BillboardID int64   `mapstructure:"billboard_id"`
}

// RowFailure records a billboard row the batch could not process.
type RowFailure struct {
	RunID       string    `json:"run_id"`
	BillboardID int64     `json:"id_billboard"`
	Stage       string    `json:"stage"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}

// BatchReport summarises one pass over the billboards table.
type BatchReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Skipped    int
	Succeeded  int
	Failed     int
	Records    int
	Failures   []RowFailure
}
