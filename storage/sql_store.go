package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"billboard-poi-scraper/models"
	"billboard-poi-scraper/utils"
)

const insertBatchSize = 50

var recordColumns = []string{
	"poi", "name", "number_review", "number_rating",
	"latBillboard", "lonBillboard", "idBillboard", "avg_score",
}

// SQLStore reads billboards and appends POI records in PostgreSQL or MySQL.
type SQLStore struct {
	db     *sql.DB
	d      dialect
	logger *utils.Logger
}

// OpenSQL connects to the database behind dsn, retrying the ping while the
// server comes up.
func OpenSQL(ctx context.Context, driver, dsn string, logger *utils.Logger) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.name, err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Debug("[storage] %s ping failed (attempt %d/10): %v", d.name, i+1, err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("%s: ping: %w", d.name, ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping failed after retries: %w", d.name, err)
	}

	return &SQLStore{db: db, d: d, logger: logger}, nil
}

// EnsureSchema creates the tables this program writes to, if missing.
// The billboards table is owned elsewhere and never touched.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.d.ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: ensure schema: %w", s.d.name, err)
		}
	}
	return nil
}

// Append inserts all records in one transaction. Re-running the same
// billboard appends the same rows again.
func (s *SQLStore) Append(ctx context.Context, records []models.ScoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.d.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := 0; i < len(records); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		if _, err := tx.ExecContext(ctx, s.insertQuery(len(batch)), recordArgs(batch)...); err != nil {
			return fmt.Errorf("%s: insert poi_billboards: %w", s.d.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.d.name, err)
	}
	s.logger.Debug("[storage] Appended %d rows to poi_billboards", len(records))
	return nil
}

func (s *SQLStore) insertQuery(rows int) string {
	return fmt.Sprintf("INSERT INTO poi_billboards (%s) VALUES %s",
		s.d.columns(recordColumns...), s.d.values(rows, len(recordColumns)))
}

func recordArgs(batch []models.ScoredRecord) []interface{} {
	args := make([]interface{}, 0, len(batch)*len(recordColumns))
	for _, r := range batch {
		args = append(args,
			string(r.POI), nullString(r.Name), r.NumberReview, r.NumberRating,
			r.LatBillboard, r.LonBillboard, r.IDBillboard, r.AvgScore)
	}
	return args
}

// Billboards returns every row of the billboards table ordered by id.
func (s *SQLStore) Billboards(ctx context.Context) ([]models.BillboardRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, latitude1, longitude1 FROM billboards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch billboards: %w", s.d.name, err)
	}
	defer rows.Close()

	var out []models.BillboardRow
	for rows.Next() {
		var b models.BillboardRow
		if err := rows.Scan(&b.ID, &b.Latitude1, &b.Longitude1); err != nil {
			return nil, fmt.Errorf("%s: scan billboard: %w", s.d.name, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordFailure stores a failed billboard row.
func (s *SQLStore) RecordFailure(ctx context.Context, f models.RowFailure) error {
	query := fmt.Sprintf("INSERT INTO poi_billboard_failures (run_id, id_billboard, stage, error, failed_at) VALUES %s",
		s.d.values(1, 5))
	if _, err := s.db.ExecContext(ctx, query, f.RunID, f.BillboardID, f.Stage, f.Error, f.FailedAt); err != nil {
		return fmt.Errorf("%s: record failure for billboard %d: %w", s.d.name, f.BillboardID, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
