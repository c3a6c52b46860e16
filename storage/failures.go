package storage

import (
	"context"
	"errors"

	"billboard-poi-scraper/models"
)

// MultiFailureRecorder fans a failure out to several recorders. Every
// recorder is tried; the errors are joined.
type MultiFailureRecorder []FailureRecorder

func (m MultiFailureRecorder) RecordFailure(ctx context.Context, f models.RowFailure) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordFailure(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
