package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billboard-poi-scraper/models"
)

type capturePublisher struct {
	subjects []string
	payloads [][]byte
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestFailurePublisherSubjectAndPayload(t *testing.T) {
	capt := &capturePublisher{}
	p := NewFailurePublisher(capt, "poi.billboard.failed")

	f := models.RowFailure{
		RunID:       "run-1",
		BillboardID: 52,
		Stage:       "pipeline",
		Error:       "timeout",
		FailedAt:    time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.RecordFailure(context.Background(), f))

	require.Len(t, capt.subjects, 1)
	assert.Equal(t, "poi.billboard.failed.52", capt.subjects[0])

	var got models.RowFailure
	require.NoError(t, json.Unmarshal(capt.payloads[0], &got))
	assert.Equal(t, f, got)
	assert.NoError(t, p.Close())
}
