package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"billboard-poi-scraper/models"
)

// Publisher is the part of a NATS connection FailurePublisher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// FailurePublisher announces failed billboard rows on a NATS subject so other
// systems can pick them up for a rerun.
type FailurePublisher struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
}

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string) (*FailurePublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("poi-scraper"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &FailurePublisher{pub: conn, subject: subject, conn: conn}, nil
}

// NewFailurePublisher wraps an existing publisher.
func NewFailurePublisher(pub Publisher, subject string) *FailurePublisher {
	return &FailurePublisher{pub: pub, subject: subject}
}

// RecordFailure publishes f as JSON on "<subject>.<billboard id>".
func (p *FailurePublisher) RecordFailure(_ context.Context, f models.RowFailure) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("nats: marshal failure: %w", err)
	}
	subject := fmt.Sprintf("%s.%d", p.subject, f.BillboardID)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("nats: publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection if Connect created it.
func (p *FailurePublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
