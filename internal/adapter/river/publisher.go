package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/parkiq/internal/domain"
)

// Compile-time check: Publisher implements domain.AuditPublisher.
var _ domain.AuditPublisher = (*Publisher)(nil)

// AuditJobArgs carries a completed token record to the audit trail
// asynchronously. River serializes this as JSON into its job queue
// table, so the worker never touches live parking state.
type AuditJobArgs struct {
	TokenID      string    `json:"token_id"`
	SlotID       string    `json:"slot_id"`
	Registration string    `json:"registration"`
	Class        string    `json:"class"`
	EntryTime    time.Time `json:"entry_time"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (AuditJobArgs) Kind() string { return "audit.token_issued" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.AuditPublisher by enqueuing River jobs.
// Enqueueing keeps the audit write off the parking hot path; the
// parking service treats a failed enqueue as best-effort and moves on.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues an audit record as an async job in River.
func (p *Publisher) Publish(ctx context.Context, record domain.AuditRecord) error {
	_, err := p.client.Insert(ctx, AuditJobArgs{
		TokenID:      record.TokenID,
		SlotID:       record.SlotID,
		Registration: record.Registration,
		Class:        string(record.Class),
		EntryTime:    record.EntryTime,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing audit job: %w", err)
	}
	return nil
}
