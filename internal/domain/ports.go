package domain

import (
	"context"
	"time"
)

// AuditRecord is the append-only trail entry written after a successful
// park. It is a snapshot of the token at issue time; the audit trail is
// never read back into active parking state.
type AuditRecord struct {
	TokenID      string
	SlotID       string
	Registration string
	Class        VehicleClass
	EntryTime    time.Time
}

// AuditPublisher defines the contract for handing a completed token
// record to the audit trail. Publishing is best-effort: failures must
// not fail or roll back the park operation.
type AuditPublisher interface {
	Publish(ctx context.Context, record AuditRecord) error
}

// AuditStore defines the persistence contract for the audit trail.
type AuditStore interface {
	Append(ctx context.Context, record AuditRecord) error
	List(ctx context.Context, limit, offset int) ([]AuditRecord, error)
}

// TransitionValidator checks token lifecycle transitions against the
// Transitions table and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
