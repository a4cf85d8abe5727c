package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/parkiq/internal/domain"
)

// AuditWorker drains audit jobs from the River queue into the audit
// store. A returned error lets River retry; the parking core has long
// since moved on by then.
type AuditWorker struct {
	river.WorkerDefaults[AuditJobArgs]

	store domain.AuditStore
}

// NewAuditWorker creates a worker that appends records to the given store.
func NewAuditWorker(store domain.AuditStore) *AuditWorker {
	return &AuditWorker{store: store}
}

// Work processes a single audit job.
func (w *AuditWorker) Work(ctx context.Context, job *river.Job[AuditJobArgs]) error {
	slog.InfoContext(ctx, "writing audit record",
		"token_id", job.Args.TokenID,
		"slot_id", job.Args.SlotID,
		"registration", job.Args.Registration,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	return w.store.Append(ctx, domain.AuditRecord{
		TokenID:      job.Args.TokenID,
		SlotID:       job.Args.SlotID,
		Registration: job.Args.Registration,
		Class:        domain.VehicleClass(job.Args.Class),
		EntryTime:    job.Args.EntryTime,
	})
}
