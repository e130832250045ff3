package storage

import (
	"context"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/schema"
)

// SubmissionStore persists submissions and produces the unified history
// projection. Missing rows surface as sql.ErrNoRows from every
// implementation.
type SubmissionStore interface {
	// InsertSubmission writes one row into the descriptor's table. values
	// must be in the descriptor's column order.
	InsertSubmission(ctx context.Context, d schema.Descriptor, userID int64, values []interface{}) (submission.Ref, error)

	// InsertGeneric writes an unrecognized-type submission into the generic
	// fallback table with an explicit pending status.
	InsertGeneric(ctx context.Context, userID int64, typeTag string, payload []byte) (submission.Ref, error)

	// History returns the normalized projection across every known table,
	// ordered by created_at descending. requesterID 0 yields the unscoped
	// administrator view; any other value scopes to that owner.
	History(ctx context.Context, requesterID int64) ([]submission.HistoryEntry, error)

	// GetSubmission fetches a single row from the table the type tag routes
	// to; unrecognized tags read the generic fallback table.
	GetSubmission(ctx context.Context, typeTag string, id int64) (submission.Record, error)

	// SetStatus updates the status column of the row the type tag routes to.
	SetStatus(ctx context.Context, typeTag string, id int64, status submission.Status) error
}
