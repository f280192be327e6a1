package jobs

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a job does not exist or belongs to a
// different tenant. The two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("job not found")

// ErrQuotaExceeded is returned by ReserveQuota when a tenant has used up
// its monthly document allowance.
var ErrQuotaExceeded = errors.New("monthly document limit exceeded")

// Store persists jobs and per-tenant monthly usage counters.
type Store interface {
	// Create inserts a queued job and assigns its ID.
	Create(ctx context.Context, job *Job) error

	// Get returns a job scoped to the owning tenant.
	Get(ctx context.Context, tenantID string, id int64) (*Job, error)

	// GetByID returns a job without tenant scoping. Workers use it; it
	// must never back an API handler.
	GetByID(ctx context.Context, id int64) (*Job, error)

	// List returns the tenant's jobs newest-first, plus the total count
	// before pagination.
	List(ctx context.Context, tenantID string, limit, offset int) ([]Summary, int, error)

	// SetRunning marks a job as picked up by a worker.
	SetRunning(ctx context.Context, id int64) error

	// SetResult marks a job done with its result document.
	SetResult(ctx context.Context, id int64, result json.RawMessage) error

	// SetFailed marks a job failed with the error message.
	SetFailed(ctx context.Context, id int64, errMsg string) error

	// ReserveQuota counts one document against the tenant's month. It
	// returns ErrQuotaExceeded without counting when the limit is hit.
	ReserveQuota(ctx context.Context, tenantID, month string, limit int) error

	// Close releases the underlying storage.
	Close() error
}
