package repositories

import (
	"context"
	"time"

	"rolegate.backend/internal/domain/entities"
)

// PendingInvoiceRepository is the durable store of pending-payment records.
// Implementations must provide their own atomicity: Take is the linchpin of
// the at-most-once grant guarantee and must behave correctly under concurrent
// callers.
type PendingInvoiceRepository interface {
	// Create persists a new record. Returns domain ErrAlreadyExists if a
	// record with the same payment hash is already present; the existing
	// record is never overwritten.
	Create(ctx context.Context, invoice *entities.PendingInvoice) error

	// Take atomically looks up and deletes the record for the given payment
	// hash. Exactly one of any set of concurrent callers receives the record;
	// the rest get domain ErrNotFound.
	Take(ctx context.Context, paymentHash string) (*entities.PendingInvoice, error)

	// ListAll returns every pending record, oldest first.
	ListAll(ctx context.Context) ([]*entities.PendingInvoice, error)

	// PurgeOlderThan removes records older than the given age and returns the
	// number removed.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// Count returns the number of pending records.
	Count(ctx context.Context) (int64, error)
}
