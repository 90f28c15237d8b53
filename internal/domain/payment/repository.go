package payment

import "context"

// IndexRepository persists pending-payment index entries.
type IndexRepository interface {
	Save(ctx context.Context, entry *PendingPayment) error

	// FindByOrderNo returns nil, nil when no entry exists; a miss is not an
	// error for the reconciliation path.
	FindByOrderNo(ctx context.Context, orderNo string) (*PendingPayment, error)

	Delete(ctx context.Context, orderNo string) error
}

// LedgerRepository persists processed-notification records.
type LedgerRepository interface {
	// Record inserts the record if its trade number is unseen. Returns false
	// when a record with the same trade number already exists.
	Record(ctx context.Context, rec *NotificationRecord) (bool, error)

	// Seen reports whether a trade number has already been recorded.
	Seen(ctx context.Context, tradeNo string) (bool, error)
}
