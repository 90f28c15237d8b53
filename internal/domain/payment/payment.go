// Package payment holds the types shared by the reconciliation engine and
// both registration stores: the conditional-update payload, the checkout-time
// pending-payment index, and the notification replay ledger.
package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status values a registration's payment can be in.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// Store identifies which registration table owns a record. Membership never
// changes after checkout.
type Store string

const (
	StoreGeneral Store = "registrations"
	StoreMember  Store = "member_registrations"
)

// Update is the field overwrite applied to a registration when the gateway
// reports success. It is a pure overwrite, never an increment, so reapplying
// the same update yields the same row state.
type Update struct {
	PaidAmount      int64
	PaidAt          time.Time
	MerchantOrderNo string
	Method          string
}

// PendingPayment is the checkout-time index entry mapping a merchant order
// number to the owning store and record, so the webhook can resolve a
// notification with a single lookup.
type PendingPayment struct {
	OrderNo   string
	Store     Store
	RecordID  uuid.UUID
	Amount    int64
	CreatedAt time.Time
}

// NotificationRecord is a ledger entry for a processed gateway notification,
// keyed by the gateway's trade number. Its presence means the notification
// was already applied and a redelivery must be a no-op.
type NotificationRecord struct {
	TradeNo    string
	OrderNo    string
	Amount     int64
	ReceivedAt time.Time
}
