package repository

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingPaymentModel is the GORM model for the checkout-time index mapping
// a merchant order number to the store that owns the registration.
type PendingPaymentModel struct {
	OrderNo   string    `gorm:"type:varchar(30);primaryKey"`
	Store     string    `gorm:"type:varchar(30);not null"`
	RecordID  uuid.UUID `gorm:"type:uuid;not null"`
	Amount    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (PendingPaymentModel) TableName() string { return "pending_payments" }

// GatewayNotificationModel is the GORM model for the processed-notification
// ledger, keyed by the gateway's trade number.
type GatewayNotificationModel struct {
	TradeNo    string    `gorm:"type:varchar(60);primaryKey"`
	OrderNo    string    `gorm:"type:varchar(30);not null;index"`
	Amount     int64     `gorm:"not null"`
	ReceivedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (GatewayNotificationModel) TableName() string { return "gateway_notifications" }

// GormPaymentIndexRepository implements payment.IndexRepository.
type GormPaymentIndexRepository struct {
	db *gorm.DB
}

// NewPaymentIndexRepository creates a new pending-payment index repository.
func NewPaymentIndexRepository(db *gorm.DB) *GormPaymentIndexRepository {
	return &GormPaymentIndexRepository{db: db}
}

// Save persists an index entry.
func (r *GormPaymentIndexRepository) Save(ctx context.Context, entry *payment.PendingPayment) error {
	model := PendingPaymentModel{
		OrderNo:   entry.OrderNo,
		Store:     string(entry.Store),
		RecordID:  entry.RecordID,
		Amount:    entry.Amount,
		CreatedAt: entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByOrderNo returns the index entry or nil when none exists.
func (r *GormPaymentIndexRepository) FindByOrderNo(ctx context.Context, orderNo string) (*payment.PendingPayment, error) {
	var model PendingPaymentModel
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment.PendingPayment{
		OrderNo:   model.OrderNo,
		Store:     payment.Store(model.Store),
		RecordID:  model.RecordID,
		Amount:    model.Amount,
		CreatedAt: model.CreatedAt,
	}, nil
}

// Delete removes an index entry. Missing entries are not an error.
func (r *GormPaymentIndexRepository) Delete(ctx context.Context, orderNo string) error {
	return r.db.WithContext(ctx).Where("order_no = ?", orderNo).Delete(&PendingPaymentModel{}).Error
}

// GormNotificationLedgerRepository implements payment.LedgerRepository.
type GormNotificationLedgerRepository struct {
	db *gorm.DB
}

// NewNotificationLedgerRepository creates a new notification ledger repository.
func NewNotificationLedgerRepository(db *gorm.DB) *GormNotificationLedgerRepository {
	return &GormNotificationLedgerRepository{db: db}
}

// Record inserts the record unless its trade number was already recorded.
// The ON CONFLICT DO NOTHING insert makes the check race-safe under
// concurrent redelivery.
func (r *GormNotificationLedgerRepository) Record(ctx context.Context, rec *payment.NotificationRecord) (bool, error) {
	model := GatewayNotificationModel{
		TradeNo:    rec.TradeNo,
		OrderNo:    rec.OrderNo,
		Amount:     rec.Amount,
		ReceivedAt: rec.ReceivedAt,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Seen reports whether a trade number has already been recorded.
func (r *GormNotificationLedgerRepository) Seen(ctx context.Context, tradeNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&GatewayNotificationModel{}).
		Where("trade_no = ?", tradeNo).
		Count(&count).Error
	return count > 0, err
}
