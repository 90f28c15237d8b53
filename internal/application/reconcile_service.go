package application

import (
	"context"
	"time"

	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/gateway"
	"go.uber.org/zap"
)

// paymentStore is the slice of a registration repository the reconciler
// needs: the conditional mark-paid update and nothing else.
type paymentStore interface {
	MarkPaidByOrderNo(ctx context.Context, orderNo string, upd payment.Update) (int64, error)
}

// EventPublisher publishes payment outcome events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, orderNo string, data any) error
}

// ReconcileService applies decoded gateway notifications to the registration
// stores. It never reads a registration before writing: matching and status
// guarding happen inside the store's conditional update, so concurrent
// redeliveries converge on the same row state.
type ReconcileService struct {
	general paymentStore
	member  paymentStore
	index   payment.IndexRepository
	ledger  payment.LedgerRepository
	events  EventPublisher
	logger  *zap.Logger
}

// NewReconcileService creates the reconciliation service.
func NewReconcileService(
	general paymentStore,
	member paymentStore,
	index payment.IndexRepository,
	ledger payment.LedgerRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		general: general,
		member:  member,
		index:   index,
		ledger:  ledger,
		events:  publisher,
		logger:  logger,
	}
}

// Apply processes one decoded notification. A nil return means the gateway
// should be acked with 200, including when no registration matches; an error
// means a transient failure the gateway should retry.
func (s *ReconcileService) Apply(ctx context.Context, n gateway.PaymentNotification) error {
	if !n.Success() {
		return s.applyFailure(ctx, n)
	}

	if n.TradeNo != "" {
		seen, err := s.ledger.Seen(ctx, n.TradeNo)
		if err != nil {
			s.logger.Warn("ledger lookup failed, proceeding without dedup",
				zap.String("order_no", n.OrderNo),
				zap.Error(err),
			)
		} else if seen {
			s.logger.Info("duplicate notification ignored",
				zap.String("order_no", n.OrderNo),
				zap.String("trade_no", n.TradeNo),
			)
			return nil
		}
	}

	paidAt := n.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	upd := payment.Update{
		PaidAmount:      n.Amount,
		PaidAt:          paidAt,
		MerchantOrderNo: n.OrderNo,
		Method:          n.PaymentMethod,
	}

	stores := s.storeOrder(ctx, n.OrderNo)

	var lastErr error
	failures := 0
	for _, attempt := range stores {
		rows, err := attempt.store.MarkPaidByOrderNo(ctx, n.OrderNo, upd)
		if err != nil {
			s.logger.Error("store update failed",
				zap.String("order_no", n.OrderNo),
				zap.String("store", string(attempt.name)),
				zap.Error(err),
			)
			lastErr = err
			failures++
			continue
		}
		if rows > 0 {
			return s.finishSuccess(ctx, n, attempt.name, paidAt)
		}
	}

	if failures == len(stores) && lastErr != nil {
		return lastErr
	}

	s.logger.Warn("no registration matched notification",
		zap.String("order_no", n.OrderNo),
		zap.Int64("amount", n.Amount),
	)
	return nil
}

type storeAttempt struct {
	name  payment.Store
	store paymentStore
}

// storeOrder decides which store to try first. An index hit short-circuits
// to the owning store alone; a miss (or index error) falls back to trying
// both, general first.
func (s *ReconcileService) storeOrder(ctx context.Context, orderNo string) []storeAttempt {
	both := []storeAttempt{
		{name: payment.StoreGeneral, store: s.general},
		{name: payment.StoreMember, store: s.member},
	}

	entry, err := s.index.FindByOrderNo(ctx, orderNo)
	if err != nil {
		s.logger.Warn("pending payment index lookup failed",
			zap.String("order_no", orderNo),
			zap.Error(err),
		)
		return both
	}
	if entry == nil {
		return both
	}
	switch entry.Store {
	case payment.StoreGeneral:
		return []storeAttempt{{name: payment.StoreGeneral, store: s.general}}
	case payment.StoreMember:
		return []storeAttempt{{name: payment.StoreMember, store: s.member}}
	default:
		return both
	}
}

func (s *ReconcileService) finishSuccess(ctx context.Context, n gateway.PaymentNotification, store payment.Store, paidAt time.Time) error {
	s.logger.Info("registration marked paid",
		zap.String("order_no", n.OrderNo),
		zap.String("store", string(store)),
		zap.Int64("amount", n.Amount),
	)

	if n.TradeNo != "" {
		if _, err := s.ledger.Record(ctx, &payment.NotificationRecord{
			TradeNo:    n.TradeNo,
			OrderNo:    n.OrderNo,
			Amount:     n.Amount,
			ReceivedAt: time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("notification ledger write failed",
				zap.String("order_no", n.OrderNo),
				zap.Error(err),
			)
		}
	}

	if err := s.index.Delete(ctx, n.OrderNo); err != nil {
		s.logger.Warn("pending payment index cleanup failed",
			zap.String("order_no", n.OrderNo),
			zap.Error(err),
		)
	}

	if err := s.events.Publish(ctx, events.TypePaymentSucceeded, n.OrderNo, events.PaymentSucceededEvent{
		OrderNo:       n.OrderNo,
		Store:         string(store),
		Amount:        n.Amount,
		PaidAt:        paidAt,
		TradeNo:       n.TradeNo,
		PaymentMethod: n.PaymentMethod,
	}); err != nil {
		s.logger.Warn("payment succeeded event publish failed",
			zap.String("order_no", n.OrderNo),
			zap.Error(err),
		)
	}

	return nil
}

// applyFailure handles non-success statuses. Nothing is written to either
// store; a failure event is published when the order is known.
func (s *ReconcileService) applyFailure(ctx context.Context, n gateway.PaymentNotification) error {
	s.logger.Info("gateway reported non-success status",
		zap.String("order_no", n.OrderNo),
		zap.String("status", n.Status),
		zap.String("message", n.Message),
	)

	if n.OrderNo == "" {
		return nil
	}

	entry, err := s.index.FindByOrderNo(ctx, n.OrderNo)
	if err != nil || entry == nil {
		return nil
	}

	if err := s.events.Publish(ctx, events.TypePaymentFailed, n.OrderNo, events.PaymentFailedEvent{
		OrderNo: n.OrderNo,
		Status:  n.Status,
		Message: n.Message,
	}); err != nil {
		s.logger.Warn("payment failed event publish failed",
			zap.String("order_no", n.OrderNo),
			zap.Error(err),
		)
	}
	return nil
}
