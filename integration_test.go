//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckoutThenWebhook_MarksPaid walks the happy path: a public checkout
// creates a pending registration and a pending-payment index entry, then the
// gateway's success notification marks it paid and publishes an event.
func TestCheckoutThenWebhook_MarksPaid(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	activityID := seedPublishedActivity(t, infra.DB, 1500, 1000)

	result, err := stack.Checkout.Register(context.Background(), application.RegisterInput{
		ActivityID: activityID,
		Name:       "Jordan Lee",
		Email:      "jordan@example.com",
		Phone:      "0912345678",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.OrderNo)
	assert.Equal(t, int64(1500), result.Amount)
	assert.NotEmpty(t, result.TradeInfo, "client needs the encrypted payload for the gateway redirect")

	// Index entry exists before the webhook fires.
	var pending repository.PendingPaymentModel
	require.NoError(t, infra.DB.Where("order_no = ?", result.OrderNo).First(&pending).Error)
	assert.Equal(t, "registrations", pending.Store)

	w := postWebhook(t, stack, successEnvelope(result.OrderNo, 1500, "T-INT-001"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	var model repository.RegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&model).Error)
	assert.Equal(t, "paid", model.PaymentStatus)
	assert.Equal(t, int64(1500), model.PaidAmount)
	assert.NotNil(t, model.PaidAt)
	assert.Equal(t, "CREDIT", model.PaymentMethod)

	// Index entry is cleaned up and the notification recorded.
	err = infra.DB.Where("order_no = ?", result.OrderNo).First(&repository.PendingPaymentModel{}).Error
	assert.Error(t, err, "pending payment index entry should be deleted")

	var ledger repository.GatewayNotificationModel
	require.NoError(t, infra.DB.Where("trade_no = ?", "T-INT-001").First(&ledger).Error)
	assert.Equal(t, result.OrderNo, ledger.OrderNo)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TypePaymentSucceeded, 15*time.Second)
	var evt events.PaymentSucceededEvent
	require.NoError(t, json.Unmarshal(ce.Data, &evt))
	assert.Equal(t, result.OrderNo, evt.OrderNo)
	assert.Equal(t, "registrations", evt.Store)
	assert.Equal(t, int64(1500), evt.Amount)
}

// TestMemberCheckoutThenWebhook_MarksPaidInMemberStore verifies the member
// flow lands in the member store at the member rate.
func TestMemberCheckoutThenWebhook_MarksPaidInMemberStore(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	activityID := seedPublishedActivity(t, infra.DB, 1500, 1000)
	memberID := seedActiveMember(t, infra.DB)

	result, err := stack.Checkout.RegisterMember(context.Background(), memberID, activityID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Amount, "member pays the member rate")

	w := postWebhook(t, stack, successEnvelope(result.OrderNo, 1000, "T-INT-002"))
	require.Equal(t, http.StatusOK, w.Code)

	var model repository.MemberRegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&model).Error)
	assert.Equal(t, "paid", model.PaymentStatus)
	assert.Equal(t, memberID, model.MemberID)

	// The general store was never touched.
	var count int64
	infra.DB.Model(&repository.RegistrationModel{}).Where("merchant_order_no = ?", result.OrderNo).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestWebhookRedelivery_IsIdempotent replays the same notification and
// verifies the second delivery changes nothing.
func TestWebhookRedelivery_IsIdempotent(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	activityID := seedPublishedActivity(t, infra.DB, 1500, 1000)
	result, err := stack.Checkout.Register(context.Background(), application.RegisterInput{
		ActivityID: activityID,
		Name:       "Jordan Lee",
		Email:      "jordan@example.com",
	})
	require.NoError(t, err)

	envelope := successEnvelope(result.OrderNo, 1500, "T-INT-003")

	w := postWebhook(t, stack, envelope)
	require.Equal(t, http.StatusOK, w.Code)

	var first repository.RegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&first).Error)

	// Redeliver the identical notification.
	w = postWebhook(t, stack, envelope)
	require.Equal(t, http.StatusOK, w.Code, "redelivery must still be acked")

	var second repository.RegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&second).Error)
	assert.Equal(t, "paid", second.PaymentStatus)
	assert.Equal(t, first.PaidAmount, second.PaidAmount)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "duplicate must not rewrite the row")
}

// TestWebhook_UnknownOrder_AcksWithoutWrites verifies that a notification for
// an order nothing matches is acked with 200 and writes nothing.
func TestWebhook_UnknownOrder_AcksWithoutWrites(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	w := postWebhook(t, stack, successEnvelope("ORD-NEVER-EXISTED", 500, "T-INT-004"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	var count int64
	infra.DB.Model(&repository.GatewayNotificationModel{}).Where("trade_no = ?", "T-INT-004").Count(&count)
	assert.Equal(t, int64(0), count, "unmatched notification must not enter the ledger")
}

// TestRefundedRegistration_LateNotificationDoesNotRepay refunds a paid
// registration and then replays a success notification with a fresh trade
// number: the refunded row must never flip back to paid.
func TestRefundedRegistration_LateNotificationDoesNotRepay(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	activityID := seedPublishedActivity(t, infra.DB, 1500, 1000)
	result, err := stack.Checkout.Register(context.Background(), application.RegisterInput{
		ActivityID: activityID,
		Name:       "Jordan Lee",
		Email:      "jordan@example.com",
	})
	require.NoError(t, err)

	w := postWebhook(t, stack, successEnvelope(result.OrderNo, 1500, "T-INT-005"))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, stack.Registrations.Refund(context.Background(), result.RegistrationID))

	// Late redelivery with a different trade number bypasses the ledger, so
	// only the refunded guard in the conditional update protects the row.
	w = postWebhook(t, stack, successEnvelope(result.OrderNo, 1500, "T-INT-005-RETRY"))
	require.Equal(t, http.StatusOK, w.Code)

	var model repository.RegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&model).Error)
	assert.Equal(t, "refunded", model.PaymentStatus, "refunded registration must stay refunded")
}

// TestCouponCheckout_DiscountsAmount applies a coupon at checkout and pays
// the discounted amount.
func TestCouponCheckout_DiscountsAmount(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	activityID := seedPublishedActivity(t, infra.DB, 1500, 1000)

	now := time.Now().UTC()
	coupon := repository.CouponModel{
		ID:         uuid.New(),
		Code:       "FORUM500",
		Discount:   500,
		MaxUses:    10,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		CreatedBy:  uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, infra.DB.Create(&coupon).Error)

	result, err := stack.Checkout.Register(context.Background(), application.RegisterInput{
		ActivityID: activityID,
		Name:       "Jordan Lee",
		Email:      "jordan@example.com",
		CouponCode: "forum500",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Amount)

	var updated repository.CouponModel
	require.NoError(t, infra.DB.Where("code = ?", "FORUM500").First(&updated).Error)
	assert.Equal(t, 1, updated.CurrentUses)

	w := postWebhook(t, stack, successEnvelope(result.OrderNo, 1000, "T-INT-006"))
	require.Equal(t, http.StatusOK, w.Code)

	var model repository.RegistrationModel
	require.NoError(t, infra.DB.Where("merchant_order_no = ?", result.OrderNo).First(&model).Error)
	assert.Equal(t, int64(1000), model.PaidAmount)
}
