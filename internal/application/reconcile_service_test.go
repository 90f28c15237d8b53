package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	rows    int64
	err     error
	calls   []string
	updates []payment.Update
}

func (f *fakeStore) MarkPaidByOrderNo(_ context.Context, orderNo string, upd payment.Update) (int64, error) {
	f.calls = append(f.calls, orderNo)
	f.updates = append(f.updates, upd)
	return f.rows, f.err
}

type fakeIndex struct {
	entry   *payment.PendingPayment
	findErr error
	deleted []string
}

func (f *fakeIndex) Save(context.Context, *payment.PendingPayment) error { return nil }
func (f *fakeIndex) FindByOrderNo(context.Context, string) (*payment.PendingPayment, error) {
	return f.entry, f.findErr
}
func (f *fakeIndex) Delete(_ context.Context, orderNo string) error {
	f.deleted = append(f.deleted, orderNo)
	return nil
}

type fakeLedger struct {
	seen     bool
	seenErr  error
	recorded []*payment.NotificationRecord
}

func (f *fakeLedger) Record(_ context.Context, rec *payment.NotificationRecord) (bool, error) {
	f.recorded = append(f.recorded, rec)
	return true, nil
}
func (f *fakeLedger) Seen(context.Context, string) (bool, error) { return f.seen, f.seenErr }

type publishedEvent struct {
	Type    string
	OrderNo string
	Data    any
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, eventType, orderNo string, data any) error {
	f.published = append(f.published, publishedEvent{Type: eventType, OrderNo: orderNo, Data: data})
	return f.err
}

type reconcileFixture struct {
	general   *fakeStore
	member    *fakeStore
	index     *fakeIndex
	ledger    *fakeLedger
	publisher *fakePublisher
	service   *ReconcileService
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		general:   &fakeStore{},
		member:    &fakeStore{},
		index:     &fakeIndex{},
		ledger:    &fakeLedger{},
		publisher: &fakePublisher{},
	}
	f.service = NewReconcileService(f.general, f.member, f.index, f.ledger, f.publisher, zap.NewNop())
	return f
}

func successNotification(orderNo string) gateway.PaymentNotification {
	return gateway.PaymentNotification{
		Status:        gateway.StatusSuccess,
		OrderNo:       orderNo,
		Amount:        1500,
		PaidAt:        time.Date(2026, 8, 30, 14, 25, 10, 0, time.UTC),
		TradeNo:       "T123456",
		PaymentMethod: "CREDIT",
	}
}

func TestApply_NonSuccess_WritesNothing(t *testing.T) {
	f := newReconcileFixture()

	n := gateway.PaymentNotification{Status: "TRA20001", Message: "declined", OrderNo: "ORD1", Amount: 900}
	require.NoError(t, f.service.Apply(context.Background(), n))

	assert.Empty(t, f.general.calls)
	assert.Empty(t, f.member.calls)
	assert.Empty(t, f.ledger.recorded)
	assert.Empty(t, f.publisher.published, "unknown order should not produce a failure event")
}

func TestApply_NonSuccess_KnownOrder_PublishesFailure(t *testing.T) {
	f := newReconcileFixture()
	f.index.entry = &payment.PendingPayment{OrderNo: "ORD1", Store: payment.StoreGeneral}

	n := gateway.PaymentNotification{Status: "TRA20001", Message: "declined", OrderNo: "ORD1"}
	require.NoError(t, f.service.Apply(context.Background(), n))

	assert.Empty(t, f.general.calls)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TypePaymentFailed, f.publisher.published[0].Type)
}

func TestApply_IndexHit_GeneralStoreOnly(t *testing.T) {
	f := newReconcileFixture()
	f.index.entry = &payment.PendingPayment{OrderNo: "ORD1", Store: payment.StoreGeneral}
	f.general.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD1")))

	assert.Equal(t, []string{"ORD1"}, f.general.calls)
	assert.Empty(t, f.member.calls, "index hit must not touch the other store")

	require.Len(t, f.general.updates, 1)
	upd := f.general.updates[0]
	assert.Equal(t, int64(1500), upd.PaidAmount)
	assert.Equal(t, "ORD1", upd.MerchantOrderNo)
	assert.Equal(t, "CREDIT", upd.Method)

	require.Len(t, f.ledger.recorded, 1)
	assert.Equal(t, "T123456", f.ledger.recorded[0].TradeNo)
	assert.Equal(t, []string{"ORD1"}, f.index.deleted)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TypePaymentSucceeded, f.publisher.published[0].Type)
}

func TestApply_IndexHit_MemberStore(t *testing.T) {
	f := newReconcileFixture()
	f.index.entry = &payment.PendingPayment{OrderNo: "ORD2", Store: payment.StoreMember}
	f.member.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD2")))

	assert.Empty(t, f.general.calls)
	assert.Equal(t, []string{"ORD2"}, f.member.calls)
}

func TestApply_IndexMiss_FallsBackToBothStores(t *testing.T) {
	f := newReconcileFixture()
	f.member.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD3")))

	assert.Equal(t, []string{"ORD3"}, f.general.calls, "general store tried first")
	assert.Equal(t, []string{"ORD3"}, f.member.calls)

	require.Len(t, f.publisher.published, 1)
	evt, ok := f.publisher.published[0].Data.(events.PaymentSucceededEvent)
	require.True(t, ok)
	assert.Equal(t, string(payment.StoreMember), evt.Store)
}

func TestApply_NoMatchAnywhere_AcksWithoutError(t *testing.T) {
	f := newReconcileFixture()

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD-UNKNOWN")))

	assert.Empty(t, f.ledger.recorded, "no-match must not be recorded as processed")
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.index.deleted)
}

func TestApply_DuplicateTradeNo_IsNoOp(t *testing.T) {
	f := newReconcileFixture()
	f.ledger.seen = true
	f.general.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD1")))

	assert.Empty(t, f.general.calls)
	assert.Empty(t, f.member.calls)
	assert.Empty(t, f.publisher.published)
}

func TestApply_LedgerLookupError_ProceedsWithoutDedup(t *testing.T) {
	f := newReconcileFixture()
	f.ledger.seenErr = errors.New("ledger down")
	f.general.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD1")))
	assert.Equal(t, []string{"ORD1"}, f.general.calls)
}

func TestApply_GeneralStoreError_FallsBackToMember(t *testing.T) {
	f := newReconcileFixture()
	f.general.err = errors.New("connection reset")
	f.member.rows = 1

	require.NoError(t, f.service.Apply(context.Background(), successNotification("ORD4")))

	assert.Equal(t, []string{"ORD4"}, f.member.calls)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TypePaymentSucceeded, f.publisher.published[0].Type)
}

func TestApply_BothStoresError_ReturnsError(t *testing.T) {
	f := newReconcileFixture()
	f.general.err = errors.New("connection reset")
	f.member.err = errors.New("connection reset")

	err := f.service.Apply(context.Background(), successNotification("ORD5"))
	assert.Error(t, err, "transient failure in both stores must surface so the gateway retries")
	assert.Empty(t, f.publisher.published)
}

func TestApply_ZeroPaidAt_DefaultsToNow(t *testing.T) {
	f := newReconcileFixture()
	f.general.rows = 1

	n := successNotification("ORD6")
	n.PaidAt = time.Time{}
	before := time.Now().UTC()

	require.NoError(t, f.service.Apply(context.Background(), n))

	require.Len(t, f.general.updates, 1)
	paidAt := f.general.updates[0].PaidAt
	assert.False(t, paidAt.IsZero())
	assert.False(t, paidAt.Before(before))
}

func TestApply_EmptyTradeNo_SkipsLedger(t *testing.T) {
	f := newReconcileFixture()
	f.general.rows = 1

	n := successNotification("ORD7")
	n.TradeNo = ""

	require.NoError(t, f.service.Apply(context.Background(), n))
	assert.Empty(t, f.ledger.recorded)
	require.Len(t, f.publisher.published, 1)
}
