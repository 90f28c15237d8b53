package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/activity"
	"github.com/assocdesk/service-registration/internal/domain/coupon"
	"github.com/assocdesk/service-registration/internal/domain/member"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/assocdesk/service-registration/internal/domain/registration"
	"github.com/assocdesk/service-registration/internal/gateway"
	"github.com/assocdesk/service-registration/internal/saga"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterInput is the public registration request.
type RegisterInput struct {
	ActivityID uuid.UUID
	Name       string
	Email      string
	Phone      string
	CouponCode string
}

// CheckoutResult carries everything the client needs to redirect the
// registrant to the gateway's hosted payment page.
type CheckoutResult struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	OrderNo        string    `json:"order_no"`
	Amount         int64     `json:"amount"`
	MerchantID     string    `json:"merchant_id"`
	PayURL         string    `json:"pay_url"`
	TradeInfo      string    `json:"trade_info"`
}

// CheckoutService creates registrations and payment attempts. Each checkout
// runs as a saga so a failure at any step rolls back coupon usage and the
// pending-payment index entry.
type CheckoutService struct {
	registrations registration.Repository
	memberRegs    member.RegistrationRepository
	members       member.Repository
	activities    activity.Repository
	coupons       coupon.Repository
	index         payment.IndexRepository
	codec         *gateway.Codec
	merchantID    string
	payURL        string
	notifyURL     string
	logger        *zap.Logger
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(
	registrations registration.Repository,
	memberRegs member.RegistrationRepository,
	members member.Repository,
	activities activity.Repository,
	coupons coupon.Repository,
	index payment.IndexRepository,
	codec *gateway.Codec,
	merchantID, payURL, notifyURL string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		registrations: registrations,
		memberRegs:    memberRegs,
		members:       members,
		activities:    activities,
		coupons:       coupons,
		index:         index,
		codec:         codec,
		merchantID:    merchantID,
		payURL:        payURL,
		notifyURL:     notifyURL,
		logger:        logger,
	}
}

// Register creates a general registration and a payment attempt for it.
func (s *CheckoutService) Register(ctx context.Context, input RegisterInput) (*CheckoutResult, error) {
	if input.Name == "" || input.Email == "" {
		return nil, domain.NewValidationError("name and email are required")
	}

	act, err := s.activities.FindByID(ctx, input.ActivityID)
	if err != nil {
		return nil, err
	}
	if !act.Published() {
		return nil, domain.NewNotFoundError("activity", input.ActivityID.String())
	}

	count, err := s.registrations.CountByActivity(ctx, act.ID())
	if err != nil {
		return nil, err
	}
	if count >= int64(act.Capacity()) {
		return nil, domain.NewConflictError("activity is full")
	}

	amount := act.Price()
	var cpn *coupon.Coupon
	if input.CouponCode != "" {
		code := strings.ToUpper(strings.TrimSpace(input.CouponCode))
		cpn, err = s.coupons.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if !cpn.IsValid() {
			return nil, domain.NewConflictError("coupon is no longer valid")
		}
		amount = cpn.Apply(amount)
	}

	reg := registration.NewRegistration(act.ID(), input.Name, input.Email, input.Phone, input.CouponCode, amount)
	orderNo := newOrderNo()
	if err := reg.AssignOrderNo(orderNo); err != nil {
		return nil, err
	}

	flow := saga.New("checkout", s.logger)
	if cpn != nil {
		flow.AddStep(saga.Step{
			Name: "redeem coupon",
			Execute: func(ctx context.Context) error {
				if err := cpn.Redeem(); err != nil {
					return err
				}
				return s.coupons.Update(ctx, cpn)
			},
			Compensate: func(ctx context.Context) error {
				cpn.Release()
				return s.coupons.Update(ctx, cpn)
			},
		})
	}
	flow.AddStep(saga.Step{
		Name: "save registration",
		Execute: func(ctx context.Context) error {
			return s.registrations.Save(ctx, reg)
		},
		Compensate: func(ctx context.Context) error {
			if err := reg.MarkFailed(); err != nil {
				return err
			}
			return s.registrations.Update(ctx, reg)
		},
	})
	flow.AddStep(saga.Step{
		Name: "index pending payment",
		Execute: func(ctx context.Context) error {
			return s.index.Save(ctx, &payment.PendingPayment{
				OrderNo:   orderNo,
				Store:     payment.StoreGeneral,
				RecordID:  reg.ID(),
				Amount:    amount,
				CreatedAt: time.Now().UTC(),
			})
		},
		Compensate: func(ctx context.Context) error {
			return s.index.Delete(ctx, orderNo)
		},
	})

	if err := flow.Execute(ctx); err != nil {
		return nil, err
	}

	return s.buildResult(reg.ID(), orderNo, amount, act.Title(), input.Email)
}

// RegisterMember creates a member registration at the member rate.
func (s *CheckoutService) RegisterMember(ctx context.Context, memberID, activityID uuid.UUID) (*CheckoutResult, error) {
	mbr, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !mbr.Active {
		return nil, domain.NewConflictError("membership is not active")
	}

	act, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !act.Published() {
		return nil, domain.NewNotFoundError("activity", activityID.String())
	}

	amount := act.MemberPrice()
	reg := member.NewRegistration(mbr.ID, act.ID(), amount)
	orderNo := newOrderNo()
	if err := reg.AssignOrderNo(orderNo); err != nil {
		return nil, err
	}

	flow := saga.New("member checkout", s.logger)
	flow.AddStep(saga.Step{
		Name: "save member registration",
		Execute: func(ctx context.Context) error {
			return s.memberRegs.Save(ctx, reg)
		},
		Compensate: func(ctx context.Context) error {
			if err := reg.MarkFailed(); err != nil {
				return err
			}
			return s.memberRegs.Update(ctx, reg)
		},
	})
	flow.AddStep(saga.Step{
		Name: "index pending payment",
		Execute: func(ctx context.Context) error {
			return s.index.Save(ctx, &payment.PendingPayment{
				OrderNo:   orderNo,
				Store:     payment.StoreMember,
				RecordID:  reg.ID(),
				Amount:    amount,
				CreatedAt: time.Now().UTC(),
			})
		},
		Compensate: func(ctx context.Context) error {
			return s.index.Delete(ctx, orderNo)
		},
	})

	if err := flow.Execute(ctx); err != nil {
		return nil, err
	}

	return s.buildResult(reg.ID(), orderNo, amount, act.Title(), mbr.Email)
}

func (s *CheckoutService) buildResult(regID uuid.UUID, orderNo string, amount int64, itemDesc, email string) (*CheckoutResult, error) {
	tradeInfo, err := s.codec.Encrypt(gateway.CheckoutInfo{
		MerchantID:      s.merchantID,
		MerchantOrderNo: orderNo,
		Amt:             amount,
		ItemDesc:        itemDesc,
		Email:           email,
		TimeStamp:       time.Now().UTC().Unix(),
		NotifyURL:       s.notifyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("encrypt checkout info: %w", err)
	}

	return &CheckoutResult{
		RegistrationID: regID,
		OrderNo:        orderNo,
		Amount:         amount,
		MerchantID:     s.merchantID,
		PayURL:         s.payURL,
		TradeInfo:      tradeInfo,
	}, nil
}

// newOrderNo builds a merchant order number unique enough for the gateway's
// 30-character limit.
func newOrderNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD%d%s", time.Now().UTC().Unix(), suffix)
}
