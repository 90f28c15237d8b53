package application

import (
	"context"
	"errors"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/member"
	"github.com/assocdesk/service-registration/internal/domain/registration"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/ticket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RevenueReport is the combined payment statistics over both stores.
type RevenueReport struct {
	TotalRevenue    int64            `json:"total_revenue"`
	GeneralRevenue  int64            `json:"general_revenue"`
	MemberRevenue   int64            `json:"member_revenue"`
	GeneralByStatus map[string]int64 `json:"general_by_status"`
	MemberByStatus  map[string]int64 `json:"member_by_status"`
}

// CheckInResult is returned from a successful check-in: the registration ID
// and its ticket QR code as base64 PNG.
type CheckInResult struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	TicketPNG      string    `json:"ticket_png"`
}

// RegistrationService covers the admin operations on registrations: listing,
// refunds, check-in and revenue statistics. Refund and check-in look in the
// general store first and fall back to the member store.
type RegistrationService struct {
	registrations registration.Repository
	memberRegs    member.RegistrationRepository
	events        EventPublisher
	logger        *zap.Logger
}

// NewRegistrationService creates the registration admin service.
func NewRegistrationService(
	registrations registration.Repository,
	memberRegs member.RegistrationRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		memberRegs:    memberRegs,
		events:        publisher,
		logger:        logger,
	}
}

// ListByActivity lists general registrations for one activity.
func (s *RegistrationService) ListByActivity(ctx context.Context, activityID uuid.UUID, page, limit int) ([]*registration.Registration, int64, error) {
	return s.registrations.ListByActivity(ctx, activityID, page, limit)
}

// Refund marks a paid registration refunded in whichever store owns it and
// publishes a refund event. Once refunded, a late gateway notification can
// never flip the row back to paid.
func (s *RegistrationService) Refund(ctx context.Context, registrationID uuid.UUID) error {
	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err == nil {
		if err := reg.Refund(); err != nil {
			return err
		}
		if err := s.registrations.Update(ctx, reg); err != nil {
			return err
		}
		s.publishRefund(ctx, reg.ID(), reg.MerchantOrderNo(), reg.PaidAmount())
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	mreg, err := s.memberRegs.FindByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if err := mreg.Refund(); err != nil {
		return err
	}
	if err := s.memberRegs.Update(ctx, mreg); err != nil {
		return err
	}
	s.publishRefund(ctx, mreg.ID(), mreg.MerchantOrderNo(), mreg.PaidAmount())
	return nil
}

func (s *RegistrationService) publishRefund(ctx context.Context, id uuid.UUID, orderNo string, amount int64) {
	s.logger.Info("registration refunded",
		zap.String("registration_id", id.String()),
		zap.String("order_no", orderNo),
	)
	if err := s.events.Publish(ctx, events.TypeRegistrationRefunded, orderNo, events.RegistrationRefundedEvent{
		RegistrationID: id.String(),
		OrderNo:        orderNo,
		Amount:         amount,
	}); err != nil {
		s.logger.Warn("refund event publish failed",
			zap.String("registration_id", id.String()),
			zap.Error(err),
		)
	}
}

// CheckIn records attendance for a paid registration in either store and
// returns the ticket QR code.
func (s *RegistrationService) CheckIn(ctx context.Context, registrationID uuid.UUID) (*CheckInResult, error) {
	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err == nil {
		if err := reg.CheckIn(); err != nil {
			return nil, err
		}
		if err := s.registrations.Update(ctx, reg); err != nil {
			return nil, err
		}
		return s.buildTicket(reg.ID())
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	mreg, err := s.memberRegs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := mreg.CheckIn(); err != nil {
		return nil, err
	}
	if err := s.memberRegs.Update(ctx, mreg); err != nil {
		return nil, err
	}
	return s.buildTicket(mreg.ID())
}

func (s *RegistrationService) buildTicket(id uuid.UUID) (*CheckInResult, error) {
	png, err := ticket.QRCodePNG(id.String())
	if err != nil {
		return nil, err
	}
	return &CheckInResult{RegistrationID: id, TicketPNG: png}, nil
}

// RevenueReport aggregates revenue and status counts over both stores.
func (s *RegistrationService) RevenueReport(ctx context.Context) (*RevenueReport, error) {
	generalTotal, generalByStatus, err := s.registrations.RevenueStats(ctx)
	if err != nil {
		return nil, err
	}
	memberTotal, memberByStatus, err := s.memberRegs.RevenueStats(ctx)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{
		TotalRevenue:    generalTotal + memberTotal,
		GeneralRevenue:  generalTotal,
		MemberRevenue:   memberTotal,
		GeneralByStatus: generalByStatus,
		MemberByStatus:  memberByStatus,
	}, nil
}
