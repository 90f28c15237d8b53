package application

import (
	"context"

	"github.com/assocdesk/service-registration/internal/domain/member"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationInput is a public membership application request.
type ApplicationInput struct {
	Company string
	Contact string
	Email   string
	Phone   string
}

// MemberService manages the member directory and membership applications.
type MemberService struct {
	members      member.Repository
	applications member.ApplicationRepository
	logger       *zap.Logger
}

// NewMemberService creates the member service.
func NewMemberService(members member.Repository, applications member.ApplicationRepository, logger *zap.Logger) *MemberService {
	return &MemberService{members: members, applications: applications, logger: logger}
}

// Apply submits a membership application.
func (s *MemberService) Apply(ctx context.Context, input ApplicationInput) (*member.MembershipApplication, error) {
	app, err := member.NewApplication(input.Company, input.Contact, input.Email, input.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.applications.Save(ctx, app); err != nil {
		return nil, err
	}
	s.logger.Info("membership application received",
		zap.String("application_id", app.ID.String()),
		zap.String("company", app.Company),
	)
	return app, nil
}

// Approve approves a pending application and creates the member record.
func (s *MemberService) Approve(ctx context.Context, applicationID, decidedBy uuid.UUID) (*member.Member, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	mbr, err := app.Approve(decidedBy)
	if err != nil {
		return nil, err
	}

	if err := s.members.Save(ctx, mbr); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("membership application approved",
		zap.String("application_id", app.ID.String()),
		zap.String("member_id", mbr.ID.String()),
	)
	return mbr, nil
}

// Reject rejects a pending application with a reviewer note.
func (s *MemberService) Reject(ctx context.Context, applicationID, decidedBy uuid.UUID, note string) (*member.MembershipApplication, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := app.Reject(decidedBy, note); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListApplications lists applications by status for the admin surface.
func (s *MemberService) ListApplications(ctx context.Context, status member.ApplicationStatus, page, limit int) ([]*member.MembershipApplication, int64, error) {
	return s.applications.ListByStatus(ctx, status, page, limit)
}

// Directory returns the public list of active members.
func (s *MemberService) Directory(ctx context.Context) ([]*member.Member, error) {
	return s.members.ListActive(ctx)
}
