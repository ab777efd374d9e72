package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PolicyService owns the admin configuration surface: SLA policies, holiday
// calendars and the escalation matrix.
type PolicyService struct {
	policies repository.PolicyRepository
	holidays repository.HolidayRepository
	matrix   repository.MatrixRepository
}

// NewPolicyService constructs the service.
func NewPolicyService(policies repository.PolicyRepository, holidays repository.HolidayRepository, matrix repository.MatrixRepository) *PolicyService {
	return &PolicyService{
		policies: policies,
		holidays: holidays,
		matrix:   matrix,
	}
}

// CreatePolicy validates and stores a new policy.
func (s *PolicyService) CreatePolicy(ctx context.Context, policy *domain.SLAPolicy) (*domain.SLAPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if policy.HolidayCalendarID != nil {
		if _, err := s.holidays.GetCalendar(ctx, *policy.HolidayCalendarID); err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("holiday calendar", map[string]any{"id": *policy.HolidayCalendarID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// GetPolicy fetches one policy.
func (s *PolicyService) GetPolicy(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewPolicyNotFound(id, "policy does not exist")
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// ListPolicies returns all policies.
func (s *PolicyService) ListPolicies(ctx context.Context) ([]domain.SLAPolicy, error) {
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// CreateHolidayCalendar stores a named set of closed dates.
func (s *PolicyService) CreateHolidayCalendar(ctx context.Context, name string, dates []time.Time) (*domain.HolidayCalendar, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("calendar name is required", nil)
	}
	if len(dates) == 0 {
		return nil, apperrors.NewValidationError("calendar needs at least one date", nil)
	}
	calendar := &domain.HolidayCalendar{
		Name:  name,
		Dates: dates,
	}
	if err := s.holidays.CreateCalendar(ctx, calendar); err != nil {
		return nil, apperrors.MapError(err)
	}
	return calendar, nil
}

// GetHolidayCalendar fetches one calendar.
func (s *PolicyService) GetHolidayCalendar(ctx context.Context, id string) (*domain.HolidayCalendar, error) {
	calendar, err := s.holidays.GetCalendar(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("holiday calendar", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return calendar, nil
}

// ReplaceMatrix swaps the escalation matrix atomically after validation.
func (s *PolicyService) ReplaceMatrix(ctx context.Context, rules []domain.EscalationRule) (domain.EscalationMatrix, error) {
	if err := domain.ValidateMatrix(rules); err != nil {
		return nil, err
	}
	if err := s.matrix.Replace(ctx, rules); err != nil {
		return nil, apperrors.MapError(err)
	}
	return domain.EscalationMatrix(rules), nil
}

// GetMatrix returns the current matrix ordered by level.
func (s *PolicyService) GetMatrix(ctx context.Context) (domain.EscalationMatrix, error) {
	matrix, err := s.matrix.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return matrix, nil
}
