package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// TicketService owns the ticket state machine: creation with computed due
// dates, assignment, status transitions, and the pause/resume clock shift.
type TicketService struct {
	tickets    repository.TicketRepository
	policies   repository.PolicyRepository
	history    repository.TicketHistoryRepository
	resolver   *calendar.Resolver
	calculator *sla.Calculator
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	PolicyRepo  repository.PolicyRepository
	HistoryRepo repository.TicketHistoryRepository
	Resolver    *calendar.Resolver
	Calculator  *sla.Calculator
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerID  string
	StoreID     string
	Priority    domain.TicketPriority
	SLAPolicyID string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		policies:   deps.PolicyRepo,
		history:    deps.HistoryRepo,
		resolver:   deps.Resolver,
		calculator: deps.Calculator,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CreateTicket opens a ticket with due dates computed from the policy and a
// snapshot of the policy's minute targets for the chosen priority.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput, actor domain.Actor) (*domain.Ticket, error) {
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("priority must be P1, P2 or P3", nil)
	}
	if input.CustomerID == "" || input.StoreID == "" {
		return nil, apperrors.NewValidationError("customer_id and store_id required", nil)
	}

	policy, err := s.loadPolicy(ctx, input.SLAPolicyID)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	dueDates, err := s.calculator.ComputeDueDates(ctx, policy, input.Priority, createdAt)
	if err != nil {
		return nil, err
	}
	target, _ := policy.TargetFor(input.Priority)

	ticket := &domain.Ticket{
		TicketNo:                generateTicketNo(),
		CustomerID:              input.CustomerID,
		StoreID:                 input.StoreID,
		Priority:                input.Priority,
		Status:                  domain.TicketStatusOpen,
		SLAPolicyID:             policy.ID,
		ResponseTargetMinutes:   target.FirstResponseMinutes,
		ResolutionTargetMinutes: target.ResolutionMinutes,
		FirstResponseDueAt:      dueDates.FirstResponseDueAt,
		SLADueAt:                dueDates.ResolutionDueAt,
		BreachState:             domain.BreachStateNone,
		EscalationLevel:         0,
		CreatedAt:               createdAt,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ActionCreated, nil, map[string]any{
		"status":                ticket.Status,
		"priority":              ticket.Priority,
		"sla_policy_id":         ticket.SLAPolicyID,
		"first_response_due_at": ticket.FirstResponseDueAt,
		"sla_due_at":            ticket.SLADueAt,
	}, "")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			TicketNo:           ticket.TicketNo,
			CustomerID:         ticket.CustomerID,
			StoreID:            ticket.StoreID,
			Priority:           ticket.Priority,
			SLAPolicyID:        ticket.SLAPolicyID,
			FirstResponseDueAt: ticket.FirstResponseDueAt,
			SLADueAt:           ticket.SLADueAt,
		},
	})
	return ticket, nil
}

// Assign sets the assignee and appends an ASSIGNED history entry. Due dates
// are untouched.
func (s *TicketService) Assign(ctx context.Context, ticketID, assigneeID string, actor domain.Actor) (*domain.Ticket, error) {
	if assigneeID == "" {
		return nil, apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ActionAssigned,
		map[string]any{"assignee_id": oldAssignee},
		map[string]any{"assignee_id": assigneeID}, "")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload:  events.TicketAssignedPayload{AssigneeID: ticket.AssigneeID},
	})
	return ticket, nil
}

// Transition validates the status edge and applies the pause/resume clock
// adjustment. Entering a pause-eligible status freezes the clock; leaving one
// shifts both due dates forward by the business minutes spent paused, so the
// remaining SLA budget is unchanged by the pause.
func (s *TicketService) Transition(ctx context.Context, ticketID string, newStatus domain.TicketStatus, actor domain.Actor, note string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(newStatus))
	}
	policy, err := s.loadPolicyAnyState(ctx, ticket.SLAPolicyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	oldStatus := ticket.Status
	action := domain.ActionStatusChange
	oldValue := map[string]any{"status": oldStatus}
	newValue := map[string]any{"status": newStatus}
	paused, resumed := false, false

	if policy.PausesOn(oldStatus) && !policy.PausesOn(newStatus) && ticket.PausedSince != nil {
		elapsed, err := s.resolver.BusinessMinutesBetween(ctx, policy, *ticket.PausedSince, now)
		if err != nil {
			return nil, err
		}
		shiftedResponse, err := s.resolver.AddBusinessMinutes(ctx, policy, ticket.FirstResponseDueAt, elapsed)
		if err != nil {
			return nil, err
		}
		shiftedDue, err := s.resolver.AddBusinessMinutes(ctx, policy, ticket.SLADueAt, elapsed)
		if err != nil {
			return nil, err
		}
		oldValue["first_response_due_at"] = ticket.FirstResponseDueAt
		oldValue["sla_due_at"] = ticket.SLADueAt
		ticket.FirstResponseDueAt = shiftedResponse
		ticket.SLADueAt = shiftedDue
		ticket.PausedSince = nil
		newValue["first_response_due_at"] = ticket.FirstResponseDueAt
		newValue["sla_due_at"] = ticket.SLADueAt
		newValue["paused_minutes"] = elapsed
		action = domain.ActionResumed
		resumed = true
	} else if policy.PausesOn(newStatus) && ticket.PausedSince == nil {
		ticket.PausedSince = &now
		newValue["paused_since"] = now
		action = domain.ActionPaused
		paused = true
	}

	if oldStatus == domain.TicketStatusResolved && newStatus == domain.TicketStatusInProgress {
		// explicit reopen resets breach tracking
		oldValue["breach_state"] = ticket.BreachState
		ticket.BreachState = domain.BreachStateNone
		newValue["breach_state"] = ticket.BreachState
	}

	if newStatus == domain.TicketStatusClosed {
		ticket.ClosedAt = &now
	} else if ticket.ClosedAt != nil {
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, actor, ticket.ID, action, oldValue, newValue, note)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Paused:    paused,
			Resumed:   resumed,
			Note:      note,
		},
	})
	return ticket, nil
}

// Pause moves a ticket to ON_HOLD, freezing its SLA clock.
func (s *TicketService) Pause(ctx context.Context, ticketID string, actor domain.Actor, note string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusOnHold, actor, note)
}

// Resume moves a ticket back to IN_PROGRESS, unfreezing its SLA clock.
func (s *TicketService) Resume(ctx context.Context, ticketID string, actor domain.Actor, note string) (*domain.Ticket, error) {
	return s.Transition(ctx, ticketID, domain.TicketStatusInProgress, actor, note)
}

// ForceClose closes a ticket from any status. Administrative action; the
// only validation is that the ticket is not already closed.
func (s *TicketService) ForceClose(ctx context.Context, ticketID string, actor domain.Actor, note string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket already closed", map[string]any{"ticket_id": ticketID})
	}
	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.PausedSince = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ActionForcedClose,
		map[string]any{"status": oldStatus},
		map[string]any{"status": ticket.Status}, note)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Note:      note,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket with its history.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketHistory, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, history, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTicketNotFound(ticketID)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) loadPolicy(ctx context.Context, policyID string) (*domain.SLAPolicy, error) {
	policy, err := s.loadPolicyAnyState(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !policy.Active {
		return nil, apperrors.NewPolicyNotFound(policyID, "policy inactive")
	}
	return policy, nil
}

func (s *TicketService) loadPolicyAnyState(ctx context.Context, policyID string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewPolicyNotFound(policyID, "policy missing")
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

func (s *TicketService) recordHistory(ctx context.Context, actor domain.Actor, ticketID string, action domain.TicketAction, oldValue, newValue map[string]any, note string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:  ticketID,
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		Note:      note,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{Type: actor.Type, ID: actor.ID}
}

func generateTicketNo() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:            {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress:      {domain.TicketStatusWaitingCustomer, domain.TicketStatusOnHold, domain.TicketStatusResolved},
	domain.TicketStatusWaitingCustomer: {domain.TicketStatusInProgress},
	domain.TicketStatusOnHold:          {domain.TicketStatusInProgress},
	domain.TicketStatusResolved:        {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:          {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
