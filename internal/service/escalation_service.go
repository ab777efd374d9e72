package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// Notifier dispatches a notification to recipients over a channel. Delivery
// is best-effort from the engine's perspective: failures are logged, never
// retried here, and never roll back ticket state.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, channel, subject, body string) error
}

// EscalationService applies the auto-actions of a matrix rule to a ticket
// and records the escalation in the audit trail.
type EscalationService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	directory  repository.UserDirectory
	notifier   Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// EscalationDependencies bundles collaborators for the executor.
type EscalationDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Directory   repository.UserDirectory
	Notifier    Notifier
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewEscalationService constructs the executor.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		directory:  deps.Directory,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Execute applies the rule's auto-actions to the ticket, persists the ticket,
// appends an ESCALATED history entry, and notifies the rule's recipients.
// The caller is expected to have already advanced breach_state and
// escalation_level on the ticket; Execute persists everything in one write.
func (s *EscalationService) Execute(ctx context.Context, ticket *domain.Ticket, rule *domain.EscalationRule) error {
	recipients, err := s.resolveRecipients(ctx, rule)
	if err != nil {
		// recipients are only needed for watchers/notification; a directory
		// failure must not block the escalation itself
		s.logger.Warn("role resolution failed",
			zap.String("ticket_id", ticket.ID),
			zap.Int("level", rule.Level),
			zap.Error(err))
		recipients = append([]string(nil), rule.NotifyUsers...)
	}

	oldValue := map[string]any{
		"priority":    ticket.Priority,
		"assignee_id": ticket.AssigneeID,
		"watchers":    append([]string(nil), ticket.Watchers...),
	}

	if rule.AddWatcher {
		for _, user := range recipients {
			ticket.AddWatcher(user)
		}
	}
	bumped := false
	if rule.BumpPriority {
		bumped = ticket.BumpPriority()
	}
	if rule.ReassignTo != nil && *rule.ReassignTo != "" {
		ticket.AssigneeID = rule.ReassignTo
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	newValue := map[string]any{
		"level":         rule.Level,
		"trigger":       rule.Trigger,
		"priority":      ticket.Priority,
		"assignee_id":   ticket.AssigneeID,
		"watchers":      append([]string(nil), ticket.Watchers...),
		"lock_override": rule.LockOverride,
	}
	if bumped {
		newValue["priority_bumped"] = true
	}
	s.recordHistory(ctx, ticket.ID, rule, oldValue, newValue)

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.ActorTypeSystem},
		Payload: events.TicketEscalatedPayload{
			Level:       rule.Level,
			Trigger:     rule.Trigger,
			BreachState: ticket.BreachState,
			Priority:    ticket.Priority,
		},
	})

	s.notify(ctx, ticket, rule, recipients)
	return nil
}

func (s *EscalationService) resolveRecipients(ctx context.Context, rule *domain.EscalationRule) ([]string, error) {
	recipients := append([]string(nil), rule.NotifyUsers...)
	if len(rule.NotifyRoles) == 0 || s.directory == nil {
		return recipients, nil
	}
	roleUsers, err := s.directory.ResolveUsersByRole(ctx, rule.NotifyRoles)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(recipients))
	for _, user := range recipients {
		seen[user] = struct{}{}
	}
	for _, user := range roleUsers {
		if _, dup := seen[user]; dup {
			continue
		}
		seen[user] = struct{}{}
		recipients = append(recipients, user)
	}
	return recipients, nil
}

func (s *EscalationService) notify(ctx context.Context, ticket *domain.Ticket, rule *domain.EscalationRule, recipients []string) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	subject := fmt.Sprintf("SLA escalation level %d for ticket %s", rule.Level, ticket.TicketNo)
	body := fmt.Sprintf("ticket %s escalated (%s) at level %d, priority %s, due %s",
		ticket.TicketNo, rule.Trigger, rule.Level, ticket.Priority, ticket.SLADueAt.Format(time.RFC3339))
	if err := s.notifier.Notify(ctx, recipients, rule.Channel, subject, body); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("code", apperrors.CodeNotificationDeliveryFailed),
			zap.String("ticket_id", ticket.ID),
			zap.String("channel", rule.Channel),
			zap.Error(err))
	}
}

func (s *EscalationService) recordHistory(ctx context.Context, ticketID string, rule *domain.EscalationRule, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:  ticketID,
		ActorType: domain.ActorTypeSystem,
		Action:    domain.ActionEscalated,
		OldValue:  oldValue,
		NewValue:  newValue,
		Note:      fmt.Sprintf("escalation level %d (%s)", rule.Level, rule.Trigger),
	}
	_ = s.history.Create(ctx, entry)
}

func (s *EscalationService) publishEvent(ctx context.Context, event events.Event) {
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
