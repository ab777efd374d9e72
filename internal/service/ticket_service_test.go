package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

type ticketFixture struct {
	store   *repository.MemoryStore
	service *TicketService
	policy  *domain.SLAPolicy
	clock   *time.Time
}

// newTicketFixture wires a ticket service over the memory store with a
// Mon-Fri 09:00-18:00 UTC policy and a controllable clock.
func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	resolver := calendar.NewResolver(store.Holidays())

	policy := &domain.SLAPolicy{
		Name:     "retail standard",
		Active:   true,
		Timezone: "UTC",
		Targets: map[domain.TicketPriority]domain.SLATarget{
			domain.TicketPriorityP1: {FirstResponseMinutes: 30, ResolutionMinutes: 240},
			domain.TicketPriorityP2: {FirstResponseMinutes: 60, ResolutionMinutes: 480},
		},
		PauseStatuses: []domain.TicketStatus{domain.TicketStatusWaitingCustomer, domain.TicketStatusOnHold},
	}
	for day := time.Monday; day <= time.Friday; day++ {
		policy.Week[day] = domain.DayWindow{OpenMinute: 9 * 60, CloseMinute: 18 * 60}
	}
	policy.Week[time.Saturday] = domain.DayWindow{Closed: true}
	policy.Week[time.Sunday] = domain.DayWindow{Closed: true}
	require.NoError(t, store.Policies().Create(context.Background(), policy))

	svc := NewTicketService(TicketDependencies{
		TicketRepo:  store.Tickets(),
		PolicyRepo:  store.Policies(),
		HistoryRepo: store.History(),
		Resolver:    resolver,
		Calculator:  sla.NewCalculator(resolver),
		Dispatcher:  events.NewInMemoryDispatcher(),
	})

	// Monday 2026-03-02 10:00 UTC
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	return &ticketFixture{store: store, service: svc, policy: policy, clock: &clock}
}

func (f *ticketFixture) createTicket(t *testing.T, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		CustomerID:  "cust-1",
		StoreID:     "store-7",
		Priority:    priority,
		SLAPolicyID: f.policy.ID,
	}, domain.AgentActor("agent-1"))
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketSnapshotsTargets(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)

	assert.True(t, strings.HasPrefix(ticket.TicketNo, "TCK-"))
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, 60, ticket.ResponseTargetMinutes)
	assert.Equal(t, 480, ticket.ResolutionTargetMinutes)
	assert.Equal(t, domain.BreachStateNone, ticket.BreachState)
	assert.Zero(t, ticket.EscalationLevel)

	// Monday 10:00 + 60 business minutes
	assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), ticket.FirstResponseDueAt.UTC())
	// 480 minutes exhausts Monday exactly, rolling to Tuesday's open
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), ticket.SLADueAt.UTC())

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionCreated, history[0].Action)
	assert.Equal(t, domain.ActorTypeAgent, history[0].ActorType)
}

func TestCreateTicketRejectsInactivePolicy(t *testing.T) {
	f := newTicketFixture(t)
	f.policy.Active = false
	require.NoError(t, f.store.Policies().Create(context.Background(), f.policy))

	_, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		CustomerID:  "cust-1",
		StoreID:     "store-7",
		Priority:    domain.TicketPriorityP1,
		SLAPolicyID: f.policy.ID,
	}, domain.AgentActor("agent-1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePolicyNotFound))
}

func TestCreateTicketRejectsBadPriority(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		CustomerID:  "cust-1",
		StoreID:     "store-7",
		Priority:    domain.TicketPriority("P9"),
		SLAPolicyID: f.policy.ID,
	}, domain.AgentActor("agent-1"))
	require.Error(t, err)
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)

	_, err := f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusResolved, domain.AgentActor("agent-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

func TestTransitionUnknownTicket(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.Transition(context.Background(), "missing",
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTicketNotFound))
}

func TestPauseResumePreservesBudget(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)
	originalResponseDue := ticket.FirstResponseDueAt
	originalSLADue := ticket.SLADueAt

	_, err := f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)

	// pause at Monday 11:00
	*f.clock = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	paused, err := f.service.Pause(context.Background(), ticket.ID, domain.AgentActor("agent-1"), "waiting on parts")
	require.NoError(t, err)
	require.NotNil(t, paused.PausedSince)
	assert.Equal(t, *f.clock, paused.PausedSince.UTC())
	assert.Equal(t, originalSLADue, paused.SLADueAt, "pause itself must not move due dates")

	// resume at Monday 12:00, one business hour later
	*f.clock = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	resumed, err := f.service.Resume(context.Background(), ticket.ID, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)
	assert.Nil(t, resumed.PausedSince)
	assert.Equal(t, originalResponseDue.Add(time.Hour), resumed.FirstResponseDueAt.UTC())
	// Tuesday 09:00 + 60 business minutes
	assert.Equal(t, originalSLADue.Add(time.Hour), resumed.SLADueAt.UTC())

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	actions := make([]domain.TicketAction, 0, len(history))
	for _, entry := range history {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, domain.ActionPaused)
	assert.Contains(t, actions, domain.ActionResumed)
}

func TestPauseOverWeekendShiftsNothing(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)
	originalSLADue := ticket.SLADueAt

	_, err := f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)

	// pause Friday 18:30, after close
	*f.clock = time.Date(2026, 3, 6, 18, 30, 0, 0, time.UTC)
	_, err = f.service.Pause(context.Background(), ticket.ID, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)

	// resume Sunday 12:00, still closed: zero business minutes elapsed
	*f.clock = time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	resumed, err := f.service.Resume(context.Background(), ticket.ID, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)
	assert.Equal(t, originalSLADue, resumed.SLADueAt)
}

func TestReopenResetsBreachStateOnly(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)

	_, err := f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)
	_, err = f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusResolved, domain.AgentActor("agent-1"), "")
	require.NoError(t, err)

	// simulate breach history before the reopen
	stored, err := f.store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	stored.BreachState = domain.BreachStateRed
	stored.EscalationLevel = 2
	require.NoError(t, f.store.Tickets().Update(context.Background(), stored))

	reopened, err := f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "customer called back")
	require.NoError(t, err)
	assert.Equal(t, domain.BreachStateNone, reopened.BreachState)
	assert.Equal(t, 2, reopened.EscalationLevel, "escalation level survives a reopen")
}

func TestCloseSetsClosedAt(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	} {
		_, err := f.service.Transition(context.Background(), ticket.ID, status, domain.AgentActor("agent-1"), "")
		require.NoError(t, err)
	}

	closed, err := f.store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.False(t, closed.IsActive())

	// closed is terminal
	_, err = f.service.Transition(context.Background(), ticket.ID,
		domain.TicketStatusInProgress, domain.AgentActor("agent-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

func TestForceClose(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP2)

	closed, err := f.service.ForceClose(context.Background(), ticket.ID, domain.AdminActor("admin-1"), "store closed")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = f.service.ForceClose(context.Background(), ticket.ID, domain.AdminActor("admin-1"), "")
	require.Error(t, err)

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, domain.ActionForcedClose, last.Action)
	assert.Equal(t, domain.ActorTypeAdmin, last.ActorType)
}

func TestAssignDoesNotTouchDueDates(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, domain.TicketPriorityP1)

	assigned, err := f.service.Assign(context.Background(), ticket.ID, "agent-9", domain.AgentActor("agent-1"))
	require.NoError(t, err)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, "agent-9", *assigned.AssigneeID)
	assert.Equal(t, ticket.FirstResponseDueAt, assigned.FirstResponseDueAt)
	assert.Equal(t, ticket.SLADueAt, assigned.SLADueAt)
}
