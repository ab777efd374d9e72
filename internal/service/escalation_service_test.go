package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
)

type recordingNotifier struct {
	recipients []string
	channel    string
	err        error
	calls      int
}

func (n *recordingNotifier) Notify(ctx context.Context, recipients []string, channel, subject, body string) error {
	n.calls++
	n.recipients = append([]string(nil), recipients...)
	n.channel = channel
	return n.err
}

func newEscalationFixture(t *testing.T, notifier Notifier) (*EscalationService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	store.SetRoleMembers("ops_lead", []string{"lead-1", "lead-2"})
	svc := NewEscalationService(EscalationDependencies{
		TicketRepo:  store.Tickets(),
		HistoryRepo: store.History(),
		Directory:   store.Directory(),
		Notifier:    notifier,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	})
	return svc, store
}

func seedTicket(t *testing.T, store *repository.MemoryStore, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		TicketNo:    "TCK-TEST1",
		CustomerID:  "cust-1",
		StoreID:     "store-7",
		Status:      domain.TicketStatusInProgress,
		Priority:    priority,
		SLAPolicyID: "policy-1",
		SLADueAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestExecuteAppliesRuleActions(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, store := newEscalationFixture(t, notifier)
	ticket := seedTicket(t, store, domain.TicketPriorityP3)
	ticket.BreachState = domain.BreachStateWarning
	ticket.EscalationLevel = 1

	reassign := "lead-1"
	rule := &domain.EscalationRule{
		Level:        1,
		Trigger:      domain.TriggerWarningThreshold,
		NotifyRoles:  []string{"ops_lead"},
		NotifyUsers:  []string{"agent-5"},
		Channel:      "slack",
		ReassignTo:   &reassign,
		AddWatcher:   true,
		BumpPriority: true,
	}
	require.NoError(t, svc.Execute(context.Background(), ticket, rule))

	stored, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityP2, stored.Priority)
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, "lead-1", *stored.AssigneeID)
	assert.Equal(t, domain.BreachStateWarning, stored.BreachState)
	assert.Equal(t, 1, stored.EscalationLevel)
	assert.ElementsMatch(t, []string{"agent-5", "lead-1", "lead-2"}, stored.Watchers)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "slack", notifier.channel)
	assert.ElementsMatch(t, []string{"agent-5", "lead-1", "lead-2"}, notifier.recipients)

	history, err := store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionEscalated, history[0].Action)
	assert.Equal(t, domain.ActorTypeSystem, history[0].ActorType)
}

func TestExecuteBumpStopsAtP1(t *testing.T) {
	svc, store := newEscalationFixture(t, &recordingNotifier{})
	ticket := seedTicket(t, store, domain.TicketPriorityP1)

	rule := &domain.EscalationRule{Level: 1, Trigger: domain.TriggerBreach, Channel: "email", BumpPriority: true}
	require.NoError(t, svc.Execute(context.Background(), ticket, rule))

	stored, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityP1, stored.Priority)
}

func TestExecuteWatcherUnionIsIdempotent(t *testing.T) {
	svc, store := newEscalationFixture(t, &recordingNotifier{})
	ticket := seedTicket(t, store, domain.TicketPriorityP2)
	ticket.Watchers = []string{"agent-5"}

	rule := &domain.EscalationRule{
		Level:       1,
		Trigger:     domain.TriggerWarningThreshold,
		NotifyUsers: []string{"agent-5"},
		Channel:     "email",
		AddWatcher:  true,
	}
	require.NoError(t, svc.Execute(context.Background(), ticket, rule))

	stored, err := store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-5"}, stored.Watchers)
}

func TestExecuteNotifyFailureDoesNotFail(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc, store := newEscalationFixture(t, notifier)
	ticket := seedTicket(t, store, domain.TicketPriorityP2)

	rule := &domain.EscalationRule{Level: 1, Trigger: domain.TriggerBreach, Channel: "email", NotifyUsers: []string{"agent-5"}}
	require.NoError(t, svc.Execute(context.Background(), ticket, rule))

	// the escalation persisted despite the delivery failure
	history, err := store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}
