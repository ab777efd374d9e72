package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
)

type sweepFixture struct {
	store   *repository.MemoryStore
	sweeper *Sweeper
	policy  *domain.SLAPolicy
	clock   *time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	store := repository.NewMemoryStore()

	policy := &domain.SLAPolicy{
		Name:          "retail standard",
		Active:        true,
		Timezone:      "UTC",
		Targets:       map[domain.TicketPriority]domain.SLATarget{domain.TicketPriorityP2: {FirstResponseMinutes: 60, ResolutionMinutes: 480}},
		PauseStatuses: []domain.TicketStatus{domain.TicketStatusOnHold},
	}
	for day := time.Monday; day <= time.Friday; day++ {
		policy.Week[day] = domain.DayWindow{OpenMinute: 9 * 60, CloseMinute: 18 * 60}
	}
	require.NoError(t, store.Policies().Create(context.Background(), policy))

	executor := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:  store.Tickets(),
		HistoryRepo: store.History(),
		Directory:   store.Directory(),
		Notifier:    service.NewDispatcherNotifier(events.NewInMemoryDispatcher()),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	})

	sw := New(Dependencies{
		TicketRepo:  store.Tickets(),
		PolicyRepo:  store.Policies(),
		HistoryRepo: store.History(),
		MatrixRepo:  store.Matrix(),
		Executor:    executor,
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
	})

	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return clock }

	return &sweepFixture{store: store, sweeper: sw, policy: policy, clock: &clock}
}

func (f *sweepFixture) seedMatrix(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Matrix().Replace(context.Background(), []domain.EscalationRule{
		{Level: 1, Trigger: domain.TriggerWarningThreshold, WarningThresholdPct: 50, Channel: "slack", NotifyUsers: []string{"lead-1"}},
		{Level: 2, Trigger: domain.TriggerBreach, Channel: "pager", NotifyUsers: []string{"manager-1"}, BumpPriority: true},
	}))
}

func (f *sweepFixture) seedTicket(t *testing.T, dueIn time.Duration) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		CustomerID:              "cust-1",
		StoreID:                 "store-7",
		Status:                  domain.TicketStatusInProgress,
		Priority:                domain.TicketPriorityP2,
		SLAPolicyID:             f.policy.ID,
		ResponseTargetMinutes:   60,
		ResolutionTargetMinutes: 480,
		FirstResponseDueAt:      f.clock.Add(time.Hour),
		SLADueAt:                f.clock.Add(dueIn),
		BreachState:             domain.BreachStateNone,
	}
	require.NoError(t, f.store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func (f *sweepFixture) reload(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func TestSweepFiresWarningAtThreshold(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	// 96 minutes of a 480-minute budget left: 80% elapsed, past the 50% rule
	ticket := f.seedTicket(t, 96*time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateWarning, swept.BreachState)
	assert.Equal(t, 1, swept.EscalationLevel)

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionEscalated, history[0].Action)
}

func TestSweepWarningThresholdIsFractional(t *testing.T) {
	f := newSweepFixture(t)
	require.NoError(t, f.store.Matrix().Replace(context.Background(), []domain.EscalationRule{
		{Level: 1, Trigger: domain.TriggerWarningThreshold, WarningThresholdPct: 80.5, Channel: "slack", NotifyUsers: []string{"lead-1"}},
	}))
	// 80% elapsed sits just under the 80.5 threshold
	ticket := f.seedTicket(t, 96*time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))
	assert.Equal(t, domain.BreachStateNone, f.reload(t, ticket.ID).BreachState)

	// 81.25% elapsed crosses it
	*f.clock = f.clock.Add(6 * time.Minute)
	require.NoError(t, f.sweeper.Sweep(context.Background()))
	assert.Equal(t, domain.BreachStateWarning, f.reload(t, ticket.ID).BreachState)
}

func TestSweepTreatsEmptyBreachStateAsNone(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	ticket := f.seedTicket(t, 96*time.Minute)
	ticket.BreachState = ""
	require.NoError(t, f.store.Tickets().Update(context.Background(), ticket))

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateWarning, swept.BreachState)
	assert.Equal(t, 1, swept.EscalationLevel)
}

func TestSweepBelowThresholdIsQuiet(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	// 70% of the budget remains
	ticket := f.seedTicket(t, 336*time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateNone, swept.BreachState)
	assert.Zero(t, swept.EscalationLevel)
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	ticket := f.seedTicket(t, 96*time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))
	require.NoError(t, f.sweeper.Sweep(context.Background()))

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "warning must fire exactly once")
}

func TestSweepEscalatesBreachAfterWarning(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	ticket := f.seedTicket(t, 96*time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	// move past the due date
	*f.clock = f.clock.Add(2 * time.Hour)
	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateRed, swept.BreachState)
	assert.Equal(t, 2, swept.EscalationLevel)
	assert.Equal(t, domain.TicketPriorityP1, swept.Priority, "breach rule bumps priority")

	// a third sweep changes nothing
	require.NoError(t, f.sweeper.Sweep(context.Background()))
	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSweepBreachWithoutRuleStillFlipsRed(t *testing.T) {
	f := newSweepFixture(t)
	ticket := f.seedTicket(t, -time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateRed, swept.BreachState)
	assert.Zero(t, swept.EscalationLevel)

	history, err := f.store.History().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionEscalated, history[0].Action)
}

func TestSweepSkipsPausedTickets(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	ticket := f.seedTicket(t, -time.Minute)
	pausedAt := f.clock.Add(-time.Hour)
	ticket.Status = domain.TicketStatusOnHold
	ticket.PausedSince = &pausedAt
	require.NoError(t, f.store.Tickets().Update(context.Background(), ticket))

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateNone, swept.BreachState, "paused clock never breaches")
}

func TestSweepContinuesPastBadTicket(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)

	orphan := f.seedTicket(t, -time.Minute)
	orphan.SLAPolicyID = "no-such-policy"
	require.NoError(t, f.store.Tickets().Update(context.Background(), orphan))
	healthy := f.seedTicket(t, -time.Minute)

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, healthy.ID)
	assert.Equal(t, domain.BreachStateRed, swept.BreachState, "batch continues past per-ticket failures")
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	f := newSweepFixture(t)
	f.seedMatrix(t)
	ticket := f.seedTicket(t, -time.Minute)
	f.sweeper.lock = heldLock{}

	require.NoError(t, f.sweeper.Sweep(context.Background()))

	swept := f.reload(t, ticket.ID)
	assert.Equal(t, domain.BreachStateNone, swept.BreachState)
}
