package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
)

// Sweeper periodically scans active tickets, flips breach states and fires
// matrix escalations. At most one instance sweeps at a time; the lock keeps
// overlapping schedules and multiple replicas from double-firing.
type Sweeper struct {
	tickets  repository.TicketRepository
	policies repository.PolicyRepository
	history  repository.TicketHistoryRepository
	matrix   repository.MatrixRepository
	executor *service.EscalationService
	lock     Lock
	metrics  *observability.Metrics
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// Dependencies bundles the sweeper's collaborators.
type Dependencies struct {
	TicketRepo  repository.TicketRepository
	PolicyRepo  repository.PolicyRepository
	HistoryRepo repository.TicketHistoryRepository
	MatrixRepo  repository.MatrixRepository
	Executor    *service.EscalationService
	Lock        Lock
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// New constructs a sweeper.
func New(deps Dependencies) *Sweeper {
	lock := deps.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	return &Sweeper{
		tickets:  deps.TicketRepo,
		policies: deps.PolicyRepo,
		history:  deps.HistoryRepo,
		matrix:   deps.MatrixRepo,
		executor: deps.Executor,
		lock:     lock,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Start schedules sweeps on the given cron spec and returns after the
// scheduler is running.
func (s *Sweeper) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep runs one cycle. Per-ticket failures are logged and skipped so one
// bad row cannot stall the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.Debug("sweep skipped, lock held elsewhere")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.Warn("sweep lock release failed", zap.Error(err))
		}
	}()

	start := s.now()
	scanned, err := s.sweep(ctx)
	s.metrics.RecordSweep(scanned, time.Since(start), err)
	return err
}

func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	tickets, err := s.tickets.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	matrix, err := s.matrix.List(ctx)
	if err != nil {
		return 0, err
	}

	policyCache := map[string]*domain.SLAPolicy{}
	for i := range tickets {
		ticket := &tickets[i]
		if err := s.sweepTicket(ctx, ticket, matrix, policyCache); err != nil {
			s.logger.Error("ticket sweep failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}
	return len(tickets), nil
}

func (s *Sweeper) sweepTicket(ctx context.Context, ticket *domain.Ticket, matrix domain.EscalationMatrix, cache map[string]*domain.SLAPolicy) error {
	policy, ok := cache[ticket.SLAPolicyID]
	if !ok {
		loaded, err := s.policies.GetByID(ctx, ticket.SLAPolicyID)
		if err != nil {
			return err
		}
		policy = loaded
		cache[ticket.SLAPolicyID] = policy
	}

	// rows predating the schema default carry an empty breach state
	if ticket.BreachState == "" {
		ticket.BreachState = domain.BreachStateNone
	}

	// the clock is stopped while the ticket sits in a pause status
	if ticket.IsPaused() && policy.PausesOn(ticket.Status) {
		return nil
	}

	now := s.now()
	if !now.Before(ticket.SLADueAt) {
		return s.handleBreach(ctx, ticket, matrix)
	}
	return s.handleWarning(ctx, ticket, matrix, now)
}

// handleBreach flips the ticket to RED exactly once. The state flip happens
// even when the matrix has no BREACH rule left for the ticket's level.
func (s *Sweeper) handleBreach(ctx context.Context, ticket *domain.Ticket, matrix domain.EscalationMatrix) error {
	if ticket.BreachState == domain.BreachStateRed {
		return nil
	}
	ticket.BreachState = domain.BreachStateRed
	rule := matrix.NextRule(domain.TriggerBreach, ticket.EscalationLevel)
	if rule == nil {
		return s.persistStateFlip(ctx, ticket, "resolution SLA breached, no matrix rule to fire")
	}
	ticket.EscalationLevel = rule.Level
	if err := s.executor.Execute(ctx, ticket, rule); err != nil {
		return err
	}
	s.metrics.RecordEscalation(string(domain.TriggerBreach))
	return nil
}

// handleWarning fires the next WARNING_THRESHOLD rule once the elapsed share
// of the resolution budget crosses the rule's percentage.
func (s *Sweeper) handleWarning(ctx context.Context, ticket *domain.Ticket, matrix domain.EscalationMatrix, now time.Time) error {
	if ticket.BreachState != domain.BreachStateNone {
		return nil
	}
	rule := matrix.NextRule(domain.TriggerWarningThreshold, ticket.EscalationLevel)
	if rule == nil {
		return nil
	}

	remaining := ticket.SLADueAt.Sub(now)
	elapsedPct := (1 - remaining.Minutes()/float64(ticket.ResolutionTargetMinutes)) * 100
	if elapsedPct < rule.WarningThresholdPct {
		return nil
	}

	ticket.BreachState = domain.BreachStateWarning
	ticket.EscalationLevel = rule.Level
	if err := s.executor.Execute(ctx, ticket, rule); err != nil {
		return err
	}
	s.metrics.RecordEscalation(string(domain.TriggerWarningThreshold))
	return nil
}

func (s *Sweeper) persistStateFlip(ctx context.Context, ticket *domain.Ticket, note string) error {
	ticket.UpdatedAt = s.now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	entry := &domain.TicketHistory{
		TicketID:  ticket.ID,
		ActorType: domain.ActorTypeSystem,
		Action:    domain.ActionEscalated,
		NewValue:  map[string]any{"breach_state": ticket.BreachState},
		Note:      note,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history write failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
	return nil
}
