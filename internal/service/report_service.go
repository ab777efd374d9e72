package service

import (
	"context"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// ComplianceReport summarizes SLA performance over a ticket set.
type ComplianceReport struct {
	Total         int
	Resolved      int
	Breached      int
	Warned        int
	CompliancePct float64
	MTTA          time.Duration
	MTTR          time.Duration
}

// ReportService computes compliance metrics for external reporting.
type ReportService struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, history repository.TicketHistoryRepository) *ReportService {
	return &ReportService{tickets: tickets, history: history}
}

// ComplianceReport aggregates tickets created inside [from, to].
// compliancePct is (total-breached)/total*100, 0 for an empty set. MTTA is
// the mean wall-clock time from creation to the first ASSIGNED entry; MTTR
// the mean from creation to the last status change of resolved/closed
// tickets. Both are 0 when no ticket qualifies.
func (s *ReportService) ComplianceReport(ctx context.Context, from, to *time.Time) (*ComplianceReport, error) {
	filter := repository.TicketFilter{
		CreatedFrom: from,
		CreatedTo:   to,
		Limit:       10000,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.Aggregate(ctx, tickets)
}

// Aggregate computes the report over an explicit ticket set.
func (s *ReportService) Aggregate(ctx context.Context, tickets []domain.Ticket) (*ComplianceReport, error) {
	report := &ComplianceReport{Total: len(tickets)}
	if report.Total == 0 {
		return report, nil
	}

	var (
		ackTotal     time.Duration
		ackCount     int
		resolveTotal time.Duration
		resolveCount int
	)
	for i := range tickets {
		ticket := &tickets[i]
		switch ticket.BreachState {
		case domain.BreachStateRed:
			report.Breached++
		case domain.BreachStateWarning:
			report.Warned++
		}
		resolved := ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed
		if resolved {
			report.Resolved++
		}

		history, err := s.history.ListByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if ack, ok := firstAssignment(history); ok {
			ackTotal += ack.Sub(ticket.CreatedAt)
			ackCount++
		}
		if resolved {
			if last, ok := lastStatusChange(history); ok {
				resolveTotal += last.Sub(ticket.CreatedAt)
				resolveCount++
			}
		}
	}

	report.CompliancePct = float64(report.Total-report.Breached) / float64(report.Total) * 100
	if ackCount > 0 {
		report.MTTA = ackTotal / time.Duration(ackCount)
	}
	if resolveCount > 0 {
		report.MTTR = resolveTotal / time.Duration(resolveCount)
	}
	return report, nil
}

func firstAssignment(history []domain.TicketHistory) (time.Time, bool) {
	for _, entry := range history {
		if entry.Action == domain.ActionAssigned {
			return entry.CreatedAt, true
		}
	}
	return time.Time{}, false
}

func lastStatusChange(history []domain.TicketHistory) (time.Time, bool) {
	var last time.Time
	found := false
	for _, entry := range history {
		switch entry.Action {
		case domain.ActionStatusChange, domain.ActionPaused, domain.ActionResumed, domain.ActionForcedClose:
			if entry.CreatedAt.After(last) {
				last = entry.CreatedAt
				found = true
			}
		}
	}
	return last, found
}
