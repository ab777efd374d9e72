package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusOnHold          TicketStatus = "ON_HOLD"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency. P1 is the most urgent.
type TicketPriority string

const (
	TicketPriorityP1 TicketPriority = "P1"
	TicketPriorityP2 TicketPriority = "P2"
	TicketPriorityP3 TicketPriority = "P3"
)

// BreachState tracks SLA breach progression. It only moves forward while a
// ticket stays open: NONE -> WARNING -> RED.
type BreachState string

const (
	BreachStateNone    BreachState = "NONE"
	BreachStateWarning BreachState = "WARNING"
	BreachStateRed     BreachState = "RED"
)

// Ticket is the aggregate driven by the SLA clock and escalation workflow.
type Ticket struct {
	ID          string
	TicketNo    string
	CustomerID  string
	StoreID     string
	AssigneeID  *string
	Watchers    []string
	Priority    TicketPriority
	Status      TicketStatus
	SLAPolicyID string

	// Per-priority minute targets snapshotted from the policy at creation,
	// so later policy edits never shift due dates of open tickets.
	ResponseTargetMinutes   int
	ResolutionTargetMinutes int

	FirstResponseDueAt time.Time
	SLADueAt           time.Time

	BreachState     BreachState
	EscalationLevel int
	PausedSince     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// IsActive reports whether the SLA clock still applies to the ticket.
func (t *Ticket) IsActive() bool {
	return t.Status != TicketStatusResolved && t.Status != TicketStatusClosed
}

// IsPaused reports whether the clock is currently frozen.
func (t *Ticket) IsPaused() bool {
	return t.PausedSince != nil
}

// IsOverdue is a pure function of stored fields, not a cached value.
func (t *Ticket) IsOverdue(now time.Time) bool {
	return t.IsActive() && !now.Before(t.SLADueAt)
}

// HasWatcher reports whether userID already watches the ticket.
func (t *Ticket) HasWatcher(userID string) bool {
	for _, w := range t.Watchers {
		if w == userID {
			return true
		}
	}
	return false
}

// AddWatcher appends userID unless already present.
func (t *Ticket) AddWatcher(userID string) {
	if userID == "" || t.HasWatcher(userID) {
		return
	}
	t.Watchers = append(t.Watchers, userID)
}

// BumpPriority moves the ticket one step toward P1. P1 is a ceiling.
// Returns false when the priority did not change.
func (t *Ticket) BumpPriority() bool {
	switch t.Priority {
	case TicketPriorityP3:
		t.Priority = TicketPriorityP2
	case TicketPriorityP2:
		t.Priority = TicketPriorityP1
	default:
		return false
	}
	return true
}

// ValidPriority reports whether p is one of the supported priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityP1, TicketPriorityP2, TicketPriorityP3:
		return true
	}
	return false
}
