package domain

import "time"

// TicketAction captures what a history entry records.
type TicketAction string

const (
	ActionCreated      TicketAction = "CREATED"
	ActionAssigned     TicketAction = "ASSIGNED"
	ActionStatusChange TicketAction = "STATUS_CHANGE"
	ActionPaused       TicketAction = "PAUSED"
	ActionResumed      TicketAction = "RESUMED"
	ActionEscalated    TicketAction = "ESCALATED"
	ActionForcedClose  TicketAction = "FORCED_CLOSE"
)

// TicketHistory is an immutable audit trail entry. Entries are append-only
// and owned by the ticket aggregate.
type TicketHistory struct {
	ID        string
	TicketID  string
	ActorType ActorType
	ActorID   *string
	Action    TicketAction
	OldValue  map[string]any
	NewValue  map[string]any
	Note      string
	CreatedAt time.Time
}
