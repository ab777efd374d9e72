package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventEscalationNotice    EventType = "escalation_notice"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNo           string                `json:"ticket_no"`
	CustomerID         string                `json:"customer_id"`
	StoreID            string                `json:"store_id"`
	Priority           domain.TicketPriority `json:"priority"`
	SLAPolicyID        string                `json:"sla_policy_id"`
	FirstResponseDueAt time.Time             `json:"first_response_due_at"`
	SLADueAt           time.Time             `json:"sla_due_at"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Paused    bool                `json:"paused"`
	Resumed   bool                `json:"resumed"`
	Note      string              `json:"note,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Level       int                      `json:"level"`
	Trigger     domain.EscalationTrigger `json:"trigger"`
	BreachState domain.BreachState       `json:"breach_state"`
	Priority    domain.TicketPriority    `json:"priority"`
}

// EscalationNoticePayload carries a notification request to the dispatcher.
type EscalationNoticePayload struct {
	Recipients []string `json:"recipients"`
	Channel    string   `json:"channel"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}
