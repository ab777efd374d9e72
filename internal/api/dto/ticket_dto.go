package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerID  string                `json:"customer_id" validate:"required"`
	StoreID     string                `json:"store_id" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"required,oneof=P1 P2 P3"`
	SLAPolicyID string                `json:"sla_policy_id" validate:"required,uuid4"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required"`
	Note   string              `json:"note"`
}

// NoteRequest carries an optional note for pause/resume/force-close.
type NoteRequest struct {
	Note string `json:"note"`
}

// TicketListQuery captures query filters.
type TicketListQuery struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	BreachState *domain.BreachState
	AssigneeID  *string
	StoreID     *string
	CustomerID  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID                 string                `json:"id"`
	TicketNo           string                `json:"ticket_no"`
	CustomerID         string                `json:"customer_id"`
	StoreID            string                `json:"store_id"`
	AssigneeID         *string               `json:"assignee_id"`
	Watchers           []string              `json:"watchers"`
	Status             domain.TicketStatus   `json:"status"`
	Priority           domain.TicketPriority `json:"priority"`
	SLAPolicyID        string                `json:"sla_policy_id"`
	FirstResponseDueAt time.Time             `json:"first_response_due_at"`
	SLADueAt           time.Time             `json:"sla_due_at"`
	BreachState        domain.BreachState    `json:"breach_state"`
	EscalationLevel    int                   `json:"escalation_level"`
	PausedSince        *time.Time            `json:"paused_since"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	ClosedAt           *time.Time            `json:"closed_at"`
}

// HistoryEntryResponse is one audit trail row.
type HistoryEntryResponse struct {
	ID        string              `json:"id"`
	ActorType domain.ActorType    `json:"actor_type"`
	ActorID   *string             `json:"actor_id"`
	Action    domain.TicketAction `json:"action"`
	OldValue  map[string]any      `json:"old_value,omitempty"`
	NewValue  map[string]any      `json:"new_value,omitempty"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketDetailResponse is a ticket plus its audit trail.
type TicketDetailResponse struct {
	Ticket  TicketResponse         `json:"ticket"`
	History []HistoryEntryResponse `json:"history"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                 ticket.ID,
		TicketNo:           ticket.TicketNo,
		CustomerID:         ticket.CustomerID,
		StoreID:            ticket.StoreID,
		AssigneeID:         ticket.AssigneeID,
		Watchers:           ticket.Watchers,
		Status:             ticket.Status,
		Priority:           ticket.Priority,
		SLAPolicyID:        ticket.SLAPolicyID,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		SLADueAt:           ticket.SLADueAt,
		BreachState:        ticket.BreachState,
		EscalationLevel:    ticket.EscalationLevel,
		PausedSince:        ticket.PausedSince,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		ClosedAt:           ticket.ClosedAt,
	}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntryResponse{
			ID:        entry.ID,
			ActorType: entry.ActorType,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}
