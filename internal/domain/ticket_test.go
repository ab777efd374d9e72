package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBumpPriority(t *testing.T) {
	ticket := &Ticket{Priority: TicketPriorityP3}
	assert.True(t, ticket.BumpPriority())
	assert.Equal(t, TicketPriorityP2, ticket.Priority)
	assert.True(t, ticket.BumpPriority())
	assert.Equal(t, TicketPriorityP1, ticket.Priority)
	assert.False(t, ticket.BumpPriority(), "P1 is the ceiling")
	assert.Equal(t, TicketPriorityP1, ticket.Priority)
}

func TestAddWatcherDeduplicates(t *testing.T) {
	ticket := &Ticket{}
	ticket.AddWatcher("agent-1")
	ticket.AddWatcher("agent-1")
	ticket.AddWatcher("")
	ticket.AddWatcher("agent-2")
	assert.Equal(t, []string{"agent-1", "agent-2"}, ticket.Watchers)
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusInProgress, SLADueAt: due}

	assert.False(t, ticket.IsOverdue(due.Add(-time.Minute)))
	assert.True(t, ticket.IsOverdue(due), "due instant itself is overdue")
	assert.True(t, ticket.IsOverdue(due.Add(time.Minute)))

	ticket.Status = TicketStatusResolved
	assert.False(t, ticket.IsOverdue(due.Add(time.Hour)), "resolved tickets have no clock")
}
