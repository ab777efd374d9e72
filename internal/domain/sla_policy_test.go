package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPolicy() *SLAPolicy {
	policy := &SLAPolicy{
		Name:     "standard",
		Active:   true,
		Timezone: "UTC",
		Targets: map[TicketPriority]SLATarget{
			TicketPriorityP1: {FirstResponseMinutes: 30, ResolutionMinutes: 240},
		},
		PauseStatuses: []TicketStatus{TicketStatusWaitingCustomer, TicketStatusOnHold},
	}
	for day := time.Monday; day <= time.Friday; day++ {
		policy.Week[day] = DayWindow{OpenMinute: 9 * 60, CloseMinute: 18 * 60}
	}
	return policy
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, validPolicy().Validate())
}

func TestPolicyValidateRejectsInvertedTargets(t *testing.T) {
	policy := validPolicy()
	policy.Targets[TicketPriorityP1] = SLATarget{FirstResponseMinutes: 240, ResolutionMinutes: 30}
	assert.Error(t, policy.Validate())
}

func TestPolicyValidateRejectsClosedWeek(t *testing.T) {
	policy := validPolicy()
	policy.Week = BusinessWeek{}
	assert.Error(t, policy.Validate())
}

func TestPolicyValidateRejectsBadPauseStatus(t *testing.T) {
	policy := validPolicy()
	policy.PauseStatuses = []TicketStatus{TicketStatusResolved}
	assert.Error(t, policy.Validate())
}

func TestPolicyValidateRejectsBadTimezone(t *testing.T) {
	policy := validPolicy()
	policy.Timezone = "Mars/Olympus"
	assert.Error(t, policy.Validate())
}

func TestDayWindowOpenMinutes(t *testing.T) {
	assert.Equal(t, 540, DayWindow{OpenMinute: 9 * 60, CloseMinute: 18 * 60}.OpenMinutes())
	assert.Zero(t, DayWindow{Closed: true, OpenMinute: 9 * 60, CloseMinute: 18 * 60}.OpenMinutes())
	assert.Zero(t, DayWindow{OpenMinute: 18 * 60, CloseMinute: 9 * 60}.OpenMinutes())
}

func TestPolicyLocationFallsBackToUTC(t *testing.T) {
	policy := validPolicy()
	policy.Timezone = ""
	assert.Equal(t, time.UTC, policy.Location())
}

func TestPausesOn(t *testing.T) {
	policy := validPolicy()
	assert.True(t, policy.PausesOn(TicketStatusOnHold))
	assert.False(t, policy.PausesOn(TicketStatusInProgress))
}
