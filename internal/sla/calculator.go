// Package sla converts a policy and priority into concrete due instants.
package sla

import (
	"context"
	"time"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// DueDates holds the computed due instants for a ticket.
type DueDates struct {
	FirstResponseDueAt time.Time
	ResolutionDueAt    time.Time
}

// Calculator computes business-hour-adjusted due dates.
type Calculator struct {
	resolver *calendar.Resolver
}

// NewCalculator constructs the calculator.
func NewCalculator(resolver *calendar.Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// ComputeDueDates advances createdAt by the policy's per-priority minute
// targets. A nil, inactive, or target-less policy yields POLICY_NOT_FOUND.
func (c *Calculator) ComputeDueDates(ctx context.Context, policy *domain.SLAPolicy, priority domain.TicketPriority, createdAt time.Time) (DueDates, error) {
	if policy == nil {
		return DueDates{}, apperrors.NewPolicyNotFound("", "policy missing")
	}
	if !policy.Active {
		return DueDates{}, apperrors.NewPolicyNotFound(policy.ID, "policy inactive")
	}
	target, ok := policy.TargetFor(priority)
	if !ok {
		return DueDates{}, apperrors.NewPolicyNotFound(policy.ID, "no target for priority "+string(priority))
	}

	firstResponse, err := c.resolver.AddBusinessMinutes(ctx, policy, createdAt, target.FirstResponseMinutes)
	if err != nil {
		return DueDates{}, err
	}
	resolution, err := c.resolver.AddBusinessMinutes(ctx, policy, createdAt, target.ResolutionMinutes)
	if err != nil {
		return DueDates{}, err
	}
	return DueDates{FirstResponseDueAt: firstResponse, ResolutionDueAt: resolution}, nil
}
