package domain

import (
	"fmt"
	"time"
)

// DayWindow describes the open interval for one weekday as minutes from
// midnight. The window is half-open: [OpenMinute, CloseMinute). A day with
// Closed set, or with a zero-length window, contributes no business time.
type DayWindow struct {
	Closed      bool
	OpenMinute  int
	CloseMinute int
}

// OpenMinutes returns the business minutes the window contributes.
func (w DayWindow) OpenMinutes() int {
	if w.Closed || w.CloseMinute <= w.OpenMinute {
		return 0
	}
	return w.CloseMinute - w.OpenMinute
}

// BusinessWeek holds one window per weekday, indexed by time.Weekday.
type BusinessWeek [7]DayWindow

// OpenMinutesPerWeek sums the open minutes across the week.
func (bw BusinessWeek) OpenMinutesPerWeek() int {
	total := 0
	for _, w := range bw {
		total += w.OpenMinutes()
	}
	return total
}

// SLATarget holds per-priority minute budgets.
type SLATarget struct {
	FirstResponseMinutes int
	ResolutionMinutes    int
}

// SLAPolicy binds priorities to minute targets under a business-hour window
// and a holiday calendar. Open tickets hold a snapshot of the minute targets;
// the week table, holiday set and pause set are read live.
type SLAPolicy struct {
	ID                string
	Name              string
	Active            bool
	Timezone          string
	Targets           map[TicketPriority]SLATarget
	Week              BusinessWeek
	HolidayCalendarID *string
	PauseStatuses     []TicketStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TargetFor returns the minute targets for a priority.
func (p *SLAPolicy) TargetFor(priority TicketPriority) (SLATarget, bool) {
	target, ok := p.Targets[priority]
	return target, ok
}

// PausesOn reports whether the given status freezes the SLA clock.
func (p *SLAPolicy) PausesOn(status TicketStatus) bool {
	for _, s := range p.PauseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Location resolves the policy timezone, defaulting to UTC.
func (p *SLAPolicy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks policy invariants before persisting.
func (p *SLAPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name required")
	}
	if len(p.Targets) == 0 {
		return fmt.Errorf("policy needs at least one priority target")
	}
	for priority, target := range p.Targets {
		if !ValidPriority(priority) {
			return fmt.Errorf("unknown priority %q", priority)
		}
		if target.FirstResponseMinutes <= 0 || target.ResolutionMinutes <= 0 {
			return fmt.Errorf("priority %s: targets must be positive", priority)
		}
		if target.ResolutionMinutes < target.FirstResponseMinutes {
			return fmt.Errorf("priority %s: resolution target below first-response target", priority)
		}
	}
	for day, window := range p.Week {
		if window.Closed {
			continue
		}
		if window.OpenMinute < 0 || window.CloseMinute > 24*60 || window.CloseMinute < window.OpenMinute {
			return fmt.Errorf("invalid window for %s", time.Weekday(day))
		}
	}
	if p.Week.OpenMinutesPerWeek() == 0 {
		return fmt.Errorf("policy has zero open business minutes per week")
	}
	for _, status := range p.PauseStatuses {
		switch status {
		case TicketStatusWaitingCustomer, TicketStatusOnHold:
		default:
			return fmt.Errorf("status %s is not pause-eligible", status)
		}
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q", p.Timezone)
		}
	}
	return nil
}

// HolidayCalendar is an ordered set of dates excluded from business hours.
// It is referenced, never owned, by policies.
type HolidayCalendar struct {
	ID        string
	Name      string
	Dates     []time.Time
	CreatedAt time.Time
}
