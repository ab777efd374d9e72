// Package calendar answers business-hour questions for SLA policies: whether
// an instant falls inside a policy's open window, and how to advance an
// instant by a number of business minutes across closed days and holidays.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// maxWalkDays bounds calendar arithmetic so a holiday-saturated or otherwise
// degenerate calendar surfaces as an error instead of an endless walk.
const maxWalkDays = 1097

// Resolver evaluates business-hour windows. Holiday sets are read through the
// repository on every computation so calendar edits take effect immediately.
type Resolver struct {
	holidays repository.HolidayRepository
}

// NewResolver builds a resolver backed by the given holiday store.
func NewResolver(holidays repository.HolidayRepository) *Resolver {
	return &Resolver{holidays: holidays}
}

// IsOpen reports whether the instant falls inside the policy's business hours.
func (r *Resolver) IsOpen(ctx context.Context, policy *domain.SLAPolicy, instant time.Time) (bool, error) {
	holidayCal, err := r.loadHolidays(ctx, policy)
	if err != nil {
		return false, err
	}
	loc := policy.Location()
	t := instant.In(loc)
	window := policy.Week[t.Weekday()]
	if window.OpenMinutes() == 0 || isHoliday(holidayCal, t) {
		return false, nil
	}
	minuteOfDay := t.Hour()*60 + t.Minute()
	return minuteOfDay >= window.OpenMinute && minuteOfDay < window.CloseMinute, nil
}

// AddBusinessMinutes advances start by the given business minutes, skipping
// holidays and closed days and counting only minutes inside each day's
// [open, close) window. The result is never inside a closed window: when the
// arithmetic lands exactly on a close boundary it advances to the next open
// window's start.
func (r *Resolver) AddBusinessMinutes(ctx context.Context, policy *domain.SLAPolicy, start time.Time, minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, apperrors.NewCalendarResolutionError("cannot add negative business minutes")
	}
	if policy.Week.OpenMinutesPerWeek() == 0 {
		return time.Time{}, apperrors.NewCalendarResolutionError(
			fmt.Sprintf("policy %s has zero open business minutes per week", policy.ID))
	}
	holidayCal, err := r.loadHolidays(ctx, policy)
	if err != nil {
		return time.Time{}, err
	}

	loc := policy.Location()
	t := start.In(loc)
	remaining := minutes
	for walked := 0; walked < maxWalkDays; walked++ {
		dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		window := policy.Week[dayStart.Weekday()]
		if window.OpenMinutes() == 0 || isHoliday(holidayCal, dayStart) {
			t = dayStart.AddDate(0, 0, 1)
			continue
		}
		openAt := dayStart.Add(time.Duration(window.OpenMinute) * time.Minute)
		closeAt := dayStart.Add(time.Duration(window.CloseMinute) * time.Minute)
		if t.Before(openAt) {
			t = openAt
		}
		if !t.Before(closeAt) {
			t = dayStart.AddDate(0, 0, 1)
			continue
		}
		available := int(closeAt.Sub(t) / time.Minute)
		if remaining < available {
			return t.Add(time.Duration(remaining) * time.Minute), nil
		}
		remaining -= available
		t = dayStart.AddDate(0, 0, 1)
	}
	return time.Time{}, apperrors.NewCalendarResolutionError(
		fmt.Sprintf("calendar walk for policy %s exceeded %d days", policy.ID, maxWalkDays))
}

// BusinessMinutesBetween counts the business minutes elapsed between from and
// to. A span covering only closed time (a weekend, a holiday) yields zero.
func (r *Resolver) BusinessMinutesBetween(ctx context.Context, policy *domain.SLAPolicy, from, to time.Time) (int, error) {
	if !to.After(from) {
		return 0, nil
	}
	holidayCal, err := r.loadHolidays(ctx, policy)
	if err != nil {
		return 0, err
	}

	loc := policy.Location()
	from = from.In(loc)
	to = to.In(loc)
	total := 0
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for walked := 0; walked < maxWalkDays && day.Before(to); walked++ {
		window := policy.Week[day.Weekday()]
		next := day.AddDate(0, 0, 1)
		if window.OpenMinutes() > 0 && !isHoliday(holidayCal, day) {
			openAt := day.Add(time.Duration(window.OpenMinute) * time.Minute)
			closeAt := day.Add(time.Duration(window.CloseMinute) * time.Minute)
			lo := openAt
			if from.After(lo) {
				lo = from
			}
			hi := closeAt
			if to.Before(hi) {
				hi = to
			}
			if hi.After(lo) {
				total += int(hi.Sub(lo) / time.Minute)
			}
		}
		day = next
	}
	return total, nil
}

// loadHolidays reads the policy's holiday calendar, if any, and converts it
// into a rickar/cal calendar of year-pinned holidays.
func (r *Resolver) loadHolidays(ctx context.Context, policy *domain.SLAPolicy) (*cal.Calendar, error) {
	if policy.HolidayCalendarID == nil || r.holidays == nil {
		return nil, nil
	}
	holidayCal, err := r.holidays.GetCalendar(ctx, *policy.HolidayCalendarID)
	if err != nil {
		return nil, err
	}
	c := &cal.Calendar{Name: holidayCal.Name}
	for _, date := range holidayCal.Dates {
		c.AddHoliday(&cal.Holiday{
			Name:      holidayCal.Name,
			Type:      cal.ObservancePublic,
			Month:     date.Month(),
			Day:       date.Day(),
			StartYear: date.Year(),
			EndYear:   date.Year(),
			Func:      cal.CalcDayOfMonth,
		})
	}
	return c, nil
}

func isHoliday(c *cal.Calendar, day time.Time) bool {
	if c == nil {
		return false
	}
	actual, observed, _ := c.IsHoliday(day)
	return actual || observed
}
