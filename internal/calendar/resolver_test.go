package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// weekdayPolicy is Mon-Fri 09:00-18:00 UTC.
func weekdayPolicy() *domain.SLAPolicy {
	policy := &domain.SLAPolicy{
		ID:       "policy-1",
		Name:     "standard",
		Active:   true,
		Timezone: "UTC",
	}
	open := domain.DayWindow{OpenMinute: 9 * 60, CloseMinute: 18 * 60}
	for day := time.Monday; day <= time.Friday; day++ {
		policy.Week[day] = open
	}
	policy.Week[time.Saturday] = domain.DayWindow{Closed: true}
	policy.Week[time.Sunday] = domain.DayWindow{Closed: true}
	return policy
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestAddBusinessMinutesWithinDay(t *testing.T) {
	resolver := NewResolver(nil)
	// Monday 2026-03-02
	got, err := resolver.AddBusinessMinutes(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-02T10:00:00Z"), 60)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-02T11:00:00Z"), got.UTC())
}

func TestAddBusinessMinutesClampsToOpen(t *testing.T) {
	resolver := NewResolver(nil)
	got, err := resolver.AddBusinessMinutes(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-02T07:00:00Z"), 30)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-02T09:30:00Z"), got.UTC())
}

func TestAddBusinessMinutesSpansWeekend(t *testing.T) {
	resolver := NewResolver(nil)
	// Friday 2026-03-06 17:00 + 240 business minutes: one hour Friday,
	// then 180 minutes on Monday starting at 09:00.
	got, err := resolver.AddBusinessMinutes(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-06T17:00:00Z"), 240)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-09T12:00:00Z"), got.UTC())
}

func TestAddBusinessMinutesNeverLandsOnClose(t *testing.T) {
	resolver := NewResolver(nil)
	// exactly consuming Friday's last hour must roll to Monday's open
	got, err := resolver.AddBusinessMinutes(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-06T17:00:00Z"), 60)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-09T09:00:00Z"), got.UTC())
}

func TestAddBusinessMinutesSkipsHolidays(t *testing.T) {
	store := repository.NewMemoryStore()
	holidayCal := &domain.HolidayCalendar{
		Name:  "store holidays",
		Dates: []time.Time{mustTime(t, "2026-03-09T00:00:00Z")},
	}
	require.NoError(t, store.Holidays().CreateCalendar(context.Background(), holidayCal))

	policy := weekdayPolicy()
	policy.HolidayCalendarID = &holidayCal.ID

	resolver := NewResolver(store.Holidays())
	got, err := resolver.AddBusinessMinutes(context.Background(), policy,
		mustTime(t, "2026-03-06T17:00:00Z"), 240)
	require.NoError(t, err)
	// Monday is a holiday, so the remaining 180 minutes land on Tuesday
	assert.Equal(t, mustTime(t, "2026-03-10T12:00:00Z"), got.UTC())
}

func TestAddBusinessMinutesZeroOpenWeek(t *testing.T) {
	policy := weekdayPolicy()
	for day := time.Sunday; day <= time.Saturday; day++ {
		policy.Week[day] = domain.DayWindow{Closed: true}
	}
	resolver := NewResolver(nil)
	_, err := resolver.AddBusinessMinutes(context.Background(), policy,
		mustTime(t, "2026-03-02T10:00:00Z"), 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCalendarResolution))
}

func TestAddBusinessMinutesRejectsNegative(t *testing.T) {
	resolver := NewResolver(nil)
	_, err := resolver.AddBusinessMinutes(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-02T10:00:00Z"), -1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCalendarResolution))
}

func TestBusinessMinutesBetweenWeekendOnly(t *testing.T) {
	resolver := NewResolver(nil)
	got, err := resolver.BusinessMinutesBetween(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-07T10:00:00Z"), mustTime(t, "2026-03-08T16:00:00Z"))
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestBusinessMinutesBetweenSpansWeekend(t *testing.T) {
	resolver := NewResolver(nil)
	// Friday 17:30 -> Monday 09:30: 30 minutes Friday + 30 minutes Monday
	got, err := resolver.BusinessMinutesBetween(context.Background(), weekdayPolicy(),
		mustTime(t, "2026-03-06T17:30:00Z"), mustTime(t, "2026-03-09T09:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 60, got)
}

func TestIsOpen(t *testing.T) {
	resolver := NewResolver(nil)
	policy := weekdayPolicy()

	open, err := resolver.IsOpen(context.Background(), policy, mustTime(t, "2026-03-02T10:00:00Z"))
	require.NoError(t, err)
	assert.True(t, open)

	open, err = resolver.IsOpen(context.Background(), policy, mustTime(t, "2026-03-02T18:00:00Z"))
	require.NoError(t, err)
	assert.False(t, open, "close boundary is outside the window")

	open, err = resolver.IsOpen(context.Background(), policy, mustTime(t, "2026-03-07T10:00:00Z"))
	require.NoError(t, err)
	assert.False(t, open, "Saturday is closed")
}
