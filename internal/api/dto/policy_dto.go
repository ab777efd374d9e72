package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// SLATargetRequest carries minute budgets for one priority.
type SLATargetRequest struct {
	FirstResponseMinutes int `json:"first_response_minutes" validate:"required,gt=0"`
	ResolutionMinutes    int `json:"resolution_minutes" validate:"required,gt=0"`
}

// DayWindowRequest is one weekday's business window. Minutes are counted
// from local midnight.
type DayWindowRequest struct {
	Closed      bool `json:"closed"`
	OpenMinute  int  `json:"open_minute" validate:"min=0,max=1439"`
	CloseMinute int  `json:"close_minute" validate:"min=0,max=1440"`
}

// BusinessWeekRequest lists windows per weekday.
type BusinessWeekRequest struct {
	Monday    DayWindowRequest `json:"monday"`
	Tuesday   DayWindowRequest `json:"tuesday"`
	Wednesday DayWindowRequest `json:"wednesday"`
	Thursday  DayWindowRequest `json:"thursday"`
	Friday    DayWindowRequest `json:"friday"`
	Saturday  DayWindowRequest `json:"saturday"`
	Sunday    DayWindowRequest `json:"sunday"`
}

// CreatePolicyRequest payload.
type CreatePolicyRequest struct {
	Name              string                                     `json:"name" validate:"required"`
	Active            bool                                       `json:"active"`
	Timezone          string                                     `json:"timezone" validate:"required"`
	Targets           map[domain.TicketPriority]SLATargetRequest `json:"targets" validate:"required,min=1"`
	Week              BusinessWeekRequest                        `json:"week"`
	HolidayCalendarID *string                                    `json:"holiday_calendar_id"`
	PauseStatuses     []domain.TicketStatus                      `json:"pause_statuses"`
}

// ToDomain converts the request to a policy, leaving ID assignment to the
// service.
func (r CreatePolicyRequest) ToDomain() *domain.SLAPolicy {
	policy := &domain.SLAPolicy{
		Name:              r.Name,
		Active:            r.Active,
		Timezone:          r.Timezone,
		Targets:           make(map[domain.TicketPriority]domain.SLATarget, len(r.Targets)),
		HolidayCalendarID: r.HolidayCalendarID,
		PauseStatuses:     r.PauseStatuses,
	}
	for priority, target := range r.Targets {
		policy.Targets[priority] = domain.SLATarget{
			FirstResponseMinutes: target.FirstResponseMinutes,
			ResolutionMinutes:    target.ResolutionMinutes,
		}
	}
	policy.Week[time.Monday] = r.Week.Monday.toDomain()
	policy.Week[time.Tuesday] = r.Week.Tuesday.toDomain()
	policy.Week[time.Wednesday] = r.Week.Wednesday.toDomain()
	policy.Week[time.Thursday] = r.Week.Thursday.toDomain()
	policy.Week[time.Friday] = r.Week.Friday.toDomain()
	policy.Week[time.Saturday] = r.Week.Saturday.toDomain()
	policy.Week[time.Sunday] = r.Week.Sunday.toDomain()
	return policy
}

func (w DayWindowRequest) toDomain() domain.DayWindow {
	return domain.DayWindow{Closed: w.Closed, OpenMinute: w.OpenMinute, CloseMinute: w.CloseMinute}
}

// PolicyResponse is the wire shape of a policy.
type PolicyResponse struct {
	ID                string                                     `json:"id"`
	Name              string                                     `json:"name"`
	Active            bool                                       `json:"active"`
	Timezone          string                                     `json:"timezone"`
	Targets           map[domain.TicketPriority]SLATargetRequest `json:"targets"`
	Week              BusinessWeekRequest                        `json:"week"`
	HolidayCalendarID *string                                    `json:"holiday_calendar_id"`
	PauseStatuses     []domain.TicketStatus                      `json:"pause_statuses"`
	CreatedAt         time.Time                                  `json:"created_at"`
	UpdatedAt         time.Time                                  `json:"updated_at"`
}

// NewPolicyResponse maps a domain policy.
func NewPolicyResponse(policy *domain.SLAPolicy) PolicyResponse {
	resp := PolicyResponse{
		ID:                policy.ID,
		Name:              policy.Name,
		Active:            policy.Active,
		Timezone:          policy.Timezone,
		Targets:           make(map[domain.TicketPriority]SLATargetRequest, len(policy.Targets)),
		HolidayCalendarID: policy.HolidayCalendarID,
		PauseStatuses:     policy.PauseStatuses,
		CreatedAt:         policy.CreatedAt,
		UpdatedAt:         policy.UpdatedAt,
	}
	for priority, target := range policy.Targets {
		resp.Targets[priority] = SLATargetRequest{
			FirstResponseMinutes: target.FirstResponseMinutes,
			ResolutionMinutes:    target.ResolutionMinutes,
		}
	}
	resp.Week = BusinessWeekRequest{
		Monday:    fromDomainWindow(policy.Week[time.Monday]),
		Tuesday:   fromDomainWindow(policy.Week[time.Tuesday]),
		Wednesday: fromDomainWindow(policy.Week[time.Wednesday]),
		Thursday:  fromDomainWindow(policy.Week[time.Thursday]),
		Friday:    fromDomainWindow(policy.Week[time.Friday]),
		Saturday:  fromDomainWindow(policy.Week[time.Saturday]),
		Sunday:    fromDomainWindow(policy.Week[time.Sunday]),
	}
	return resp
}

func fromDomainWindow(w domain.DayWindow) DayWindowRequest {
	return DayWindowRequest{Closed: w.Closed, OpenMinute: w.OpenMinute, CloseMinute: w.CloseMinute}
}

// CreateHolidayCalendarRequest payload. Dates use YYYY-MM-DD.
type CreateHolidayCalendarRequest struct {
	Name  string   `json:"name" validate:"required"`
	Dates []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
}

// HolidayCalendarResponse is the wire shape of a calendar.
type HolidayCalendarResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dates     []string  `json:"dates"`
	CreatedAt time.Time `json:"created_at"`
}

// NewHolidayCalendarResponse maps a domain calendar.
func NewHolidayCalendarResponse(calendar *domain.HolidayCalendar) HolidayCalendarResponse {
	dates := make([]string, 0, len(calendar.Dates))
	for _, day := range calendar.Dates {
		dates = append(dates, day.Format("2006-01-02"))
	}
	return HolidayCalendarResponse{
		ID:        calendar.ID,
		Name:      calendar.Name,
		Dates:     dates,
		CreatedAt: calendar.CreatedAt,
	}
}

// EscalationRuleRequest is one matrix row.
type EscalationRuleRequest struct {
	Level               int      `json:"level" validate:"required,gt=0"`
	Trigger             string   `json:"trigger" validate:"required,oneof=WARNING_THRESHOLD BREACH"`
	WarningThresholdPct float64  `json:"warning_threshold_pct" validate:"min=0,max=100"`
	NotifyRoles         []string `json:"notify_roles"`
	NotifyUsers         []string `json:"notify_users"`
	Channel             string   `json:"channel" validate:"required"`
	ReassignTo          *string  `json:"reassign_to"`
	AddWatcher          bool     `json:"add_watcher"`
	BumpPriority        bool     `json:"bump_priority"`
	LockOverride        bool     `json:"lock_override"`
}

// ReplaceMatrixRequest payload.
type ReplaceMatrixRequest struct {
	Rules []EscalationRuleRequest `json:"rules" validate:"required,min=1,dive"`
}

// ToDomain converts the matrix request.
func (r ReplaceMatrixRequest) ToDomain() []domain.EscalationRule {
	rules := make([]domain.EscalationRule, 0, len(r.Rules))
	for _, rule := range r.Rules {
		rules = append(rules, domain.EscalationRule{
			Level:               rule.Level,
			Trigger:             domain.EscalationTrigger(rule.Trigger),
			WarningThresholdPct: rule.WarningThresholdPct,
			NotifyRoles:         rule.NotifyRoles,
			NotifyUsers:         rule.NotifyUsers,
			Channel:             rule.Channel,
			ReassignTo:          rule.ReassignTo,
			AddWatcher:          rule.AddWatcher,
			BumpPriority:        rule.BumpPriority,
			LockOverride:        rule.LockOverride,
		})
	}
	return rules
}

// EscalationRuleResponse is the wire shape of a matrix row.
type EscalationRuleResponse struct {
	ID                  string   `json:"id"`
	Level               int      `json:"level"`
	Trigger             string   `json:"trigger"`
	WarningThresholdPct float64  `json:"warning_threshold_pct"`
	NotifyRoles         []string `json:"notify_roles"`
	NotifyUsers         []string `json:"notify_users"`
	Channel             string   `json:"channel"`
	ReassignTo          *string  `json:"reassign_to"`
	AddWatcher          bool     `json:"add_watcher"`
	BumpPriority        bool     `json:"bump_priority"`
	LockOverride        bool     `json:"lock_override"`
}

// NewMatrixResponse maps matrix rules.
func NewMatrixResponse(rules domain.EscalationMatrix) []EscalationRuleResponse {
	out := make([]EscalationRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, EscalationRuleResponse{
			ID:                  rule.ID,
			Level:               rule.Level,
			Trigger:             string(rule.Trigger),
			WarningThresholdPct: rule.WarningThresholdPct,
			NotifyRoles:         rule.NotifyRoles,
			NotifyUsers:         rule.NotifyUsers,
			Channel:             rule.Channel,
			ReassignTo:          rule.ReassignTo,
			AddWatcher:          rule.AddWatcher,
			BumpPriority:        rule.BumpPriority,
			LockOverride:        rule.LockOverride,
		})
	}
	return out
}
