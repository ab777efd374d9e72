package domain

import (
	"fmt"
	"sort"
	"time"
)

// EscalationTrigger distinguishes the two escalation rule kinds.
type EscalationTrigger string

const (
	TriggerWarningThreshold EscalationTrigger = "WARNING_THRESHOLD"
	TriggerBreach           EscalationTrigger = "BREACH"
)

// EscalationRule is one row of the escalation matrix.
type EscalationRule struct {
	ID      string
	Level   int
	Trigger EscalationTrigger

	// WarningThresholdPct is the elapsed-ratio percentage (e.g. 75) at which
	// a WARNING_THRESHOLD rule fires. Ignored for BREACH rules.
	WarningThresholdPct float64

	NotifyRoles []string
	NotifyUsers []string
	Channel     string
	ReassignTo  *string

	AddWatcher   bool
	BumpPriority bool
	LockOverride bool

	CreatedAt time.Time
}

// EscalationMatrix is the ordered rule set. Rules are kept sorted by level.
type EscalationMatrix []EscalationRule

// NextRule returns the rule with the lowest level above the given level for
// the trigger kind, or nil when the matrix has none left.
func (m EscalationMatrix) NextRule(trigger EscalationTrigger, aboveLevel int) *EscalationRule {
	var best *EscalationRule
	for i := range m {
		rule := &m[i]
		if rule.Trigger != trigger || rule.Level <= aboveLevel {
			continue
		}
		if best == nil || rule.Level < best.Level {
			best = rule
		}
	}
	return best
}

// ValidateMatrix enforces matrix invariants: levels are strictly increasing
// integers starting at 1, and at most one rule exists per (level, trigger).
func ValidateMatrix(rules []EscalationRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("matrix needs at least one rule")
	}
	seen := make(map[string]struct{}, len(rules))
	levels := make(map[int]struct{}, len(rules))
	for _, rule := range rules {
		if rule.Level < 1 {
			return fmt.Errorf("rule level %d: levels start at 1", rule.Level)
		}
		switch rule.Trigger {
		case TriggerWarningThreshold:
			if rule.WarningThresholdPct <= 0 || rule.WarningThresholdPct > 100 {
				return fmt.Errorf("rule level %d: warning threshold must be in (0,100]", rule.Level)
			}
		case TriggerBreach:
		default:
			return fmt.Errorf("rule level %d: unknown trigger %q", rule.Level, rule.Trigger)
		}
		key := fmt.Sprintf("%d|%s", rule.Level, rule.Trigger)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate rule for level %d trigger %s", rule.Level, rule.Trigger)
		}
		seen[key] = struct{}{}
		levels[rule.Level] = struct{}{}
	}
	ordered := make([]int, 0, len(levels))
	for level := range levels {
		ordered = append(ordered, level)
	}
	sort.Ints(ordered)
	for i, level := range ordered {
		if level != i+1 {
			return fmt.Errorf("levels must be contiguous from 1, missing level %d", i+1)
		}
	}
	return nil
}
