// Package engine implements the task status transition engine: a guard
// that rejects structurally impossible transitions, a resolver that turns
// a transition request into the human decisions it needs, an executor that
// computes the field-level effects of applying it, and a suggester that
// derives an implied status from the clock and the schedule.
//
// Everything here is a pure transform over an in-memory task value. The
// engine never touches storage or the network and is safe to call
// concurrently on distinct tasks.
package engine

import (
	"time"

	"taskdeck/internal/models"
)

// Named policy constants. Not user-configurable.
const (
	// ScheduleSlack is how far into the future a rescheduled start is pushed.
	ScheduleSlack = time.Hour
	// OverdueBackdate is how far into the past a forced-overdue due date is set.
	OverdueBackdate = time.Hour
)

// Reserved option value sentinels.
const (
	// OptionCancel marks the choice that abandons the transition. Callers
	// that see it selected simply never call the executor.
	OptionCancel = "cancel"
	// OptionInvalid marks a choice that can be shown but never executed.
	// The executor refuses any option set containing it.
	OptionInvalid = "invalid"
)

// Option values understood by the executor.
const (
	OptionForceComplete      = "force_complete"
	OptionUsePlannedAsActual = "use_planned_as_actual"
	OptionSetActualToNow     = "set_actual_to_now"
	OptionCompleteOverdue    = "complete_overdue"
	OptionUpdateDueToNow     = "update_due_to_now"
	OptionSetStart           = "set_start"
	OptionConfirmReset       = "confirm_reset"
	OptionForceOverdue       = "force_overdue"
	OptionStartNow           = "start_now"
	OptionPullStartToNow     = "pull_start_to_now"
	OptionReschedule         = "reschedule"
	OptionSetActualAuto      = "set_actual_auto"
	OptionSetActualManual    = "set_actual_manual"
	OptionRestoreCopy        = "restore_copy"

	// Redirect values: the executor re-targets the transition instead of
	// applying the requested pair.
	OptionSwitchToProgress = "switch_to_progress"
	OptionSuggestBacklog   = "suggest_backlog"

	OptionPauseTask = "pause_task"
)

// TransitionKey identifies one cell of the (from, to) dispatch tables.
type TransitionKey struct {
	From models.TaskStatus
	To   models.TaskStatus
}

// Option is one selectable choice inside a Scenario.
type Option struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Scenario is a decision point that must be answered by a human before the
// transition may execute.
type Scenario struct {
	Title   string   `json:"title"`
	Options []Option `json:"options"`
}

// GuardResult is the outcome of TransitionGuard.Validate.
type GuardResult struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// Options maps a scenario key to the option value the user selected.
type Options map[string]string

// Has reports whether any selected value equals v.
func (o Options) Has(v string) bool {
	for _, sel := range o {
		if sel == v {
			return true
		}
	}
	return false
}

// clock resolves an injectable now func, defaulting to time.Now.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}

func datePart(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return &d
}

func timePart(t time.Time) *string {
	s := t.Format("15:04")
	return &s
}
