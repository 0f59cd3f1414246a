package engine

import (
	"time"

	"taskdeck/internal/models"
)

// ScenarioResolver decides which human decisions a transition request
// needs before it may execute. An empty result means the transition is
// direct.
type ScenarioResolver struct {
	Now func() time.Time
}

// Resolve evaluates the priority rules in order with short-circuit: once a
// rule fires for a request, later rules (including the pair table) are
// skipped.
//
//  1. Completing with incomplete required subtasks blocks everything else.
//  2. Entering in-progress with an incomplete timing record asks how to
//     record the actual start.
//  3. Otherwise the canonical (from, to) table decides.
//
// Leaving done conflicts with the provider's terminal-state rule, so the
// restoration acknowledgement is prepended before whatever else the rules
// produce.
func (r ScenarioResolver) Resolve(t *models.Task, from, to models.TaskStatus) []Scenario {
	scenarios := r.resolve(t, from, to)
	if from == models.StatusDone && to != models.StatusDone {
		return append([]Scenario{restoreAcknowledgementScenario()}, scenarios...)
	}
	return scenarios
}

func (r ScenarioResolver) resolve(t *models.Task, from, to models.TaskStatus) []Scenario {
	now := clock(r.Now)

	if to == models.StatusDone && hasIncompleteRequired(t) {
		return []Scenario{requiredSubtasksScenario()}
	}

	if to == models.StatusInProgress && !timingComplete(t) {
		return []Scenario{startTimingScenario()}
	}

	if cell, ok := scenarioTable[TransitionKey{From: from, To: to}]; ok && cell != nil {
		return cell(t, now)
	}
	return nil
}

func hasIncompleteRequired(t *models.Task) bool {
	for _, st := range t.Subtasks {
		if st.RequiredCompleted && !st.Completed {
			return true
		}
	}
	return false
}

func timingComplete(t *models.Task) bool {
	return t.StartDate != nil && t.StartTime != nil &&
		t.ActualStartDate != nil && t.ActualStartTime != nil
}

func dueInPast(t *models.Task, now time.Time) bool {
	due, ok := t.DueAt()
	return ok && due.Before(now)
}

func hasSchedule(t *models.Task) bool {
	return t.StartDate != nil || t.DueDate != nil
}

// scenarioCell produces the scenarios for one (from, to) pair. A cell may
// emit zero, one, or several scenarios; multiple scenarios are concatenated
// in declared order, never merged.
type scenarioCell func(t *models.Task, now time.Time) []Scenario

// scenarioTable is the single canonical transition table. Pairs without an
// entry, and cells that return nothing, make the transition direct.
var scenarioTable = map[TransitionKey]scenarioCell{
	{From: models.StatusBacklog, To: models.StatusTodo}: func(t *models.Task, now time.Time) []Scenario {
		if start, ok := t.StartAt(); !ok || !start.After(now) {
			return []Scenario{scheduleTaskScenario()}
		}
		return nil
	},
	{From: models.StatusBacklog, To: models.StatusDone}: func(t *models.Task, now time.Time) []Scenario {
		if dueInPast(t, now) {
			return []Scenario{overdueCompletionScenario()}
		}
		return nil
	},
	{From: models.StatusBacklog, To: models.StatusOverdue}: func(t *models.Task, now time.Time) []Scenario {
		if !dueInPast(t, now) {
			return []Scenario{markOverdueScenario()}
		}
		return nil
	},

	{From: models.StatusTodo, To: models.StatusBacklog}: func(t *models.Task, now time.Time) []Scenario {
		if hasSchedule(t) {
			return []Scenario{resetTaskScenario()}
		}
		return nil
	},
	{From: models.StatusTodo, To: models.StatusInProgress}: func(t *models.Task, now time.Time) []Scenario {
		if start, ok := t.StartAt(); ok && start.After(now) {
			return []Scenario{earlyStartScenario()}
		}
		return nil
	},
	{From: models.StatusTodo, To: models.StatusDone}: func(t *models.Task, now time.Time) []Scenario {
		if dueInPast(t, now) {
			return []Scenario{overdueCompletionScenario()}
		}
		return nil
	},
	{From: models.StatusTodo, To: models.StatusOverdue}: func(t *models.Task, now time.Time) []Scenario {
		if !dueInPast(t, now) {
			return []Scenario{markOverdueScenario()}
		}
		return nil
	},

	{From: models.StatusInProgress, To: models.StatusBacklog}: func(t *models.Task, now time.Time) []Scenario {
		return []Scenario{resetTaskScenario()}
	},
	{From: models.StatusInProgress, To: models.StatusTodo}: func(t *models.Task, now time.Time) []Scenario {
		// Guard already rejected started tasks; what is left is a pause.
		return []Scenario{pauseTaskScenario()}
	},
	{From: models.StatusInProgress, To: models.StatusDone}: func(t *models.Task, now time.Time) []Scenario {
		if dueInPast(t, now) {
			return []Scenario{overdueCompletionScenario()}
		}
		return nil
	},
	{From: models.StatusInProgress, To: models.StatusOverdue}: func(t *models.Task, now time.Time) []Scenario {
		if !dueInPast(t, now) {
			return []Scenario{markOverdueScenario()}
		}
		return nil
	},

	{From: models.StatusOverdue, To: models.StatusBacklog}: func(t *models.Task, now time.Time) []Scenario {
		return []Scenario{resetTaskScenario()}
	},
	{From: models.StatusOverdue, To: models.StatusTodo}: func(t *models.Task, now time.Time) []Scenario {
		return []Scenario{rescheduleOverdueScenario()}
	},
	{From: models.StatusOverdue, To: models.StatusDone}: func(t *models.Task, now time.Time) []Scenario {
		var out []Scenario
		if _, ok := t.ActualStartAt(); !ok {
			out = append(out, completionTimeScenario())
		}
		if dueInPast(t, now) {
			out = append(out, overdueCompletionScenario())
		}
		return out
	},
}

func requiredSubtasksScenario() Scenario {
	return Scenario{
		Title: "Incomplete Required Subtasks",
		Options: []Option{
			{Label: "Complete them and finish the task", Value: OptionForceComplete},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func startTimingScenario() Scenario {
	return Scenario{
		Title: "Start Timing",
		Options: []Option{
			{Label: "Use the planned start as the actual start", Value: OptionUsePlannedAsActual},
			{Label: "Start from the current time", Value: OptionSetActualToNow},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func scheduleTaskScenario() Scenario {
	return Scenario{
		Title: "Schedule Task",
		Options: []Option{
			{Label: "Start one hour from now", Value: OptionSetStart},
			{
				Label:       "Leave unscheduled",
				Value:       OptionInvalid,
				Description: "A todo task needs an upcoming start date",
			},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func overdueCompletionScenario() Scenario {
	return Scenario{
		Title: "Overdue Completion",
		Options: []Option{
			{Label: "Complete as overdue, keep the due date", Value: OptionCompleteOverdue},
			{Label: "Move the due date to now", Value: OptionUpdateDueToNow},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func markOverdueScenario() Scenario {
	return Scenario{
		Title: "Mark Overdue",
		Options: []Option{
			{
				Label:       "Backdate the due date",
				Value:       OptionForceOverdue,
				Description: "The due date will be moved one hour into the past",
			},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func resetTaskScenario() Scenario {
	return Scenario{
		Title: "Reset Task",
		Options: []Option{
			{Label: "Clear the schedule and move to backlog", Value: OptionConfirmReset},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func earlyStartScenario() Scenario {
	return Scenario{
		Title: "Early Start",
		Options: []Option{
			{Label: "Start now, keep the planned date", Value: OptionStartNow},
			{Label: "Pull the planned start to now", Value: OptionPullStartToNow},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func pauseTaskScenario() Scenario {
	return Scenario{
		Title: "Pause Task",
		Options: []Option{
			{Label: "Pause and keep the schedule", Value: OptionPauseTask},
			{Label: "Reset to backlog instead", Value: OptionSuggestBacklog},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func rescheduleOverdueScenario() Scenario {
	return Scenario{
		Title: "Reschedule Overdue Task",
		Options: []Option{
			{Label: "Set a fresh start and clear the missed due date", Value: OptionReschedule},
			{
				Label:       "Keep the missed due date",
				Value:       OptionInvalid,
				Description: "A todo task cannot keep a due date that already passed",
			},
			{Label: "It already started, mark in progress", Value: OptionSwitchToProgress},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func completionTimeScenario() Scenario {
	return Scenario{
		Title: "Completion Time",
		Options: []Option{
			{Label: "Use the current time", Value: OptionSetActualAuto},
			{Label: "Enter the times manually", Value: OptionSetActualManual},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}

func restoreAcknowledgementScenario() Scenario {
	return Scenario{
		Title: "Restore Completed Task",
		Options: []Option{
			{
				Label:       "Create a restored copy",
				Value:       OptionRestoreCopy,
				Description: "The task provider keeps completed tasks immutable; restoring creates a copy and removes the original",
			},
			{Label: "Cancel", Value: OptionCancel},
		},
	}
}
