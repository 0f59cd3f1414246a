package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/models"
)

// ActionStatusChanged is the activity-log action written for every
// executed transition.
const ActionStatusChanged = "status_changed"

// TransitionExecutor applies a transition plus its chosen options and
// returns a new task value. A call either fully succeeds or fully fails;
// the input task is never mutated.
type TransitionExecutor struct {
	Now    func() time.Time
	UserID string
}

// Execute validates the request again (defense in depth), refuses invalid
// sentinels, applies exit effects keyed by from and entry effects keyed by
// (from, to), and appends one activity entry unless createMode is set.
//
// Redirect options re-target the transition to a different status with a
// synthesized option set. Redirection is a single bounded hop, never a
// chain.
func (e TransitionExecutor) Execute(t *models.Task, from, to models.TaskStatus, opts Options, createMode bool) (*models.Task, error) {
	guard := TransitionGuard{Now: e.Now}
	now := clock(e.Now)

	for hop := 0; hop <= 1; hop++ {
		if res := guard.Validate(t, from, to); !res.IsValid {
			return nil, &GuardError{From: from, To: to, Message: res.Message}
		}
		for key, val := range opts {
			if val == OptionInvalid {
				return nil, fmt.Errorf("%w: %q", ErrInvalidOption, key)
			}
		}
		if hop == 0 {
			if newTo, newOpts, ok := redirect(opts); ok {
				to, opts = newTo, newOpts
				continue
			}
		}
		break
	}

	next := t.Clone()
	exitEffects(next, from, to)
	entryEffects(next, to, opts, now)
	next.Status = to

	if !createMode {
		next.ActivityLog = append(next.ActivityLog, models.ActivityEntry{
			ID:        uuid.NewString(),
			Action:    ActionStatusChanged,
			Details:   fmt.Sprintf("Status changed from %s to %s", from, to),
			UserID:    e.UserID,
			Timestamp: now,
		})
	}
	next.UpdatedAt = now
	return next, nil
}

func redirect(opts Options) (models.TaskStatus, Options, bool) {
	if opts.Has(OptionSwitchToProgress) {
		return models.StatusInProgress, Options{"start_timing": OptionSetActualToNow}, true
	}
	if opts.Has(OptionSuggestBacklog) {
		return models.StatusBacklog, Options{"reset": OptionConfirmReset}, true
	}
	return "", nil, false
}

// exitEffects are keyed by from alone.
func exitEffects(t *models.Task, from, to models.TaskStatus) {
	if from == models.StatusInProgress && to != models.StatusDone && to != models.StatusOverdue {
		t.ActualStartDate, t.ActualStartTime = nil, nil
	}
	if from == models.StatusDone && to != models.StatusInProgress {
		t.ActualEndDate, t.ActualEndTime = nil, nil
	}
}

// entryEffects are order-independent within a cell; each target status owns
// its own field computations.
func entryEffects(t *models.Task, to models.TaskStatus, opts Options, now time.Time) {
	switch to {
	case models.StatusInProgress:
		if opts.Has(OptionPullStartToNow) {
			t.StartDate, t.StartTime = datePart(now), timePart(now)
		}
		if opts.Has(OptionUsePlannedAsActual) && t.StartDate != nil {
			d := *t.StartDate
			t.ActualStartDate = &d
			if t.StartTime != nil {
				s := *t.StartTime
				t.ActualStartTime = &s
			} else {
				t.ActualStartTime = timePart(now)
			}
		} else {
			t.ActualStartDate, t.ActualStartTime = datePart(now), timePart(now)
		}

	case models.StatusDone:
		if opts.Has(OptionForceComplete) {
			for i := range t.Subtasks {
				if t.Subtasks[i].RequiredCompleted && !t.Subtasks[i].Completed {
					t.Subtasks[i].Completed = true
				}
			}
		}
		if opts.Has(OptionUpdateDueToNow) {
			t.DueDate, t.DueTime = datePart(now), timePart(now)
		}
		if opts.Has(OptionSetActualManual) {
			// The caller-provided update carries the execution record; only
			// fill the end timestamp if it left a gap, a done task always
			// has one.
			if t.ActualEndDate == nil {
				t.ActualEndDate = datePart(now)
			}
			if t.ActualEndTime == nil {
				t.ActualEndTime = timePart(now)
			}
		} else {
			t.ActualEndDate, t.ActualEndTime = datePart(now), timePart(now)
			if t.ActualStartDate == nil {
				t.ActualStartDate = datePart(now)
			}
			if t.ActualStartTime == nil {
				t.ActualStartTime = timePart(now)
			}
		}

	case models.StatusOverdue:
		if due, ok := t.DueAt(); !ok || !due.Before(now) {
			backdated := now.Add(-OverdueBackdate)
			t.DueDate, t.DueTime = datePart(backdated), timePart(backdated)
		}

	case models.StatusTodo:
		if opts.Has(OptionReschedule) {
			t.DueDate, t.DueTime = nil, nil
		}
		if start, ok := t.StartAt(); !ok || !start.After(now) {
			pushed := now.Add(ScheduleSlack)
			t.StartDate, t.StartTime = datePart(pushed), timePart(pushed)
		}

	case models.StatusBacklog:
		t.StartDate, t.StartTime = nil, nil
		t.DueDate, t.DueTime = nil, nil
	}
}
