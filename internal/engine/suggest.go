package engine

import (
	"time"

	"taskdeck/internal/models"
)

// AutoStatusSuggester recomputes the status a task's schedule implies.
// It is a pure function of the clock and the task; callers decide whether
// and when to apply the suggestion through the executor.
type AutoStatusSuggester struct {
	Now func() time.Time
}

// Suggest evaluates the rules in order; the first match wins. The second
// return value is false when the current status already fits.
//
// Overdue is only ever suggested for tasks that are not done: a completed
// task with a past due date stays done (rule 1 handles the edited-after-
// completion case explicitly).
func (s AutoStatusSuggester) Suggest(t *models.Task) (models.TaskStatus, bool) {
	now := clock(s.Now)
	due, hasDue := t.DueAt()
	start, hasStart := t.StartAt()

	// 1. Done stays done unless the due date was pushed into the future
	// after completion.
	if t.Status == models.StatusDone {
		if hasDue && due.After(now) {
			if hasStart && !start.After(now) {
				return models.StatusInProgress, true
			}
			return models.StatusTodo, true
		}
		return "", false
	}

	// 2. A missed due date means overdue.
	if hasDue && due.Before(now) && t.Status != models.StatusOverdue {
		return models.StatusOverdue, true
	}

	// 3. A reached start date means the task is running.
	if hasStart && !start.After(now) &&
		(t.Status == models.StatusTodo || t.Status == models.StatusBacklog) {
		return models.StatusInProgress, true
	}

	// 4. A future start date means the task is planned, not running.
	if hasStart && start.After(now) &&
		(t.Status == models.StatusBacklog || t.Status == models.StatusInProgress) {
		return models.StatusTodo, true
	}

	// 5. Backlog tasks carry no schedule; any date moves them to todo.
	if t.Status == models.StatusBacklog && (hasStart || hasDue) {
		return models.StatusTodo, true
	}

	// 6. Scheduled statuses without any date fall back to backlog.
	if !hasStart && !hasDue &&
		(t.Status == models.StatusTodo || t.Status == models.StatusInProgress) {
		return models.StatusBacklog, true
	}

	return "", false
}
