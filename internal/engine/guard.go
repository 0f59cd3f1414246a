package engine

import (
	"time"

	"taskdeck/internal/models"
)

// TransitionGuard blocks transitions that are impossible regardless of any
// user choice. Everything it lets through is still subject to the resolver.
type TransitionGuard struct {
	Now func() time.Time
}

// Validate is a pure read over the task; same inputs, same result.
func (g TransitionGuard) Validate(t *models.Task, from, to models.TaskStatus) GuardResult {
	if !models.IsValidStatus(from) || !models.IsValidStatus(to) {
		return GuardResult{Message: "unknown status"}
	}

	// A task whose planned start has already passed cannot go back to todo
	// from in-progress: it demonstrably started. The route back is a full
	// reset to backlog.
	if from == models.StatusInProgress && to == models.StatusTodo {
		if start, ok := t.StartAt(); ok && !start.After(clock(g.Now)) {
			return GuardResult{Message: "task has already started; reset it to backlog instead"}
		}
	}

	return GuardResult{IsValid: true}
}
