// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible lifecycle statuses for a task.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusOverdue    TaskStatus = "overdue"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []TaskStatus{StatusBacklog, StatusTodo, StatusInProgress, StatusDone, StatusOverdue}

// IsValidStatus reports whether s is one of the five known statuses.
func IsValidStatus(s TaskStatus) bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Subtask is a checklist item inside a task. A RequiredCompleted subtask
// blocks the transition to done until it is completed or overridden.
type Subtask struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Completed         bool   `json:"completed"`
	RequiredCompleted bool   `json:"required_completed"`
}

// ActivityEntry is one append-only history record. Entries are never
// mutated or reordered after being written.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Task represents one task at a point in time. Values handed to the engine
// are treated as immutable; every mutation goes through a Clone.
//
// Date and time-of-day are stored separately because either half of a
// schedule can be set without the other. Times use the "15:04" form.
type Task struct {
	ID          string       `json:"id"`
	ExternalID  string       `json:"external_id,omitempty"` // id on the task-list provider
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Tags        []string     `json:"tags"`
	Collection  string       `json:"collection"`
	Status      TaskStatus   `json:"status"`

	StartDate *time.Time `json:"start_date,omitempty"`
	StartTime *string    `json:"start_time,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	DueTime   *string    `json:"due_time,omitempty"`

	ActualStartDate *time.Time `json:"actual_start_date,omitempty"`
	ActualStartTime *string    `json:"actual_start_time,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`
	ActualEndTime   *string    `json:"actual_end_time,omitempty"`

	Subtasks    []Subtask       `json:"subtasks"`
	ActivityLog []ActivityEntry `json:"activity_log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Status     *TaskStatus
	Collection *string
	Tag        *string
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.StartDate = copyTime(t.StartDate)
	c.StartTime = copyString(t.StartTime)
	c.DueDate = copyTime(t.DueDate)
	c.DueTime = copyString(t.DueTime)
	c.ActualStartDate = copyTime(t.ActualStartDate)
	c.ActualStartTime = copyString(t.ActualStartTime)
	c.ActualEndDate = copyTime(t.ActualEndDate)
	c.ActualEndTime = copyString(t.ActualEndTime)
	c.Tags = append([]string(nil), t.Tags...)
	c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	c.ActivityLog = append([]ActivityEntry(nil), t.ActivityLog...)
	return &c
}

// StartAt combines StartDate and StartTime into an instant. A missing
// StartTime means start of day.
func (t *Task) StartAt() (time.Time, bool) {
	return combine(t.StartDate, t.StartTime, 0, 0)
}

// DueAt combines DueDate and DueTime into an instant. A missing DueTime
// means end of day: a due date without a time is not late until the day is
// over.
func (t *Task) DueAt() (time.Time, bool) {
	return combine(t.DueDate, t.DueTime, 23, 59)
}

// ActualStartAt combines the actual-start pair.
func (t *Task) ActualStartAt() (time.Time, bool) {
	return combine(t.ActualStartDate, t.ActualStartTime, 0, 0)
}

func combine(d *time.Time, hm *string, defHour, defMin int) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	h, m := defHour, defMin
	if hm != nil {
		if parsed, err := time.Parse("15:04", *hm); err == nil {
			h, m = parsed.Hour(), parsed.Minute()
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location()), true
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
