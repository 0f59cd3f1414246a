package engine

import (
	"errors"
	"testing"
	"time"

	"taskdeck/internal/models"
)

func mustExecute(t *testing.T, exec TransitionExecutor, task *models.Task, from, to models.TaskStatus, opts Options) *models.Task {
	t.Helper()
	next, err := exec.Execute(task, from, to, opts, false)
	if err != nil {
		t.Fatalf("execute %s -> %s: %v", from, to, err)
	}
	return next
}

func TestExecutor_GuardRejectionAborts(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusInProgress)
	task.StartDate = datePtr(testNow.Add(-24 * time.Hour))

	_, err := exec.Execute(task, models.StatusInProgress, models.StatusTodo, nil, false)
	if err == nil {
		t.Fatalf("expected guard rejection")
	}
	if !IsGuardError(err) {
		t.Errorf("expected a GuardError, got %T", err)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("input task mutated on failure")
	}
}

func TestExecutor_InvalidSentinelRejected(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}
	task := newTask(models.StatusOverdue)

	_, err := exec.Execute(task, models.StatusOverdue, models.StatusTodo, Options{"reschedule": OptionInvalid}, false)
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

// Entering in-progress always yields a complete actual-start record.
func TestExecutor_EnterInProgress_SetsActualStart(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	for _, opts := range []Options{
		nil,
		{"start_timing": OptionSetActualToNow},
		{"start_timing": OptionUsePlannedAsActual},
	} {
		task := newTask(models.StatusTodo)
		next := mustExecute(t, exec, task, models.StatusTodo, models.StatusInProgress, opts)
		if next.ActualStartDate == nil || next.ActualStartTime == nil {
			t.Fatalf("opts=%v: actual start incomplete: %v %v", opts, next.ActualStartDate, next.ActualStartTime)
		}
		if next.Status != models.StatusInProgress {
			t.Errorf("status = %s", next.Status)
		}
	}
}

func TestExecutor_UsePlannedAsActual_CopiesPlan(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusTodo)
	task.StartDate = datePtr(testNow.Add(-24 * time.Hour))
	task.StartTime = strPtr("09:30")

	next := mustExecute(t, exec, task, models.StatusTodo, models.StatusInProgress,
		Options{"start_timing": OptionUsePlannedAsActual})

	if next.ActualStartDate == nil || !next.ActualStartDate.Equal(*task.StartDate) {
		t.Errorf("actual start date: got %v, want %v", next.ActualStartDate, task.StartDate)
	}
	if next.ActualStartTime == nil || *next.ActualStartTime != "09:30" {
		t.Errorf("actual start time: got %v, want 09:30", next.ActualStartTime)
	}
}

// Entering done always yields a complete actual-end record, and exactly one
// new activity entry outside create mode.
func TestExecutor_EnterDone_SetsActualEndAndLogsOnce(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow, UserID: "u-1"}

	task := newTask(models.StatusInProgress)
	task.ActualStartDate = datePtr(testNow.Add(-2 * time.Hour))
	task.ActualStartTime = strPtr("10:00")

	next := mustExecute(t, exec, task, models.StatusInProgress, models.StatusDone, nil)
	if next.ActualEndDate == nil || next.ActualEndTime == nil {
		t.Fatalf("actual end incomplete")
	}
	if got := len(next.ActivityLog) - len(task.ActivityLog); got != 1 {
		t.Fatalf("expected exactly one new activity entry, got %d", got)
	}
	entry := next.ActivityLog[len(next.ActivityLog)-1]
	if entry.Action != ActionStatusChanged {
		t.Errorf("action = %q", entry.Action)
	}
	if entry.UserID != "u-1" {
		t.Errorf("user = %q", entry.UserID)
	}
}

func TestExecutor_EnterDone_FillsMissingActualStart(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusBacklog)
	next := mustExecute(t, exec, task, models.StatusBacklog, models.StatusDone, nil)
	if next.ActualStartDate == nil || next.ActualStartTime == nil {
		t.Fatalf("expected actual start filled from now")
	}
}

func TestExecutor_EnterDone_ManualKeepsProvidedRecord(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusOverdue)
	task.ActualEndDate = datePtr(testNow.Add(-24 * time.Hour))
	task.ActualEndTime = strPtr("18:00")

	next := mustExecute(t, exec, task, models.StatusOverdue, models.StatusDone,
		Options{"completion_time": OptionSetActualManual})

	if !next.ActualEndDate.Equal(*task.ActualEndDate) || *next.ActualEndTime != "18:00" {
		t.Errorf("manual end record overwritten: %v %v", next.ActualEndDate, next.ActualEndTime)
	}
}

func TestExecutor_ForceComplete_MarksRequiredSubtasks(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusTodo)
	task.Subtasks = []models.Subtask{
		{ID: "s1", Title: "draft", RequiredCompleted: true},
		{ID: "s2", Title: "extra"},
	}

	next := mustExecute(t, exec, task, models.StatusTodo, models.StatusDone,
		Options{"required": OptionForceComplete})

	if !next.Subtasks[0].Completed {
		t.Errorf("required subtask not completed")
	}
	if next.Subtasks[1].Completed {
		t.Errorf("optional subtask should be untouched")
	}
	if task.Subtasks[0].Completed {
		t.Errorf("input task mutated")
	}
}

func TestExecutor_UpdateDueToNow(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusTodo)
	task.DueDate = datePtr(testNow.Add(-48 * time.Hour))

	next := mustExecute(t, exec, task, models.StatusTodo, models.StatusDone,
		Options{"overdue_completion": OptionUpdateDueToNow})

	if next.DueDate == nil || !next.DueDate.Equal(*datePtr(testNow)) {
		t.Errorf("due date: got %v, want today", next.DueDate)
	}
	if next.DueTime == nil || *next.DueTime != testNow.Format("15:04") {
		t.Errorf("due time: got %v", next.DueTime)
	}
}

// Forcing overdue backdates the due date only when it is not already past.
func TestExecutor_ForceOverdue_BackdatesDue(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusTodo)
	task.DueDate = datePtr(testNow.Add(72 * time.Hour))
	task.DueTime = strPtr("10:00")

	next := mustExecute(t, exec, task, models.StatusTodo, models.StatusOverdue,
		Options{"mark_overdue": OptionForceOverdue})

	backdated := testNow.Add(-OverdueBackdate)
	if next.DueDate == nil || !next.DueDate.Equal(*datePtr(backdated)) {
		t.Errorf("due date: got %v, want %v", next.DueDate, datePtr(backdated))
	}
	if next.DueTime == nil || *next.DueTime != backdated.Format("15:04") {
		t.Errorf("due time: got %v", next.DueTime)
	}
}

// A due date already in the past is kept as is.
func TestExecutor_TodoToOverdue_E2E(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	yesterday := datePtr(testNow.Add(-24 * time.Hour))
	task := newTask(models.StatusTodo)
	task.DueDate = yesterday

	resolver := ScenarioResolver{Now: fixedNow}
	if scenarios := resolver.Resolve(task, models.StatusTodo, models.StatusOverdue); len(scenarios) != 0 {
		t.Fatalf("expected no scenarios, got %v", titles(scenarios))
	}

	next := mustExecute(t, exec, task, models.StatusTodo, models.StatusOverdue, nil)
	if next.Status != models.StatusOverdue {
		t.Fatalf("status = %s", next.Status)
	}
	if !next.DueDate.Equal(*yesterday) {
		t.Errorf("due date changed: %v", next.DueDate)
	}
	if got := len(next.ActivityLog); got != 1 {
		t.Fatalf("expected one log entry, got %d", got)
	}
	want := "Status changed from todo to overdue"
	if next.ActivityLog[0].Details != want {
		t.Errorf("details = %q, want %q", next.ActivityLog[0].Details, want)
	}
}

// Scheduling an unscheduled backlog task pushes the start one hour out.
func TestExecutor_BacklogToTodo_SetStart_E2E(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusBacklog)
	next := mustExecute(t, exec, task, models.StatusBacklog, models.StatusTodo,
		Options{"schedule": OptionSetStart})

	pushed := testNow.Add(ScheduleSlack)
	if next.Status != models.StatusTodo {
		t.Fatalf("status = %s", next.Status)
	}
	if next.StartDate == nil || !next.StartDate.Equal(*datePtr(pushed)) {
		t.Errorf("start date: got %v, want %v", next.StartDate, datePtr(pushed))
	}
	if next.StartTime == nil || *next.StartTime != pushed.Format("15:04") {
		t.Errorf("start time: got %v", next.StartTime)
	}
}

// Full reset path: start, then reset to backlog. The execution record and
// the schedule both return to null.
func TestExecutor_RoundTrip_FullReset(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	started := mustExecute(t, exec, newTask(models.StatusBacklog),
		models.StatusBacklog, models.StatusInProgress, Options{"record_start": "record_start"})
	if started.ActualStartDate == nil || started.ActualStartTime == nil {
		t.Fatalf("actual start not recorded")
	}

	reset := mustExecute(t, exec, started, models.StatusInProgress, models.StatusBacklog, nil)
	if reset.ActualStartDate != nil || reset.ActualStartTime != nil {
		t.Errorf("actual start not cleared: %v %v", reset.ActualStartDate, reset.ActualStartTime)
	}
	if reset.StartDate != nil || reset.StartTime != nil || reset.DueDate != nil || reset.DueTime != nil {
		t.Errorf("schedule not cleared")
	}
	if reset.Status != models.StatusBacklog {
		t.Errorf("status = %s", reset.Status)
	}
}

// Leaving done for anything but in-progress clears the end record.
func TestExecutor_ExitDone_ClearsActualEnd(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusDone)
	task.ActualEndDate = datePtr(testNow.Add(-time.Hour))
	task.ActualEndTime = strPtr("11:00")

	next := mustExecute(t, exec, task, models.StatusDone, models.StatusBacklog, nil)
	if next.ActualEndDate != nil || next.ActualEndTime != nil {
		t.Errorf("actual end not cleared")
	}

	// done -> in-progress keeps it: the work is being resumed, not undone.
	resumed := mustExecute(t, exec, task, models.StatusDone, models.StatusInProgress, nil)
	if resumed.ActualEndDate == nil {
		t.Errorf("actual end should be kept on resume")
	}
}

// Redirect options re-target the transition with one bounded hop.
func TestExecutor_Redirect_SwitchToProgress(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusOverdue)
	task.StartDate = datePtr(testNow.Add(-24 * time.Hour))

	next := mustExecute(t, exec, task, models.StatusOverdue, models.StatusTodo,
		Options{"reschedule_overdue": OptionSwitchToProgress})

	if next.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want in-progress after redirect", next.Status)
	}
	if next.ActualStartDate == nil || next.ActualStartTime == nil {
		t.Errorf("redirect should record the actual start")
	}
	if got := len(next.ActivityLog); got != 1 {
		t.Fatalf("expected one log entry, got %d", got)
	}
	want := "Status changed from overdue to in-progress"
	if next.ActivityLog[0].Details != want {
		t.Errorf("details = %q, want %q", next.ActivityLog[0].Details, want)
	}
}

func TestExecutor_Redirect_SuggestBacklog(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusInProgress)
	task.StartDate = datePtr(testNow.Add(48 * time.Hour))
	task.ActualStartDate = datePtr(testNow)
	task.ActualStartTime = strPtr("08:00")

	next := mustExecute(t, exec, task, models.StatusInProgress, models.StatusTodo,
		Options{"pause": OptionSuggestBacklog})

	if next.Status != models.StatusBacklog {
		t.Fatalf("status = %s, want backlog after redirect", next.Status)
	}
	if next.StartDate != nil || next.ActualStartDate != nil {
		t.Errorf("reset should clear schedule and execution record")
	}
}

func TestExecutor_CreateMode_NoActivity(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusBacklog)
	next, err := exec.Execute(task, models.StatusBacklog, models.StatusTodo,
		Options{"schedule": OptionSetStart}, true)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(next.ActivityLog) != 0 {
		t.Errorf("create mode must not write history, got %d entries", len(next.ActivityLog))
	}
}

// Rescheduling out of overdue clears the missed due date.
func TestExecutor_OverdueToTodo_Reschedule(t *testing.T) {
	exec := TransitionExecutor{Now: fixedNow}

	task := newTask(models.StatusOverdue)
	task.DueDate = datePtr(testNow.Add(-24 * time.Hour))

	next := mustExecute(t, exec, task, models.StatusOverdue, models.StatusTodo,
		Options{"reschedule_overdue": OptionReschedule})

	if next.DueDate != nil || next.DueTime != nil {
		t.Errorf("missed due date not cleared")
	}
	pushed := testNow.Add(ScheduleSlack)
	if next.StartDate == nil || !next.StartDate.Equal(*datePtr(pushed)) {
		t.Errorf("start date: got %v, want %v", next.StartDate, datePtr(pushed))
	}
}
