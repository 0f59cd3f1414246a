package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fakeProvider struct {
	createErr error
	deleteErr error

	created []*models.Task
	deleted []string
}

func (f *fakeProvider) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := task.Clone()
	out.ExternalID = "ext-" + task.ID
	f.created = append(f.created, out)
	return out, nil
}

func (f *fakeProvider) Update(_ context.Context, task *models.Task) (*models.Task, error) {
	return task.Clone(), nil
}

func (f *fakeProvider) Delete(_ context.Context, externalID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, externalID)
	return nil
}

func doneTask() *models.Task {
	end := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	endTime := "17:00"
	return &models.Task{
		ID:            "t-1",
		ExternalID:    "ext-original",
		Title:         "ship release",
		Status:        models.StatusDone,
		Tags:          []string{"work"},
		ActualEndDate: &end,
		ActualEndTime: &endTime,
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	a := &RestorationAdapter{}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			got := a.IsTransitionAllowed(from, to)
			want := !(from == models.StatusDone && to != models.StatusDone)
			if got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCloneForStatus(t *testing.T) {
	a := &RestorationAdapter{Now: fixedNow}
	original := doneTask()

	clone := a.CloneForStatus(original, models.StatusTodo, "u-1")

	if clone.ID == original.ID || clone.ID == "" {
		t.Errorf("clone must get a new identity, got %q", clone.ID)
	}
	if clone.ExternalID != "" {
		t.Errorf("clone must not inherit the external id")
	}
	if !strings.HasSuffix(clone.Title, " (Restored)") {
		t.Errorf("title = %q", clone.Title)
	}
	if clone.Status != models.StatusTodo {
		t.Errorf("status = %s", clone.Status)
	}
	if !hasTag(clone.Tags, RestoredTag) {
		t.Errorf("missing %q tag: %v", RestoredTag, clone.Tags)
	}
	if clone.ActualEndDate != nil || clone.ActualEndTime != nil {
		t.Errorf("restored copy must not carry an end record")
	}
	if len(clone.ActivityLog) != len(original.ActivityLog)+1 {
		t.Fatalf("expected one restoration entry")
	}
	entry := clone.ActivityLog[len(clone.ActivityLog)-1]
	if entry.Action != "restored" {
		t.Errorf("action = %q", entry.Action)
	}
	if entry.UserID != "u-1" {
		t.Errorf("entry attributed to %q, want u-1", entry.UserID)
	}
	if original.Status != models.StatusDone || original.Title != "ship release" {
		t.Errorf("original mutated")
	}
}

func TestRestore_CreateFailureAborts(t *testing.T) {
	fake := &fakeProvider{createErr: errors.New("network down")}
	a := &RestorationAdapter{Provider: fake, Now: fixedNow}

	res := a.Restore(context.Background(), doneTask(), models.StatusTodo, "u-1")
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Err == nil {
		t.Fatalf("expected an error")
	}
	if len(fake.deleted) != 0 {
		t.Errorf("delete must not run after a failed create")
	}
}

func TestRestore_DeleteFailureRetainsOriginal(t *testing.T) {
	fake := &fakeProvider{deleteErr: errors.New("network down")}
	a := &RestorationAdapter{Provider: fake, Now: fixedNow}

	res := a.Restore(context.Background(), doneTask(), models.StatusTodo, "u-1")
	if !res.Success {
		t.Fatalf("delete failure must not fail the restoration: %v", res.Err)
	}
	if !res.OriginalRetained {
		t.Errorf("expected OriginalRetained")
	}
	if res.Task == nil || res.Task.Status != models.StatusTodo {
		t.Errorf("restored task missing or wrong status: %+v", res.Task)
	}
}

func TestRestore_HappyPathDeletesOriginal(t *testing.T) {
	fake := &fakeProvider{}
	a := &RestorationAdapter{Provider: fake, Now: fixedNow}

	res := a.Restore(context.Background(), doneTask(), models.StatusInProgress, "u-1")
	if !res.Success || res.OriginalRetained {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "ext-original" {
		t.Errorf("original not deleted: %v", fake.deleted)
	}
	if res.Task.ExternalID == "" {
		t.Errorf("provider-assigned id missing")
	}
}

func TestRestore_LocalOnlyOriginalSkipsDelete(t *testing.T) {
	fake := &fakeProvider{}
	a := &RestorationAdapter{Provider: fake, Now: fixedNow}

	original := doneTask()
	original.ExternalID = ""

	res := a.Restore(context.Background(), original, models.StatusBacklog, "u-1")
	if !res.Success || res.OriginalRetained {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(fake.deleted) != 0 {
		t.Errorf("nothing to delete for a local-only task")
	}
}
