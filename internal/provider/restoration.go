package provider

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/models"
)

// RestoredTag marks a task created by a restoration.
const RestoredTag = "restored"

// RestorationAdapter simulates moving a task out of done on a provider
// that forbids it, by creating a copy and deleting the original. The
// adapter holds no per-request state; it is safe to share across
// goroutines.
type RestorationAdapter struct {
	Provider TaskProvider
	Now      func() time.Time
}

// RestoreResult reports the outcome of one restoration. A failed delete of
// the original after a successful create is downgraded to OriginalRetained
// rather than rolling the copy back.
type RestoreResult struct {
	Success          bool
	OriginalRetained bool
	Task             *models.Task
	Err              error
}

// IsTransitionAllowed reports whether the provider can apply the
// transition with a plain update. Only leaving done is off limits.
func (a *RestorationAdapter) IsTransitionAllowed(from, to models.TaskStatus) bool {
	return !(from == models.StatusDone && to != models.StatusDone)
}

// CloneForStatus builds the restored copy: new identity, suffixed title,
// provenance tag, one activity entry recording the restoration. The copy
// has no external id yet; the provider assigns one on create.
func (a *RestorationAdapter) CloneForStatus(original *models.Task, target models.TaskStatus, userID string) *models.Task {
	now := a.now()
	c := original.Clone()
	c.ID = uuid.NewString()
	c.ExternalID = ""
	c.Title = original.Title + " (Restored)"
	c.Status = target

	// The copy is no longer done.
	c.ActualEndDate, c.ActualEndTime = nil, nil

	// A running copy needs a start record.
	if target == models.StatusInProgress && (c.ActualStartDate == nil || c.ActualStartTime == nil) {
		d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		hm := now.Format("15:04")
		c.ActualStartDate, c.ActualStartTime = &d, &hm
	}

	if !hasTag(c.Tags, RestoredTag) {
		c.Tags = append(c.Tags, RestoredTag)
	}
	c.ActivityLog = append(c.ActivityLog, models.ActivityEntry{
		ID:        uuid.NewString(),
		Action:    "restored",
		Details:   fmt.Sprintf("Restored from done to %s", target),
		UserID:    userID,
		Timestamp: now,
	})
	c.CreatedAt = now
	c.UpdatedAt = now
	return c
}

// Restore runs the clone-then-create workflow. Create failure aborts the
// whole restoration with no new task left behind. Delete failure after a
// successful create is non-fatal: the caller gets the new task plus
// OriginalRetained so it can warn the user.
func (a *RestorationAdapter) Restore(ctx context.Context, original *models.Task, target models.TaskStatus, userID string) RestoreResult {
	clone := a.CloneForStatus(original, target, userID)

	created, err := a.Provider.Create(ctx, clone)
	if err != nil {
		return RestoreResult{Err: fmt.Errorf("restoration create failed: %w", err)}
	}

	result := RestoreResult{Success: true, Task: created}
	if original.ExternalID == "" {
		// Nothing to delete on the provider side.
		return result
	}
	if err := a.Provider.Delete(ctx, original.ExternalID); err != nil {
		log.Printf("[restore][warn] delete of original external=%s failed: %v", original.ExternalID, err)
		result.OriginalRetained = true
	}
	return result
}

func (a *RestorationAdapter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
