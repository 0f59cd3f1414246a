package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
	"taskdeck/internal/provider"
	"taskdeck/internal/repositories"
)

// ErrScenarioUnresolved is returned by ApplyTransition when a transition
// that needs a restoration acknowledgement was submitted without one.
var ErrScenarioUnresolved = errors.New("transition requires a resolved scenario")

// TransitionOutcome is the result of one applied transition.
type TransitionOutcome struct {
	Task *models.Task `json:"task"`
	// Restored is set when the transition went through the clone-and-create
	// workflow instead of a plain update.
	Restored bool `json:"restored,omitempty"`
	// OriginalRetained is set when the provider-side delete of the original
	// failed after a successful create. The caller should warn the user.
	OriginalRetained bool `json:"original_retained,omitempty"`
}

// TaskService drives the transition pipeline: guard, resolver, executor,
// restoration, persistence, provider sync.
type TaskService interface {
	Create(ctx context.Context, task *models.Task, userID string) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id string, updateData *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error

	ResolveTransition(ctx context.Context, id string, to models.TaskStatus) (engine.GuardResult, []engine.Scenario, error)
	ApplyTransition(ctx context.Context, id string, to models.TaskStatus, opts engine.Options, userID string) (*TransitionOutcome, error)
	Suggestion(ctx context.Context, id string) (models.TaskStatus, bool, error)
	SetSubtaskCompleted(ctx context.Context, id, subtaskID string, completed bool) (*models.Task, error)
	Reschedule(ctx context.Context, id string, start, due *time.Time, startTime, dueTime *string) (*models.Task, error)
}

type taskService struct {
	repo     repositories.TaskRepository
	provider provider.TaskProvider
	adapter  *provider.RestorationAdapter
	now      func() time.Time
}

// NewTaskService creates a new instance of TaskService. now may be nil.
func NewTaskService(repo repositories.TaskRepository, prov provider.TaskProvider, now func() time.Time) TaskService {
	return &taskService{
		repo:     repo,
		provider: prov,
		adapter:  &provider.RestorationAdapter{Provider: prov, Now: now},
		now:      now,
	}
}

func (s *taskService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *taskService) Create(ctx context.Context, task *models.Task, userID string) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusBacklog
	}
	if !models.IsValidStatus(task.Status) {
		return nil, fmt.Errorf("unknown status %q", task.Status)
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	task.ID = uuid.NewString()
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == "" {
			task.Subtasks[i].ID = uuid.NewString()
		}
	}
	now := s.clock()
	task.CreatedAt = now
	task.UpdatedAt = now
	// No history for a task that does not exist yet.
	task.ActivityLog = nil

	// A non-backlog initial status still gets its entry effects, computed
	// in create mode so no activity entry is written.
	if task.Status != models.StatusBacklog {
		exec := engine.TransitionExecutor{Now: s.now, UserID: userID}
		next, err := exec.Execute(task, models.StatusBacklog, task.Status, nil, true)
		if err != nil {
			return nil, err
		}
		next.ID = task.ID
		next.CreatedAt = now
		task = next
	}

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	s.pushCreate(ctx, task)
	return task, nil
}

// pushCreate mirrors a new task to the provider, best effort. A failed
// push leaves the task local-only; the next update retries nothing, sync
// scheduling is the caller's concern.
func (s *taskService) pushCreate(ctx context.Context, task *models.Task) {
	if s.provider == nil {
		return
	}
	created, err := s.provider.Create(ctx, task)
	if err != nil {
		log.Printf("[task][sync][warn] provider create failed id=%s: %v", task.ID, err)
		return
	}
	if created.ExternalID != "" && created.ExternalID != task.ExternalID {
		task.ExternalID = created.ExternalID
		if err := s.repo.Update(ctx, task); err != nil {
			log.Printf("[task][sync][warn] store external id failed id=%s: %v", task.ID, err)
		}
	}
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, id string, updateData *models.Task) (*models.Task, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Status is not updatable here; that is what transitions are for.
	existing.Title = updateData.Title
	existing.Description = updateData.Description
	existing.Priority = updateData.Priority
	existing.Tags = updateData.Tags
	existing.Collection = updateData.Collection
	existing.StartDate = updateData.StartDate
	existing.StartTime = updateData.StartTime
	existing.DueDate = updateData.DueDate
	existing.DueTime = updateData.DueTime
	existing.Subtasks = updateData.Subtasks
	for i := range existing.Subtasks {
		if existing.Subtasks[i].ID == "" {
			existing.Subtasks[i].ID = uuid.NewString()
		}
	}
	existing.UpdatedAt = s.clock()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.pushUpdate(ctx, existing)
	return existing, nil
}

func (s *taskService) pushUpdate(ctx context.Context, task *models.Task) {
	if s.provider == nil || task.ExternalID == "" {
		return
	}
	if _, err := s.provider.Update(ctx, task); err != nil {
		if errors.Is(err, provider.ErrDoneImmutable) {
			log.Printf("[task][sync][warn] provider holds id=%s as done; update skipped", task.ID)
			return
		}
		log.Printf("[task][sync][warn] provider update failed id=%s: %v", task.ID, err)
	}
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.provider != nil && task.ExternalID != "" {
		if err := s.provider.Delete(ctx, task.ExternalID); err != nil {
			log.Printf("[task][sync][warn] provider delete failed id=%s: %v", id, err)
		}
	}
	return nil
}

func (s *taskService) ResolveTransition(ctx context.Context, id string, to models.TaskStatus) (engine.GuardResult, []engine.Scenario, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return engine.GuardResult{}, nil, err
	}
	guard := engine.TransitionGuard{Now: s.now}
	res := guard.Validate(task, task.Status, to)
	if !res.IsValid {
		return res, nil, nil
	}
	resolver := engine.ScenarioResolver{Now: s.now}
	return res, resolver.Resolve(task, task.Status, to), nil
}

func (s *taskService) ApplyTransition(ctx context.Context, id string, to models.TaskStatus, opts engine.Options, userID string) (*TransitionOutcome, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := task.Status

	if !s.adapter.IsTransitionAllowed(from, to) {
		if !opts.Has(engine.OptionRestoreCopy) {
			return nil, fmt.Errorf("%w: restoring a completed task must be acknowledged", ErrScenarioUnresolved)
		}
		return s.restore(ctx, task, to, userID)
	}

	exec := engine.TransitionExecutor{Now: s.now, UserID: userID}
	next, err := exec.Execute(task, from, to, opts, false)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.pushUpdate(ctx, next)
	log.Printf("[task][transition] id=%s %s -> %s", id, from, next.Status)
	return &TransitionOutcome{Task: next}, nil
}

func (s *taskService) restore(ctx context.Context, task *models.Task, to models.TaskStatus, userID string) (*TransitionOutcome, error) {
	res := s.adapter.Restore(ctx, task, to, userID)
	if res.Err != nil {
		return nil, res.Err
	}
	if err := s.repo.ReplaceWith(ctx, task.ID, res.Task, res.OriginalRetained); err != nil {
		return nil, err
	}
	log.Printf("[task][restore] id=%s -> %s new_id=%s original_retained=%v",
		task.ID, to, res.Task.ID, res.OriginalRetained)
	return &TransitionOutcome{
		Task:             res.Task,
		Restored:         true,
		OriginalRetained: res.OriginalRetained,
	}, nil
}

func (s *taskService) Suggestion(ctx context.Context, id string) (models.TaskStatus, bool, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	suggester := engine.AutoStatusSuggester{Now: s.now}
	status, ok := suggester.Suggest(task)
	return status, ok, nil
}

func (s *taskService) SetSubtaskCompleted(ctx context.Context, id, subtaskID string, completed bool) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].Completed = completed
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("subtask not found")
	}
	task.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	s.pushUpdate(ctx, task)
	return task, nil
}

func (s *taskService) Reschedule(ctx context.Context, id string, start, due *time.Time, startTime, dueTime *string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	proposed := task.Clone()
	proposed.StartDate = start
	proposed.StartTime = startTime
	proposed.DueDate = due
	proposed.DueTime = dueTime

	finalStart, _ := proposed.StartAt()
	finalDue, _ := proposed.DueAt()

	accepted := engine.ValidateSchedule(finalStart, finalDue, func() {
		proposed.UpdatedAt = s.clock()
	})
	if !accepted {
		return nil, fmt.Errorf("due date before start date")
	}
	if err := s.repo.Update(ctx, proposed); err != nil {
		return nil, err
	}
	s.pushUpdate(ctx, proposed)
	return proposed, nil
}
