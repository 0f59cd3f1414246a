package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
	"taskdeck/internal/repositories"
)

// SweepUserID is recorded on activity entries written by the sweep.
const SweepUserID = "auto"

// SweepService runs the suggester continuously: on a cron schedule it
// recomputes the implied status of every open task and applies the change
// through the executor. Explicit user transitions stay with TaskService;
// the sweep only follows the clock.
type SweepService struct {
	repo     repositories.TaskRepository
	tasks    TaskService
	notifier *NotifierService
	cron     *cron.Cron
	now      func() time.Time
}

func NewSweepService(repo repositories.TaskRepository, tasks TaskService, notifier *NotifierService, now func() time.Time) *SweepService {
	return &SweepService{repo: repo, tasks: tasks, notifier: notifier, now: now}
}

// Start schedules the sweep. schedule is a standard cron spec.
func (s *SweepService) Start(schedule string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[sweep] scheduled %q", schedule)
	return nil
}

func (s *SweepService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce performs a single sweep pass.
func (s *SweepService) RunOnce(ctx context.Context) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		log.Printf("[sweep][err] list open: %v", err)
		return
	}

	suggester := engine.AutoStatusSuggester{Now: s.now}
	var becameOverdue []models.Task

	for i := range open {
		task := &open[i]
		suggested, ok := suggester.Suggest(task)
		if !ok || suggested == task.Status {
			continue
		}
		// The sweep never restores out of done; that needs a human
		// acknowledgement of the provider constraint.
		if task.Status == models.StatusDone {
			log.Printf("[sweep][skip] id=%s done task suggests %s; needs manual restore", task.ID, suggested)
			continue
		}

		opts := s.optionsFor(task, suggested)
		outcome, err := s.tasks.ApplyTransition(ctx, task.ID, suggested, opts, SweepUserID)
		if err != nil {
			log.Printf("[sweep][err] id=%s %s -> %s: %v", task.ID, task.Status, suggested, err)
			continue
		}
		log.Printf("[sweep][ok] id=%s %s -> %s", task.ID, task.Status, suggested)
		s.notifier.NotifyStatusChanged(outcome.Task, task.Status, suggested)
		if suggested == models.StatusOverdue {
			becameOverdue = append(becameOverdue, *outcome.Task)
		}
	}

	if err := s.notifier.SendOverdueDigest(becameOverdue); err != nil {
		log.Printf("[sweep][err] overdue digest: %v", err)
	}
}

// optionsFor synthesizes the choices a human would have made for an
// automatic application: entering in-progress records the actual start
// from the planned start when one exists, otherwise from now.
func (s *SweepService) optionsFor(task *models.Task, to models.TaskStatus) engine.Options {
	if to != models.StatusInProgress {
		return nil
	}
	if task.StartDate != nil {
		return engine.Options{"start_timing": engine.OptionUsePlannedAsActual}
	}
	return engine.Options{"start_timing": engine.OptionSetActualToNow}
}
