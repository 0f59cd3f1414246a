package services

import (
	"context"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/pdf"
	"taskdeck/internal/repositories"
)

// StatusSummary is the per-status breakdown shown on the dashboard.
type StatusSummary struct {
	Counts  map[models.TaskStatus]int `json:"counts"`
	Total   int                       `json:"total"`
	Overdue []models.Task             `json:"overdue"`
}

type ReportService struct {
	repo repositories.TaskRepository
	gen  pdf.Generator
	now  func() time.Time
}

func NewReportService(repo repositories.TaskRepository, gen pdf.Generator, now func() time.Time) *ReportService {
	return &ReportService{repo: repo, gen: gen, now: now}
}

func (s *ReportService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *ReportService) GetSummary(ctx context.Context) (*StatusSummary, error) {
	tasks, err := s.repo.FindAll(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	summary := &StatusSummary{Counts: map[models.TaskStatus]int{}}
	for _, t := range tasks {
		summary.Counts[t.Status]++
		summary.Total++
		if t.Status == models.StatusOverdue {
			summary.Overdue = append(summary.Overdue, t)
		}
	}
	return summary, nil
}

// ExportPDF writes a status report and returns the file path.
func (s *ReportService) ExportPDF(ctx context.Context) (string, error) {
	tasks, err := s.repo.FindAll(ctx, models.TaskFilter{})
	if err != nil {
		return "", err
	}
	return s.gen.GenerateStatusReport(pdf.ReportData{
		GeneratedAt: s.clock(),
		Tasks:       tasks,
	})
}
