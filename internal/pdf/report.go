package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskdeck/internal/models"
)

// Generator renders task reports; an interface so handlers can be tested
// with a stub.
type Generator interface {
	GenerateStatusReport(data ReportData) (string, error)
}

type ReportData struct {
	GeneratedAt time.Time
	Tasks       []models.Task
	Filename    string // optional; generated from the date when empty
}

// ReportGenerator writes PDF reports under RootDir.
type ReportGenerator struct {
	RootDir string
}

func NewReportGenerator(rootDir string) *ReportGenerator {
	return &ReportGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *ReportGenerator) GenerateStatusReport(data ReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("tasks_%s.pdf", data.GeneratedAt.Format("2006-01-02"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Task status report", false)
	doc.SetAuthor("Taskdeck", false)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, "TASK STATUS REPORT", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 7, data.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	doc.Ln(4)

	counts := map[models.TaskStatus]int{}
	for _, t := range data.Tasks {
		counts[t.Status]++
	}
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	for _, status := range models.AllStatuses {
		doc.CellFormat(0, 6, fmt.Sprintf("%-12s %d", status, counts[status]), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Tasks", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	for _, t := range data.Tasks {
		line := fmt.Sprintf("[%s] %s", t.Status, t.Title)
		if due, ok := t.DueAt(); ok {
			line += fmt.Sprintf(" (due %s)", due.Format("2006-01-02"))
		}
		doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	if err := doc.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write report pdf: %w", err)
	}
	return absPath, nil
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return filepath.Join(g.RootDir, filepath.Base(filename)), nil
}
