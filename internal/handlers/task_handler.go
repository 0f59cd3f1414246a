package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
	"taskdeck/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type subtaskRequest struct {
	Title             string `json:"title" binding:"required"`
	Completed         bool   `json:"completed"`
	RequiredCompleted bool   `json:"required_completed"`
}

// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"` // low|normal|high|urgent
		Tags        []string            `json:"tags"`
		Collection  string              `json:"collection"`
		Status      models.TaskStatus   `json:"status"`     // defaults to backlog
		StartDate   string              `json:"start_date"` // 2006-01-02
		StartTime   string              `json:"start_time"` // 15:04
		DueDate     string              `json:"due_date"`
		DueTime     string              `json:"due_time"`
		Subtasks    []subtaskRequest    `json:"subtasks"`
	}

	userID := getUserID(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date (2006-01-02)"})
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (2006-01-02)"})
		return
	}
	startTime, err := parseClock(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_time (15:04)"})
		return
	}
	dueTime, err := parseClock(req.DueTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_time (15:04)"})
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
		Collection:  req.Collection,
		Status:      req.Status,
		StartDate:   startDate,
		StartTime:   startTime,
		DueDate:     dueDate,
		DueTime:     dueTime,
	}
	for _, st := range req.Subtasks {
		task.Subtasks = append(task.Subtasks, models.Subtask{
			Title:             st.Title,
			Completed:         st.Completed,
			RequiredCompleted: st.RequiredCompleted,
		})
	}

	created, err := h.service.Create(c.Request.Context(), task, userID)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][create][ok] id=%s title=%q status=%s", created.ID, created.Title, created.Status)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /tasks?status=&collection=&tag=
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{}
	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		if !models.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Status = &status
	}
	if col := c.Query("collection"); col != "" {
		filter.Collection = &col
	}
	if tag := c.Query("tag"); tag != "" {
		filter.Tag = &tag
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"`
		Tags        []string            `json:"tags"`
		Collection  string              `json:"collection"`
		StartDate   string              `json:"start_date"`
		StartTime   string              `json:"start_time"`
		DueDate     string              `json:"due_date"`
		DueTime     string              `json:"due_time"`
		Subtasks    []models.Subtask    `json:"subtasks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err1 := parseDate(req.StartDate)
	dueDate, err2 := parseDate(req.DueDate)
	startTime, err3 := parseClock(req.StartTime)
	dueTime, err4 := parseClock(req.DueTime)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or time field"})
			return
		}
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
		Collection:  req.Collection,
		StartDate:   startDate,
		StartTime:   startTime,
		DueDate:     dueDate,
		DueTime:     dueTime,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		log.Printf("[task][update][err] id=%s %v", c.Param("id"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Resolve a transition
// @Description  Returns the guard verdict and any scenarios the user must answer before the transition can run
// @Tags         Transitions
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /tasks/{id}/transitions/{to} [get]
func (h *TaskHandler) ResolveTransition(c *gin.Context) {
	to := models.TaskStatus(c.Param("to"))
	if !models.IsValidStatus(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	guard, scenarios, err := h.service.ResolveTransition(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if scenarios == nil {
		scenarios = []engine.Scenario{}
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":     guard.IsValid,
		"message":   guard.Message,
		"scenarios": scenarios,
	})
}

// @Summary      Apply a transition
// @Description  Executes a status change with the options chosen for each scenario
// @Tags         Transitions
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.TransitionOutcome
// @Failure      409  {object}  map[string]string
// @Router       /tasks/{id}/transitions [post]
func (h *TaskHandler) ApplyTransition(c *gin.Context) {
	var req struct {
		To      models.TaskStatus `json:"to" binding:"required"`
		Options engine.Options    `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidStatus(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	id := c.Param("id")
	outcome, err := h.service.ApplyTransition(c.Request.Context(), id, req.To, req.Options, getUserID(c))
	if err != nil {
		log.Printf("[task][transition][err] id=%s to=%s %v", id, req.To, err)
		switch {
		case engine.IsGuardError(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, engine.ErrInvalidOption):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrScenarioUnresolved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GET /tasks/:id/suggestion
func (h *TaskHandler) Suggestion(c *gin.Context) {
	status, ok, err := h.service.Suggestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// PUT /tasks/:id/subtasks/:sid
func (h *TaskHandler) SetSubtask(c *gin.Context) {
	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.SetSubtaskCompleted(c.Request.Context(), c.Param("id"), c.Param("sid"), *req.Completed)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

// PUT /tasks/:id/schedule
func (h *TaskHandler) Reschedule(c *gin.Context) {
	var req struct {
		StartDate string `json:"start_date"`
		StartTime string `json:"start_time"`
		DueDate   string `json:"due_date"`
		DueTime   string `json:"due_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err1 := parseDate(req.StartDate)
	dueDate, err2 := parseDate(req.DueDate)
	startTime, err3 := parseClock(req.StartTime)
	dueTime, err4 := parseClock(req.DueTime)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or time field"})
			return
		}
	}

	task, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), startDate, dueDate, startTime, dueTime)
	if err != nil {
		log.Printf("[task][schedule][err] id=%s %v", c.Param("id"), err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}
