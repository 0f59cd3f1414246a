package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"taskdeck/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error

	// ListOpen returns every task outside done, ordered oldest first. The
	// background sweep feeds these to the suggester.
	ListOpen(ctx context.Context) ([]models.Task, error)

	// ReplaceWith stores the restored clone and, when the provider delete
	// succeeded, removes the original in the same transaction.
	ReplaceWith(ctx context.Context, originalID string, clone *models.Task, keepOriginal bool) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, external_id, title, description, priority, tags, collection, status,
       start_date, start_time, due_date, due_time,
       actual_start_date, actual_start_time, actual_end_date, actual_end_time,
       created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTask(ctx, tx, task); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, task); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTask(ctx context.Context, tx *sql.Tx, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := tx.ExecContext(ctx, query,
		task.ID, task.ExternalID, task.Title, task.Description, task.Priority,
		pq.Array(task.Tags), task.Collection, task.Status,
		task.StartDate, task.StartTime, task.DueDate, task.DueTime,
		task.ActualStartDate, task.ActualStartTime, task.ActualEndDate, task.ActualEndTime,
		task.CreatedAt, task.UpdatedAt,
	)
	return err
}

func insertChildren(ctx context.Context, tx *sql.Tx, task *models.Task) error {
	for i, st := range task.Subtasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subtasks (id, task_id, position, title, completed, required_completed)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			st.ID, task.ID, i, st.Title, st.Completed, st.RequiredCompleted,
		); err != nil {
			return err
		}
	}
	// Activity rows are append-only: existing entries are never touched.
	for _, entry := range task.ActivityLog {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_activity (id, task_id, action, details, user_id, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (id) DO NOTHING`,
			entry.ID, task.ID, entry.Action, entry.Details, entry.UserID, entry.Timestamp,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task not found")
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Collection != nil {
		conditions = append(conditions, fmt.Sprintf("collection = $%d", argID))
		args = append(args, *filter.Collection)
		argID++
	}
	if filter.Tag != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argID))
		args = append(args, *filter.Tag)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	return r.queryTasks(ctx, baseQuery, args...)
}

func (r *taskRepository) ListOpen(ctx context.Context) ([]models.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE status <> 'done' ORDER BY created_at ASC`
	return r.queryTasks(ctx, q)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tasks {
		if err := r.loadChildren(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID, &task.ExternalID, &task.Title, &task.Description, &task.Priority,
		pq.Array(&task.Tags), &task.Collection, &task.Status,
		&task.StartDate, &task.StartTime, &task.DueDate, &task.DueTime,
		&task.ActualStartDate, &task.ActualStartTime, &task.ActualEndDate, &task.ActualEndTime,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) loadChildren(ctx context.Context, task *models.Task) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, completed, required_completed FROM subtasks
		 WHERE task_id = $1 ORDER BY position ASC`, task.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var st models.Subtask
		if err := rows.Scan(&st.ID, &st.Title, &st.Completed, &st.RequiredCompleted); err != nil {
			return err
		}
		task.Subtasks = append(task.Subtasks, st)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	logRows, err := r.db.QueryContext(ctx,
		`SELECT id, action, details, user_id, created_at FROM task_activity
		 WHERE task_id = $1 ORDER BY created_at ASC, id ASC`, task.ID)
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		var entry models.ActivityEntry
		if err := logRows.Scan(&entry.ID, &entry.Action, &entry.Details, &entry.UserID, &entry.Timestamp); err != nil {
			return err
		}
		task.ActivityLog = append(task.ActivityLog, entry)
	}
	return logRows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE tasks SET
			external_id=$1, title=$2, description=$3, priority=$4, tags=$5,
			collection=$6, status=$7,
			start_date=$8, start_time=$9, due_date=$10, due_time=$11,
			actual_start_date=$12, actual_start_time=$13,
			actual_end_date=$14, actual_end_time=$15,
			updated_at=$16
		WHERE id=$17`
	if _, err := tx.ExecContext(ctx, query,
		task.ExternalID, task.Title, task.Description, task.Priority, pq.Array(task.Tags),
		task.Collection, task.Status,
		task.StartDate, task.StartTime, task.DueDate, task.DueTime,
		task.ActualStartDate, task.ActualStartTime, task.ActualEndDate, task.ActualEndTime,
		task.UpdatedAt, task.ID,
	); err != nil {
		return err
	}

	// Subtasks are replaced wholesale; activity rows only ever gain new ids.
	if _, err := tx.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, task); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) ReplaceWith(ctx context.Context, originalID string, clone *models.Task, keepOriginal bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTask(ctx, tx, clone); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, clone); err != nil {
		return err
	}
	if !keepOriginal {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, originalID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
