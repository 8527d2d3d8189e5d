package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/pkg/database"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

const taskColumns = `id, title, description, completed, created_at, updated_at`

// TaskRepository implements repository.TaskRepository using PostgreSQL.
type TaskRepository struct {
	db database.DBTX
}

// NewTaskRepository creates a new PostgreSQL-backed task repository.
func NewTaskRepository(db database.DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (err error) {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "CreateTask", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, t.ID, t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (_ *domain.Task, err error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetTask", query)
	defer func() { end(err) }()

	var t domain.Task
	err = r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}

// Update overwrites the mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) (err error) {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, updated_at = $4
		WHERE id = $5`

	ctx, end := database.TraceQuery(ctx, "UpdateTask", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, t.Title, t.Description, t.Completed, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM tasks WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteTask", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns tasks newest first.
func (r *TaskRepository) List(ctx context.Context, filter domain.TaskFilter) (_ []domain.Task, _ int, err error) {
	var where whereBuilder
	if filter.Completed != nil {
		where.add("completed = $%d", *filter.Completed)
	}
	args, limitIdx, offsetIdx := where.pageArgs(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM tasks
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		taskColumns, where.clause(), limitIdx, offsetIdx,
	)

	ctx, end := database.TraceQuery(ctx, "ListTasks", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var (
		tasks = []domain.Task{}
		total int
	)
	for rows.Next() {
		var t domain.Task
		if err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate task rows: %w", err)
	}

	if len(tasks) == 0 && filter.Offset > 0 {
		total, err = countRows(ctx, r.db, "tasks", &where)
		if err != nil {
			return nil, 0, err
		}
	}

	return tasks, total, nil
}
