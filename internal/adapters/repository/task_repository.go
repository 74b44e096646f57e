package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const taskColumns = `id, owner_id, title, description, priority, status, deadline, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (owner_id, title, description, priority, status, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Title, task.Description, task.Priority, task.Status, task.Deadline,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

// Update sets the patched columns in a single statement, so fields the
// caller did not send are never rewritten from a stale read.
func (r *TaskRepositoryImpl) Update(ctx context.Context, ownerID, id uuid.UUID, patch entities.TaskPatch) (*entities.Task, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.ClearDeadline {
		set("deadline", nil)
	} else if patch.Deadline != nil {
		set("deadline", *patch.Deadline)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id, ownerID)
	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d AND owner_id = $%d RETURNING `+taskColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if rows == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

// BulkDelete deletes every id or, if any of them is missing, none.
func (r *TaskRepositoryImpl) BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, nil
	}

	var deleted int
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE owner_id = $1 AND id = ANY($2::uuid[])`,
			ownerID, pq.StringArray(unique),
		)
		if err != nil {
			return fmt.Errorf("bulk delete tasks: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("bulk delete tasks: %w", err)
		}
		if int(rows) != len(unique) {
			return fmt.Errorf("bulk delete tasks: %d of %d found: %w", rows, len(unique), entities.ErrTaskNotFound)
		}
		deleted = int(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	tasks := []entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, ownerID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func dedupe(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	return out
}
