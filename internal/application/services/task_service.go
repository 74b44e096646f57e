package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// TaskService writes tasks to the store and announces each committed
// change on the live feed. It never holds board state itself.
type TaskService struct {
	taskRepo  ports.TaskRepository
	publisher ports.ChangePublisher
	audit     ports.AuditPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, publisher ports.ChangePublisher, audit ports.AuditPublisher, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		audit:     audit,
		logger:    logger.WithComponent("tasks"),
		now:       time.Now,
	}
}

// CreateTask stores a new task for owner with creation defaults applied.
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	task, err := entities.NewTask(ownerID, req.Title)
	if err != nil {
		return nil, entities.NewWriteError("create", "", err)
	}
	task.Description = req.Description
	task.Deadline = req.Deadline.OrNil()
	if req.Priority != "" {
		if !req.Priority.IsValid() {
			return nil, entities.NewWriteError("create", "", entities.ErrInvalidPriority)
		}
		task.Priority = req.Priority
	}
	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, entities.NewWriteError("create", "", entities.ErrInvalidStatus)
		}
		task.Status = req.Status
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.logger.LogTaskWrite("create", ownerID.String(), 0, err)
		return nil, entities.NewWriteError("create", "", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "owner_id", ownerID, "status", task.Status)
	s.committed(ctx, ports.AuditTaskCreated, ownerID, []uuid.UUID{task.ID}, task)

	return task, nil
}

// UpdateTask writes the non-nil fields of req. Fields left nil are not
// touched in the store, so a status change never rewrites the title or a
// concurrent edit of it.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	patch := entities.TaskPatch{Description: req.Description}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, entities.NewWriteError("update", id.String(), entities.ErrEmptyTitle)
		}
		patch.Title = &title
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.NewWriteError("update", id.String(), entities.ErrInvalidPriority)
		}
		patch.Priority = req.Priority
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, entities.NewWriteError("update", id.String(), entities.ErrInvalidStatus)
		}
		patch.Status = req.Status
	}
	if req.ClearDeadline || (req.Deadline != nil && req.Deadline.IsZero()) {
		patch.ClearDeadline = true
	} else {
		patch.Deadline = req.Deadline
	}

	task, err := s.taskRepo.Update(ctx, ownerID, id, patch)
	if err != nil {
		s.logger.LogTaskWrite("update", ownerID.String(), 0, err)
		return nil, entities.NewWriteError("update", id.String(), err)
	}

	s.logger.Infow("Task updated", "task_id", id, "owner_id", ownerID)
	s.committed(ctx, ports.AuditTaskUpdated, ownerID, []uuid.UUID{id}, req)

	return task, nil
}

// SetStatus moves a task to another column.
func (s *TaskService) SetStatus(ctx context.Context, ownerID, id uuid.UUID, status entities.TaskStatus) error {
	_, err := s.UpdateTask(ctx, ownerID, id, ports.UpdateTaskRequest{Status: &status})
	return err
}

// DeleteTask removes one task.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, ownerID, id); err != nil {
		s.logger.LogTaskWrite("delete", ownerID.String(), 0, err)
		return entities.NewWriteError("delete", id.String(), err)
	}

	s.logger.Infow("Task deleted", "task_id", id, "owner_id", ownerID)
	s.committed(ctx, ports.AuditTaskDeleted, ownerID, []uuid.UUID{id}, nil)

	return nil
}

// BulkDelete removes ids in a single all-or-nothing transaction. An empty
// list returns 0 without touching the store.
func (s *TaskService) BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.taskRepo.BulkDelete(ctx, ownerID, ids)
	if err != nil {
		s.logger.LogTaskWrite("bulk_delete", ownerID.String(), 0, err)
		return 0, entities.NewWriteError("bulk delete", "", err)
	}

	s.logger.LogTaskWrite("bulk_delete", ownerID.String(), n, nil)
	s.committed(ctx, ports.AuditTaskBulkDeleted, ownerID, ids, nil)

	return n, nil
}

// ListTasks reads the owner's board and applies filter to it.
func (s *TaskService) ListTasks(ctx context.Context, ownerID uuid.UUID, filter board.Filter) ([]entities.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return board.Apply(tasks, filter, s.now()), nil
}

// Statistics counts the owner's tasks as of now.
func (s *TaskService) Statistics(ctx context.Context, ownerID uuid.UUID) (board.Statistics, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return board.Statistics{}, err
	}
	return board.ComputeStatistics(tasks, s.now()), nil
}

// committed announces a successful write. The write already succeeded, so
// notification failures are logged and not returned.
func (s *TaskService) committed(ctx context.Context, action ports.AuditAction, ownerID uuid.UUID, ids []uuid.UUID, changes interface{}) {
	if err := s.publisher.PublishChange(ctx, ownerID); err != nil {
		s.logger.Errorw("Failed to publish task change", "owner_id", ownerID, "error", err)
	}

	event := ports.AuditEvent{
		Action:     action,
		OwnerID:    ownerID,
		TaskIDs:    ids,
		Changes:    changes,
		OccurredAt: s.now().UTC(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Warnw("Failed to publish audit event", "action", action, "owner_id", ownerID, "error", err)
	}
}

var _ ports.TaskService = (*TaskService)(nil)
