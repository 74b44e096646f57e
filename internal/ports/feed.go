package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/kanban/internal/domain/entities"
)

// TaskFeed is the live query over one owner's tasks. Subscribe delivers the
// complete ordered result set once and again after every change, until ctx
// is done or the returned cancel function is called.
type TaskFeed interface {
	Subscribe(ctx context.Context, ownerID uuid.UUID, onSnapshot func(tasks []entities.Task)) (cancel func(), err error)
}

// ChangePublisher announces that an owner's tasks changed.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ownerID uuid.UUID) error
}

// AuditAction names a task mutation in the audit trail.
type AuditAction string

const (
	AuditTaskCreated     AuditAction = "task.created"
	AuditTaskUpdated     AuditAction = "task.updated"
	AuditTaskDeleted     AuditAction = "task.deleted"
	AuditTaskBulkDeleted AuditAction = "task.bulk_deleted"
)

// AuditEvent describes one committed task mutation.
type AuditEvent struct {
	Action     AuditAction `json:"action"`
	OwnerID    uuid.UUID   `json:"owner_id"`
	TaskIDs    []uuid.UUID `json:"task_ids"`
	Changes    interface{} `json:"changes,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// AuditPublisher ships audit events to an external sink.
type AuditPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
	Close() error
}
