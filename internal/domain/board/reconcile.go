package board

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
)

// Position is a slot on the board: a column id and an index inside it.
type Position struct {
	ColumnID string `json:"column_id" validate:"required"`
	Index    int    `json:"index" validate:"min=0"`
}

// DragEvent is a completed drag of one card. Destination is nil when the
// drag was cancelled.
type DragEvent struct {
	TaskID      uuid.UUID `json:"task_id" validate:"required"`
	Source      Position  `json:"source"`
	Destination *Position `json:"destination"`
}

// StatusWriter persists a status change for one task.
type StatusWriter func(ctx context.Context, taskID uuid.UUID, status entities.TaskStatus) error

// Move is the single write a drag resolves to.
type Move struct {
	TaskID uuid.UUID
	Status entities.TaskStatus
}

// Plan resolves a drag into at most one status write. It returns false for
// cancelled drags and drops back onto the original slot. Index changes
// inside a column are not persisted.
func Plan(ev DragEvent) (Move, bool, error) {
	if ev.Destination == nil {
		return Move{}, false, nil
	}
	if ev.Destination.ColumnID == ev.Source.ColumnID && ev.Destination.Index == ev.Source.Index {
		return Move{}, false, nil
	}
	status, err := entities.ParseTaskStatus(ev.Destination.ColumnID)
	if err != nil {
		return Move{}, false, err
	}
	return Move{TaskID: ev.TaskID, Status: status}, true, nil
}

// Reconcile applies the drag through write. It reports whether a write was
// issued.
func Reconcile(ctx context.Context, ev DragEvent, write StatusWriter) (bool, error) {
	mv, ok, err := Plan(ev)
	if err != nil || !ok {
		return false, err
	}
	if err := write(ctx, mv.TaskID, mv.Status); err != nil {
		return true, err
	}
	return true, nil
}
