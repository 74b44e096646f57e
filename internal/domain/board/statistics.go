// Package board holds the pure board rules: aggregate counters, column
// filters, drag reconciliation and the bulk selection workflow.
package board

import (
	"time"

	"github.com/taskmaster/kanban/internal/domain/entities"
)

// Statistics are the aggregate counters shown next to the board.
type Statistics struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

// ComputeStatistics counts tasks per status and the overdue ones as of now.
func ComputeStatistics(tasks []entities.Task, now time.Time) Statistics {
	stats := Statistics{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].Status {
		case entities.TaskStatusTodo:
			stats.Todo++
		case entities.TaskStatusInProgress:
			stats.InProgress++
		case entities.TaskStatusDone:
			stats.Done++
		}
		if tasks[i].IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}
