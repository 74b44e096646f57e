package board

import (
	"strings"
	"time"

	"github.com/taskmaster/kanban/internal/domain/entities"
)

// Filter narrows a board snapshot. Zero values mean the filter is not applied.
type Filter struct {
	Status      entities.TaskStatus
	Search      string
	OverdueOnly bool
}

// ByStatus returns the tasks in the given column, keeping their order.
func ByStatus(tasks []entities.Task, status entities.TaskStatus) []entities.Task {
	return Apply(tasks, Filter{Status: status}, time.Time{})
}

// Apply filters by status, then search text, then overdue as of now. The
// relative order of tasks is preserved.
func Apply(tasks []entities.Task, f Filter, now time.Time) []entities.Task {
	search := strings.TrimSpace(f.Search)
	out := make([]entities.Task, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if !t.Matches(search) {
			continue
		}
		if f.OverdueOnly && !t.IsOverdue(now) {
			continue
		}
		out = append(out, *t)
	}
	return out
}
