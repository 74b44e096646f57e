package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// TaskSync is the board state of one session. It mirrors the owner's tasks
// as delivered by the live feed and forwards writes to the task service.
// Writes never touch the local list: it changes only when the feed pushes.
type TaskSync struct {
	feed   ports.TaskFeed
	tasks  ports.TaskService
	logger *logger.Logger
	now    func() time.Time

	mu         sync.RWMutex
	ownerID    uuid.UUID
	snapshot   []entities.Task
	generation uint64
	cancel     func()
	changed    chan struct{}
}

// NewTaskSync creates an empty, unsubscribed board.
func NewTaskSync(feed ports.TaskFeed, tasks ports.TaskService, logger *logger.Logger) *TaskSync {
	return &TaskSync{
		feed:    feed,
		tasks:   tasks,
		logger:  logger.WithComponent("sync"),
		now:     time.Now,
		changed: make(chan struct{}, 1),
	}
}

// Subscribe starts mirroring ownerID's tasks and drops any previous
// subscription. A nil owner empties the board without subscribing.
func (s *TaskSync) Subscribe(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	prev := s.cancel
	s.cancel = nil
	s.ownerID = ownerID
	s.snapshot = nil
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	s.notify()

	if ownerID == uuid.Nil {
		return func() {}, nil
	}

	cancel, err := s.feed.Subscribe(ctx, ownerID, func(tasks []entities.Task) {
		s.replace(gen, tasks)
	})
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.ownerID = uuid.Nil
		}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	if s.generation != gen {
		// Superseded while the feed was opening.
		s.mu.Unlock()
		cancel()
		return func() {}, nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Infow("Board subscribed", "owner_id", ownerID)
	return cancel, nil
}

// Close cancels the live subscription and empties the board.
func (s *TaskSync) Close() {
	_, _ = s.Subscribe(context.Background(), uuid.Nil)
}

func (s *TaskSync) replace(gen uint64, tasks []entities.Task) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.snapshot = tasks
	s.mu.Unlock()
	s.notify()
}

func (s *TaskSync) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Changes signals after every snapshot replacement. Signals coalesce.
func (s *TaskSync) Changes() <-chan struct{} {
	return s.changed
}

// OwnerID returns the subscribed owner or uuid.Nil.
func (s *TaskSync) OwnerID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// Snapshot returns a copy of the current task list.
func (s *TaskSync) Snapshot() []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Task, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Statistics counts the current snapshot.
func (s *TaskSync) Statistics() board.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return board.ComputeStatistics(s.snapshot, s.now())
}

// FilteredTasks returns the snapshot tasks in one column.
func (s *TaskSync) FilteredTasks(status entities.TaskStatus) []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return board.ByStatus(s.snapshot, status)
}

// Search applies a filter to the snapshot.
func (s *TaskSync) Search(f board.Filter) []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return board.Apply(s.snapshot, f, s.now())
}

// BoardSnapshot returns the tasks and their statistics from one read.
func (s *TaskSync) BoardSnapshot() ports.BoardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]entities.Task, len(s.snapshot))
	copy(tasks, s.snapshot)
	return ports.BoardSnapshot{
		Tasks:      tasks,
		Statistics: board.ComputeStatistics(tasks, s.now()),
	}
}

func (s *TaskSync) owner() (uuid.UUID, error) {
	id := s.OwnerID()
	if id == uuid.Nil {
		return uuid.Nil, entities.NewAuthError("session", entities.ErrNotSignedIn)
	}
	return id, nil
}

func (s *TaskSync) Create(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	return s.tasks.CreateTask(ctx, owner, req)
}

func (s *TaskSync) Update(ctx context.Context, id uuid.UUID, req ports.UpdateTaskRequest) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}
	_, err = s.tasks.UpdateTask(ctx, owner, id, req)
	return err
}

func (s *TaskSync) Delete(ctx context.Context, id uuid.UUID) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}
	return s.tasks.DeleteTask(ctx, owner, id)
}

// BulkDelete removes ids atomically. An empty list returns 0 without a call.
func (s *TaskSync) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	owner, err := s.owner()
	if err != nil {
		return 0, err
	}
	return s.tasks.BulkDelete(ctx, owner, ids)
}

func (s *TaskSync) SetStatus(ctx context.Context, id uuid.UUID, status entities.TaskStatus) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}
	return s.tasks.SetStatus(ctx, owner, id, status)
}

// Move resolves a drag into at most one status write.
func (s *TaskSync) Move(ctx context.Context, ev board.DragEvent) (bool, error) {
	return board.Reconcile(ctx, ev, s.SetStatus)
}

// DeleteSelection runs the selection's bulk delete against this board.
func (s *TaskSync) DeleteSelection(ctx context.Context, sel *board.Selection) (int, error) {
	return sel.ConfirmDelete(ctx, s.BulkDelete)
}
