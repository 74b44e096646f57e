package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

func newTaskSync(feed *FakeFeed, repo *MockTaskRepository) *TaskSync {
	svc := NewTaskService(repo, &MockPublisher{}, &MockAudit{}, logger.NewNop())
	return NewTaskSync(feed, svc, logger.NewNop())
}

func task(title string, status entities.TaskStatus) entities.Task {
	return entities.Task{ID: uuid.New(), Title: title, Status: status, Priority: entities.PriorityMedium}
}

func TestSubscribeNilOwnerEmptiesBoard(t *testing.T) {
	feed := NewFakeFeed()
	feed.Initial = []entities.Task{task("a", entities.TaskStatusTodo)}
	sync := newTaskSync(feed, &MockTaskRepository{})
	owner := uuid.New()

	if _, err := sync.Subscribe(context.Background(), owner); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(sync.Snapshot()) != 1 {
		t.Fatalf("initial snapshot = %d tasks", len(sync.Snapshot()))
	}

	if _, err := sync.Subscribe(context.Background(), uuid.Nil); err != nil {
		t.Fatalf("Subscribe(nil): %v", err)
	}
	if len(sync.Snapshot()) != 0 || sync.OwnerID() != uuid.Nil {
		t.Fatalf("board not emptied: %v", sync.Snapshot())
	}
	if got := feed.Opened(); len(got) != 1 {
		t.Fatalf("feed opened %d subscriptions, want 1", len(got))
	}
	if got := feed.Canceled(); len(got) != 1 || got[0] != owner {
		t.Fatalf("canceled = %v", got)
	}
}

func TestPushReplacesSnapshotWholesale(t *testing.T) {
	feed := NewFakeFeed()
	feed.Initial = []entities.Task{task("a", entities.TaskStatusTodo), task("b", entities.TaskStatusDone)}
	sync := newTaskSync(feed, &MockTaskRepository{})
	owner := uuid.New()

	if _, err := sync.Subscribe(context.Background(), owner); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	<-sync.Changes()

	next := []entities.Task{task("c", entities.TaskStatusInProgress)}
	feed.Push(owner, next)

	select {
	case <-sync.Changes():
	default:
		t.Fatal("no change signal after push")
	}
	got := sync.Snapshot()
	if len(got) != 1 || got[0].Title != "c" {
		t.Fatalf("snapshot = %+v", got)
	}
	if stats := sync.Statistics(); stats.Total != 1 || stats.InProgress != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStaleSubscriptionIsIgnored(t *testing.T) {
	feed := NewFakeFeed()
	sync := newTaskSync(feed, &MockTaskRepository{})
	first, second := uuid.New(), uuid.New()

	if _, err := sync.Subscribe(context.Background(), first); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := sync.Subscribe(context.Background(), second); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	feed.Push(first, []entities.Task{task("stale", entities.TaskStatusTodo)})
	if len(sync.Snapshot()) != 0 {
		t.Fatalf("stale push applied: %+v", sync.Snapshot())
	}

	feed.Push(second, []entities.Task{task("fresh", entities.TaskStatusTodo)})
	if got := sync.Snapshot(); len(got) != 1 || got[0].Title != "fresh" {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestSubscribeFailureLeavesBoardSignedOut(t *testing.T) {
	feed := NewFakeFeed()
	feed.SubscribeErr = errors.New("redis down")
	sync := newTaskSync(feed, &MockTaskRepository{})

	if _, err := sync.Subscribe(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
	if sync.OwnerID() != uuid.Nil {
		t.Fatal("owner kept after failed subscribe")
	}
}

func TestWritesDoNotTouchLocalList(t *testing.T) {
	feed := NewFakeFeed()
	existing := task("a", entities.TaskStatusTodo)
	feed.Initial = []entities.Task{existing}
	repo := &MockTaskRepository{}
	sync := newTaskSync(feed, repo)

	if _, err := sync.Subscribe(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := sync.Create(context.Background(), ports.CreateTaskRequest{Title: "new"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sync.Delete(context.Background(), existing.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := sync.Snapshot()
	if len(got) != 1 || got[0].ID != existing.ID {
		t.Fatalf("local list changed by writes: %+v", got)
	}
}

func TestWritesWithoutOwnerAreAuthErrors(t *testing.T) {
	repo := &MockTaskRepository{}
	sync := newTaskSync(NewFakeFeed(), repo)

	_, err := sync.Create(context.Background(), ports.CreateTaskRequest{Title: "x"})
	if !entities.IsAuthError(err) || !errors.Is(err, entities.ErrNotSignedIn) {
		t.Fatalf("err = %v", err)
	}
	if err := sync.SetStatus(context.Background(), uuid.New(), entities.TaskStatusDone); !entities.IsAuthError(err) {
		t.Fatalf("err = %v", err)
	}
	if len(repo.Calls()) != 0 {
		t.Fatalf("store called: %v", repo.Calls())
	}
}

func TestSyncBulkDeleteEmpty(t *testing.T) {
	repo := &MockTaskRepository{}
	sync := newTaskSync(NewFakeFeed(), repo)

	n, err := sync.BulkDelete(context.Background(), nil)
	if n != 0 || err != nil {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(repo.Calls()) != 0 {
		t.Fatalf("store called: %v", repo.Calls())
	}
}

func TestMoveIssuesAtMostOneWrite(t *testing.T) {
	feed := NewFakeFeed()
	card := task("a", entities.TaskStatusTodo)
	feed.Initial = []entities.Task{card}
	var updates []entities.TaskStatus
	repo := &MockTaskRepository{
		UpdateFunc: func(_ context.Context, _, _ uuid.UUID, patch entities.TaskPatch) (*entities.Task, error) {
			updates = append(updates, *patch.Status)
			cp := card
			patch.ApplyTo(&cp)
			return &cp, nil
		},
	}
	sync := newTaskSync(feed, repo)
	if _, err := sync.Subscribe(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	src := board.Position{ColumnID: "todo", Index: 0}

	moved, err := sync.Move(context.Background(), board.DragEvent{TaskID: card.ID, Source: src})
	if moved || err != nil {
		t.Fatalf("cancelled drag: moved=%v err=%v", moved, err)
	}
	moved, err = sync.Move(context.Background(), board.DragEvent{TaskID: card.ID, Source: src, Destination: &src})
	if moved || err != nil {
		t.Fatalf("drop in place: moved=%v err=%v", moved, err)
	}
	moved, err = sync.Move(context.Background(), board.DragEvent{
		TaskID: card.ID, Source: src, Destination: &board.Position{ColumnID: "done", Index: 2},
	})
	if !moved || err != nil {
		t.Fatalf("cross-column drag: moved=%v err=%v", moved, err)
	}
	if len(updates) != 1 || updates[0] != entities.TaskStatusDone {
		t.Fatalf("updates = %v", updates)
	}
	if sync.Snapshot()[0].Status != entities.TaskStatusTodo {
		t.Fatal("move mutated local list")
	}
}

func TestDeleteSelection(t *testing.T) {
	feed := NewFakeFeed()
	a, b := task("a", entities.TaskStatusTodo), task("b", entities.TaskStatusDone)
	feed.Initial = []entities.Task{a, b}
	var deleted []uuid.UUID
	repo := &MockTaskRepository{
		BulkDeleteFunc: func(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (int, error) {
			deleted = ids
			return len(ids), nil
		},
	}
	sync := newTaskSync(feed, repo)
	if _, err := sync.Subscribe(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sel := board.NewSelection()
	if err := sel.ToggleMode(); err != nil {
		t.Fatalf("ToggleMode: %v", err)
	}
	if err := sel.Toggle(b.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	n, err := sync.DeleteSelection(context.Background(), sel)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(deleted) != 1 || deleted[0] != b.ID {
		t.Fatalf("deleted = %v", deleted)
	}
	if sel.State() != board.Browsing || len(sel.Selected()) != 0 {
		t.Fatalf("selection after delete: %v %v", sel.State(), sel.Selected())
	}
}

func TestFilteredTasksKeepsSnapshotOrder(t *testing.T) {
	feed := NewFakeFeed()
	feed.Initial = []entities.Task{
		task("3", entities.TaskStatusTodo),
		task("2", entities.TaskStatusDone),
		task("1", entities.TaskStatusTodo),
	}
	sync := newTaskSync(feed, &MockTaskRepository{})
	if _, err := sync.Subscribe(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	todo := sync.FilteredTasks(entities.TaskStatusTodo)
	if len(todo) != 2 || todo[0].Title != "3" || todo[1].Title != "1" {
		t.Fatalf("todo = %+v", todo)
	}
	if len(sync.FilteredTasks(entities.TaskStatusInProgress)) != 0 {
		t.Fatal("in progress should be empty")
	}
}

func TestSearchFiltersSnapshot(t *testing.T) {
	feed := NewFakeFeed()
	feed.Initial = []entities.Task{
		task("Write report", entities.TaskStatusTodo),
		task("Read mail", entities.TaskStatusDone),
		task("report numbers", entities.TaskStatusDone),
	}
	sync := newTaskSync(feed, &MockTaskRepository{})
	if _, err := sync.Subscribe(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	got := sync.Search(board.Filter{Search: "REPORT"})
	if len(got) != 2 || got[0].Title != "Write report" || got[1].Title != "report numbers" {
		t.Fatalf("search = %+v", got)
	}
	got = sync.Search(board.Filter{Search: "report", Status: entities.TaskStatusDone})
	if len(got) != 1 || got[0].Title != "report numbers" {
		t.Fatalf("search done = %+v", got)
	}
}
