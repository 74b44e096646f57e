package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
)

// openTestDB connects to KANBAN_TEST_DSN and migrates it. Tests are skipped
// when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("KANBAN_TEST_DSN")
	if dsn == "" {
		t.Skip("KANBAN_TEST_DSN not set")
	}

	raw, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	driver, err := postgres.WithInstance(raw.DB, &postgres.Config{})
	if err != nil {
		t.Fatalf("migration driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}

	return database.Wrap(raw)
}

func createOwner(t *testing.T, db *database.DB) uuid.UUID {
	t.Helper()
	user := &entities.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
	if err := NewUserRepository(db.DB).Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func TestTaskRepositoryLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db)

	deadline, _ := entities.ParseDate("2020-01-01")
	var created []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		task, _ := entities.NewTask(owner, title)
		task.Deadline = &deadline
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		if task.ID == uuid.Nil || task.CreatedAt.IsZero() {
			t.Fatalf("store did not assign id/timestamps: %+v", task)
		}
		created = append(created, task.ID)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != created[2] || list[2].ID != created[0] {
		t.Fatalf("list not ordered by created_at desc: %+v", list)
	}
	if list[0].Deadline == nil || list[0].Deadline.String() != "2020-01-01" {
		t.Fatalf("deadline round trip: %v", list[0].Deadline)
	}

	task := list[0]
	done := entities.TaskStatusDone
	updated, err := repo.Update(ctx, owner, task.ID, entities.TaskPatch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != done || updated.Title != task.Title || updated.Deadline == nil {
		t.Fatalf("status-only update changed other columns: %+v", updated)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Fatal("updated_at not refreshed")
	}

	renamed := "renamed"
	updated, err = repo.Update(ctx, owner, task.ID, entities.TaskPatch{Title: &renamed, ClearDeadline: true})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if updated.Title != renamed || updated.Deadline != nil || updated.Status != done {
		t.Fatalf("rename: %+v", updated)
	}

	if _, err := repo.Update(ctx, uuid.New(), task.ID, entities.TaskPatch{Status: &done}); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("update foreign task: %v", err)
	}

	// A missing id rejects the whole batch.
	if _, err := repo.BulkDelete(ctx, owner, []uuid.UUID{created[0], uuid.New()}); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("bulk delete with missing id: %v", err)
	}
	if list, _ := repo.ListByOwner(ctx, owner); len(list) != 3 {
		t.Fatalf("partial bulk delete left %d tasks", len(list))
	}

	n, err := repo.BulkDelete(ctx, owner, []uuid.UUID{created[0], created[1], created[0]})
	if err != nil || n != 2 {
		t.Fatalf("bulk delete: n=%d err=%v", n, err)
	}

	if err := repo.Delete(ctx, owner, created[2]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, owner, created[2]); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db.DB)
	ctx := context.Background()

	email := uuid.NewString() + "@Example.com"
	if err := repo.Create(ctx, &entities.User{Email: email, PasswordHash: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &entities.User{Email: email, PasswordHash: "y"}); !errors.Is(err, entities.ErrEmailTaken) {
		t.Fatalf("duplicate: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, email); err != nil {
		t.Fatalf("lookup is case-insensitive: %v", err)
	}
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := dedupe([]uuid.UUID{a, b, a, a})
	if len(got) != 2 || got[0] != a.String() || got[1] != b.String() {
		t.Fatalf("dedupe = %v", got)
	}
	if len(dedupe(nil)) != 0 {
		t.Fatal("dedupe(nil) not empty")
	}
}
