package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrEmptyTitle         = errors.New("title is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotSignedIn        = errors.New("no user signed in")
)

// MinPasswordLength is the shortest password accepted on sign up.
const MinPasswordLength = 6

// DateLayout is the wire and storage layout of a task deadline.
const DateLayout = "2006-01-02"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// IsValid reports whether s names one of the board columns.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// ParseTaskStatus converts a column id into a status.
func ParseTaskStatus(v string) (TaskStatus, error) {
	s := TaskStatus(v)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// User represents an account that owns tasks
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Task represents a card on the owner's board
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      TaskStatus `json:"status" db:"status"`
	Deadline    *Date      `json:"deadline" db:"deadline"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskPatch holds the columns one update writes. Nil fields keep their
// stored value.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *Priority
	Status        *TaskStatus
	Deadline      *Date
	ClearDeadline bool
}

// ApplyTo copies the set fields of p onto t.
func (p TaskPatch) ApplyTo(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearDeadline {
		t.Deadline = nil
	} else if p.Deadline != nil {
		d := *p.Deadline
		t.Deadline = &d
	}
}

// NewTask builds a task for owner with the creation defaults applied.
func NewTask(ownerID uuid.UUID, title string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Task{
		OwnerID:  ownerID,
		Title:    title,
		Priority: PriorityMedium,
		Status:   TaskStatusTodo,
	}, nil
}

// IsOverdue reports whether the deadline lies strictly before the calendar
// day of now and the task is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status == TaskStatusDone {
		return false
	}
	return t.Deadline.Before(DateOf(now))
}

// Matches reports whether the lowercased search term occurs in the title or
// description.
func (t *Task) Matches(search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}
