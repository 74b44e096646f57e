package entities

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustDate(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return &d
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		status   TaskStatus
		deadline *Date
		want     bool
	}{
		{"no deadline", TaskStatusTodo, nil, false},
		{"past deadline", TaskStatusTodo, mustDate(t, "2024-03-09"), true},
		{"past deadline in progress", TaskStatusInProgress, mustDate(t, "2020-01-01"), true},
		{"due today", TaskStatusTodo, mustDate(t, "2024-03-10"), false},
		{"future deadline", TaskStatusTodo, mustDate(t, "2024-03-11"), false},
		{"done is never overdue", TaskStatusDone, mustDate(t, "2020-01-01"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := &Task{Status: tc.status, Deadline: tc.deadline}
			if got := task.IsOverdue(now); got != tc.want {
				t.Fatalf("IsOverdue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewTaskDefaults(t *testing.T) {
	owner := uuid.New()
	task, err := NewTask(owner, "  write report  ")
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if task.Title != "write report" {
		t.Errorf("title not trimmed: %q", task.Title)
	}
	if task.Status != TaskStatusTodo {
		t.Errorf("status = %s, want todo", task.Status)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("priority = %s, want medium", task.Priority)
	}
	if task.OwnerID != owner {
		t.Errorf("owner not stamped")
	}

	if _, err := NewTask(owner, "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("blank title: got %v, want ErrEmptyTitle", err)
	}
}

func TestTaskMatches(t *testing.T) {
	task := &Task{Title: "Quarterly Report", Description: "send to Finance"}
	for _, q := range []string{"", "report", "QUARTER", "finance"} {
		if !task.Matches(q) {
			t.Errorf("expected match for %q", q)
		}
	}
	if task.Matches("invoice") {
		t.Error("unexpected match for invoice")
	}
}

func TestDateJSON(t *testing.T) {
	var task Task
	if err := json.Unmarshal([]byte(`{"deadline":"2020-01-01"}`), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Deadline == nil || task.Deadline.String() != "2020-01-01" {
		t.Fatalf("deadline = %v", task.Deadline)
	}

	if err := json.Unmarshal([]byte(`{"deadline":"01/02/2020"}`), &task); err == nil {
		t.Fatal("expected error for malformed date")
	}

	var blank Task
	if err := json.Unmarshal([]byte(`{"deadline":""}`), &blank); err != nil {
		t.Fatalf("empty deadline: %v", err)
	}
	if blank.Deadline.OrNil() != nil {
		t.Fatalf("empty deadline decoded to %v", blank.Deadline)
	}
	var none *Date
	if none.OrNil() != nil {
		t.Fatal("nil date not nil")
	}
}

func TestTaskPatchApplyTo(t *testing.T) {
	task := Task{Title: "keep", Status: TaskStatusTodo, Deadline: mustDate(t, "2020-01-01")}
	done := TaskStatusDone
	TaskPatch{Status: &done}.ApplyTo(&task)
	if task.Title != "keep" || task.Status != done || task.Deadline == nil {
		t.Fatalf("status patch: %+v", task)
	}

	TaskPatch{ClearDeadline: true, Deadline: mustDate(t, "2030-01-01")}.ApplyTo(&task)
	if task.Deadline != nil {
		t.Fatal("clear must win over a new deadline")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2021, time.July, 4, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2021-07-04" {
		t.Fatalf("got %s", d)
	}
	if err := d.Scan([]byte("2022-12-31")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if d.String() != "2022-12-31" {
		t.Fatalf("got %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}

func TestWriteErrorWrapsNotFound(t *testing.T) {
	err := NewWriteError("update", "abc", ErrTaskNotFound)
	if !IsWriteError(err) {
		t.Fatal("expected WriteError")
	}
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatal("NotFound lost through WriteError")
	}
	if again := NewWriteError("delete", "abc", err); again != err {
		t.Fatal("WriteError wrapped twice")
	}
	if IsAuthError(err) {
		t.Fatal("WriteError reported as AuthError")
	}
}
