package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"depot-api/domain"
)

func newTestTasks(t *testing.T) (*Tasks, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks_db.json")
	tasks, err := OpenTasks(path)
	if err != nil {
		t.Fatalf("open tasks: %v", err)
	}
	return tasks, path
}

// countOccurrences reports how many (status, assignee) buckets hold the task.
func countOccurrences(t *testing.T, tasks *Tasks, id string) int {
	t.Helper()
	n := 0
	for _, byUser := range tasks.All() {
		for _, list := range byUser {
			for _, task := range list {
				if task.ID == id {
					n++
				}
			}
		}
	}
	return n
}

func TestCreateStartsInTodo(t *testing.T) {
	tasks, _ := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "count the apples", Description: "aisle 4", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected todo, got %s", task.Status)
	}
	if task.ID == "" {
		t.Fatal("expected a generated id")
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}
	board := tasks.All()
	if got := len(board[domain.StatusTodo]["alice"]); got != 1 {
		t.Fatalf("expected 1 todo task for alice, got %d", got)
	}
	if countOccurrences(t, tasks, task.ID) != 1 {
		t.Fatal("task not in exactly one bucket")
	}
}

func TestCreateRequiresTitleAndAssignee(t *testing.T) {
	tasks, _ := newTestTasks(t)
	if _, err := tasks.Create(domain.TaskCreate{AssignedTo: "alice"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing title: expected ErrInvalid, got %v", err)
	}
	if _, err := tasks.Create(domain.TaskCreate{Title: "x"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing assignee: expected ErrInvalid, got %v", err)
	}
}

func TestUpdateStatusRelocatesBucket(t *testing.T) {
	tasks, _ := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	status := domain.StatusInProgress
	updated, prev, err := tasks.Update(task.ID, domain.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if prev != domain.StatusTodo {
		t.Fatalf("expected previous status todo, got %s", prev)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", updated.Status)
	}
	board := tasks.All()
	if len(board[domain.StatusTodo]["alice"]) != 0 {
		t.Fatal("task still present in todo bucket")
	}
	if len(board[domain.StatusInProgress]["alice"]) != 1 {
		t.Fatal("task missing from in_progress bucket")
	}
	if countOccurrences(t, tasks, task.ID) != 1 {
		t.Fatal("task not in exactly one bucket after relocation")
	}
}

func TestUpdateAssigneeRelocatesWithinStatus(t *testing.T) {
	tasks, _ := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	assignee := "bob"
	updated, _, err := tasks.Update(task.ID, domain.TaskUpdate{AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssignedTo != "bob" {
		t.Fatalf("expected assignee bob, got %s", updated.AssignedTo)
	}
	board := tasks.All()
	if len(board[domain.StatusTodo]["alice"]) != 0 {
		t.Fatal("task still indexed under alice")
	}
	if len(board[domain.StatusTodo]["bob"]) != 1 {
		t.Fatal("task not indexed under bob")
	}
	if countOccurrences(t, tasks, task.ID) != 1 {
		t.Fatal("task not in exactly one bucket after reassignment")
	}
}

func TestUpdateInPlaceKeepsBucket(t *testing.T) {
	tasks, _ := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	title := "restock shelves"
	updated, prev, err := tasks.Update(task.ID, domain.TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if prev != domain.StatusTodo || updated.Status != domain.StatusTodo {
		t.Fatalf("in-place patch changed status: %s -> %s", prev, updated.Status)
	}
	if updated.Title != "restock shelves" {
		t.Fatalf("title not patched: %q", updated.Title)
	}
	if updated.Description != task.Description || updated.AssignedTo != task.AssignedTo {
		t.Fatal("patch touched fields it should not have")
	}
	if countOccurrences(t, tasks, task.ID) != 1 {
		t.Fatal("task not in exactly one bucket")
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	tasks, _ := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bogus := domain.TaskStatus("archived")
	if _, _, err := tasks.Update(task.ID, domain.TaskUpdate{Status: &bogus}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	tasks, _ := newTestTasks(t)
	title := "x"
	if _, _, err := tasks.Update("nope", domain.TaskUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	tasks, path := newTestTasks(t)
	task, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tasks.Delete(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if countOccurrences(t, tasks, task.ID) != 0 {
		t.Fatal("task still present after delete")
	}

	before := readFile(t, path)
	if err := tasks.Delete(task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if string(before) != string(readFile(t, path)) {
		t.Fatal("failed delete mutated the on-disk document")
	}
}

func TestForUserReturnsEmptyListsPerStatus(t *testing.T) {
	tasks, _ := newTestTasks(t)
	if _, err := tasks.Create(domain.TaskCreate{Title: "restock", AssignedTo: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got := tasks.ForUser("bob")
	if len(got) != len(domain.Statuses) {
		t.Fatalf("expected %d statuses, got %d", len(domain.Statuses), len(got))
	}
	for _, s := range domain.Statuses {
		list, ok := got[s]
		if !ok {
			t.Fatalf("missing status %s", s)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("expected empty list for %s, got %v", s, list)
		}
	}
}

func TestTasksRoundTrip(t *testing.T) {
	tasks, path := newTestTasks(t)
	fixed := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	tasks.now = func() time.Time { return fixed }

	created, err := tasks.Create(domain.TaskCreate{
		Title:       "sell apples",
		Description: "front desk order",
		AssignedTo:  "alice",
		Query:       []byte(`{"action":"sell","product":"apples","storage":"storage_1","count":5}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	status := domain.StatusDone
	if _, _, err := tasks.Update(created.ID, domain.TaskUpdate{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reopened, err := OpenTasks(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list := reopened.All()[domain.StatusDone]["alice"]
	if len(list) != 1 {
		t.Fatalf("expected 1 done task for alice, got %d", len(list))
	}
	got := list[0]
	if got.ID != created.ID || got.Title != created.Title || got.Description != created.Description {
		t.Fatalf("task fields changed across reload: %+v", got)
	}
	if got.Status != domain.StatusDone {
		t.Fatalf("status changed across reload: %s", got.Status)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at changed across reload: %s", got.CreatedAt)
	}
	if string(got.Query) != string(created.Query) {
		t.Fatalf("query payload changed across reload: %s", got.Query)
	}
}
