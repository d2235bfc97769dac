package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"depot-api/domain"
)

type tasksDoc struct {
	Todo       map[string][]domain.Task `json:"todo"`
	InProgress map[string][]domain.Task `json:"in_progress"`
	Done       map[string][]domain.Task `json:"done"`
}

func newTasksDoc() *tasksDoc {
	return &tasksDoc{
		Todo:       map[string][]domain.Task{},
		InProgress: map[string][]domain.Task{},
		Done:       map[string][]domain.Task{},
	}
}

func (d *tasksDoc) bucket(s domain.TaskStatus) map[string][]domain.Task {
	switch s {
	case domain.StatusTodo:
		return d.Todo
	case domain.StatusInProgress:
		return d.InProgress
	case domain.StatusDone:
		return d.Done
	}
	return nil
}

// Tasks is the task ledger. Tasks are indexed status-first, then by assignee,
// and every task lives in exactly one (status, assignee) bucket.
type Tasks struct {
	path string

	mu  sync.RWMutex
	doc *tasksDoc

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// OpenTasks loads the task document at path, creating an empty one when the
// file does not exist yet.
func OpenTasks(path string) (*Tasks, error) {
	doc := newTasksDoc()
	existed, err := loadJSON(path, doc)
	if err != nil {
		return nil, err
	}
	if doc.Todo == nil {
		doc.Todo = map[string][]domain.Task{}
	}
	if doc.InProgress == nil {
		doc.InProgress = map[string][]domain.Task{}
	}
	if doc.Done == nil {
		doc.Done = map[string][]domain.Task{}
	}
	t := &Tasks{path: path, doc: doc, now: time.Now}
	if !existed {
		if err := atomicWriteJSON(path, doc); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func cloneBucket(b map[string][]domain.Task) map[string][]domain.Task {
	next := make(map[string][]domain.Task, len(b))
	for user, tasks := range b {
		cp := make([]domain.Task, len(tasks))
		copy(cp, tasks)
		next[user] = cp
	}
	return next
}

func (t *Tasks) clone() *tasksDoc {
	return &tasksDoc{
		Todo:       cloneBucket(t.doc.Todo),
		InProgress: cloneBucket(t.doc.InProgress),
		Done:       cloneBucket(t.doc.Done),
	}
}

// commit persists next and swaps it in. Callers hold the write lock.
func (t *Tasks) commit(next *tasksDoc) error {
	if err := atomicWriteJSON(t.path, next); err != nil {
		return err
	}
	t.doc = next
	return nil
}

// find locates a task by id across all buckets.
func (d *tasksDoc) find(id string) (status domain.TaskStatus, assignee string, index int, ok bool) {
	for _, s := range domain.Statuses {
		for user, tasks := range d.bucket(s) {
			for i, task := range tasks {
				if task.ID == id {
					return s, user, i, true
				}
			}
		}
	}
	return "", "", 0, false
}

func (d *tasksDoc) remove(status domain.TaskStatus, assignee string, index int) {
	b := d.bucket(status)
	tasks := b[assignee]
	b[assignee] = append(tasks[:index], tasks[index+1:]...)
	if len(b[assignee]) == 0 {
		delete(b, assignee)
	}
}

func (d *tasksDoc) insert(task domain.Task) {
	b := d.bucket(task.Status)
	b[task.AssignedTo] = append(b[task.AssignedTo], task)
}

// Create adds a new task in the todo bucket of its assignee.
func (t *Tasks) Create(c domain.TaskCreate) (domain.Task, error) {
	if c.Title == "" {
		return domain.Task{}, fmt.Errorf("task title required: %w", ErrInvalid)
	}
	if c.AssignedTo == "" {
		return domain.Task{}, fmt.Errorf("task assignee required: %w", ErrInvalid)
	}
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       c.Title,
		Description: c.Description,
		AssignedTo:  c.AssignedTo,
		CreatedAt:   t.now().UTC(),
		Status:      domain.StatusTodo,
		Query:       c.Query,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.clone()
	next.insert(task)
	if err := t.commit(next); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// All returns the full status -> assignee -> tasks structure as a snapshot.
func (t *Tasks) All() map[domain.TaskStatus]map[string][]domain.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.TaskStatus]map[string][]domain.Task, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out[s] = cloneBucket(t.doc.bucket(s))
	}
	return out
}

// ForUser returns the user's tasks grouped by status, with empty slices for
// statuses the user has no tasks in.
func (t *Tasks) ForUser(user string) map[domain.TaskStatus][]domain.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.TaskStatus][]domain.Task, len(domain.Statuses))
	for _, s := range domain.Statuses {
		tasks := t.doc.bucket(s)[user]
		cp := make([]domain.Task, len(tasks))
		copy(cp, tasks)
		out[s] = cp
	}
	return out
}

// Update applies the non-nil fields of patch to the task with the given id.
// When the patch changes the task's (status, assignee) pair the task is
// relocated to the new bucket; it is never duplicated and never dropped. The
// task's previous status is returned alongside the updated task so callers
// can detect a transition into done.
func (t *Tasks) Update(id string, patch domain.TaskUpdate) (domain.Task, domain.TaskStatus, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Task{}, "", fmt.Errorf("unknown status %q: %w", *patch.Status, ErrInvalid)
	}
	if patch.AssignedTo != nil && *patch.AssignedTo == "" {
		return domain.Task{}, "", fmt.Errorf("task assignee required: %w", ErrInvalid)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	status, assignee, idx, ok := t.doc.find(id)
	if !ok {
		return domain.Task{}, "", fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	updated := t.doc.bucket(status)[assignee][idx]
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		updated.AssignedTo = *patch.AssignedTo
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.Query != nil {
		updated.Query = *patch.Query
	}

	next := t.clone()
	if updated.Status != status || updated.AssignedTo != assignee {
		next.remove(status, assignee, idx)
		next.insert(updated)
	} else {
		next.bucket(status)[assignee][idx] = updated
	}
	if err := t.commit(next); err != nil {
		return domain.Task{}, "", err
	}
	return updated, status, nil
}

// Delete removes the task from whichever bucket holds it.
func (t *Tasks) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, assignee, idx, ok := t.doc.find(id)
	if !ok {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	next := t.clone()
	next.remove(status, assignee, idx)
	return t.commit(next)
}
