package domain

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle stage of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// Statuses lists all task statuses in board order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task represents a single board item assigned to a user.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      TaskStatus `json:"status"`
	// Query optionally carries an inventory effect payload applied when the
	// task reaches done. Opaque to the task ledger.
	Query json.RawMessage `json:"query,omitempty"`
}

// TaskCreate is the payload for creating a task. New tasks always start in todo.
type TaskCreate struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  string          `json:"assigned_to"`
	Query       json.RawMessage `json:"query,omitempty"`
}

// TaskUpdate is a partial patch; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	AssignedTo  *string          `json:"assigned_to"`
	Status      *TaskStatus      `json:"status"`
	Query       *json.RawMessage `json:"query"`
}
