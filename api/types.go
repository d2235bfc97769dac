package api

import (
	"context"
	"time"

	"depot-api/domain"
	"depot-api/storage"
)

// UserStore abstracts the user ledger for handlers.
type UserStore interface {
	Create(user domain.User) (domain.User, error)
	Get(username string) (domain.User, error)
	Update(username string, patch domain.UserUpdate) (domain.User, error)
	Delete(username string) error
	List(filter storage.RoleFilter) []string
}

// InventoryStore abstracts the item/storage ledger for handlers.
type InventoryStore interface {
	Storages() []domain.Storage
	AddItem(storageID string, c domain.ItemCreate) (domain.Item, error)
	Items(storageID string) ([]domain.Item, error)
	AllItems() []domain.Item
	UpdateItem(id string, patch domain.ItemUpdate) (domain.Item, error)
	MoveItem(name, fromID, toID string, count int) (domain.Item, error)
	DeleteItem(id string) (domain.Item, error)
}

// TaskStore abstracts the task ledger for handlers.
type TaskStore interface {
	Create(c domain.TaskCreate) (domain.Task, error)
	All() map[domain.TaskStatus]map[string][]domain.Task
	ForUser(user string) map[domain.TaskStatus][]domain.Task
	Update(id string, patch domain.TaskUpdate) (domain.Task, domain.TaskStatus, error)
	Delete(id string) error
}

// Authenticator is implemented by types able to issue tokens and resolve
// usernames from Authorization headers.
type Authenticator interface {
	IssueToken(username string) (string, time.Time, error)
	UsernameFromAuthHeader(h string) (string, error)
	// UsernameIgnoringExpiry resolves the subject of a token without
	// checking its expiry; used by the token validation endpoint.
	UsernameIgnoringExpiry(h string) (string, error)
}

// Deduper prevents a task's inventory effect from being applied twice.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when the effect fails so a
	// later retry may run it again.
	Remove(ctx context.Context, key string) error
}
