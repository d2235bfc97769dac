package storage

import (
	"fmt"
	"sort"
	"sync"

	"depot-api/domain"
)

type usersDoc struct {
	Users map[string]domain.User `json:"users"`
}

// Users is the user ledger, persisted as {"users": {username: {...}}}.
type Users struct {
	path string

	mu  sync.RWMutex
	doc *usersDoc
}

// OpenUsers loads the user document at path, creating an empty one when the
// file does not exist yet.
func OpenUsers(path string) (*Users, error) {
	doc := &usersDoc{}
	existed, err := loadJSON(path, doc)
	if err != nil {
		return nil, err
	}
	if doc.Users == nil {
		doc.Users = map[string]domain.User{}
	}
	u := &Users{path: path, doc: doc}
	if !existed {
		if err := atomicWriteJSON(path, doc); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (u *Users) clone() *usersDoc {
	next := &usersDoc{Users: make(map[string]domain.User, len(u.doc.Users))}
	for name, user := range u.doc.Users {
		next.Users[name] = user
	}
	return next
}

// commit persists next and swaps it in. Callers hold the write lock.
func (u *Users) commit(next *usersDoc) error {
	if err := atomicWriteJSON(u.path, next); err != nil {
		return err
	}
	u.doc = next
	return nil
}

// Create registers a new user. The username must be unused.
func (u *Users) Create(user domain.User) (domain.User, error) {
	if user.Username == "" {
		return domain.User{}, fmt.Errorf("username: %w", ErrInvalid)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.doc.Users[user.Username]; ok {
		return domain.User{}, fmt.Errorf("user %q: %w", user.Username, ErrConflict)
	}
	next := u.clone()
	next.Users[user.Username] = user
	if err := u.commit(next); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Get returns the user with the given username.
func (u *Users) Get(username string) (domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.doc.Users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return user, nil
}

// Update applies the non-nil fields of patch to an existing user.
func (u *Users) Update(username string, patch domain.UserUpdate) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.doc.Users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.HashedPassword != nil {
		user.HashedPassword = *patch.HashedPassword
	}
	if patch.Disabled != nil {
		user.Disabled = *patch.Disabled
	}
	if patch.IsManager != nil {
		user.IsManager = *patch.IsManager
	}
	next := u.clone()
	next.Users[username] = user
	if err := u.commit(next); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Delete removes a user. Deleting an unknown username fails.
func (u *Users) Delete(username string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.doc.Users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	next := u.clone()
	delete(next.Users, username)
	return u.commit(next)
}

// RoleFilter narrows List to a subset of accounts.
type RoleFilter string

const (
	RoleAny      RoleFilter = ""
	RoleManagers RoleFilter = "managers"
	RoleWorkers  RoleFilter = "workers"
)

// List returns usernames matching the filter, sorted.
func (u *Users) List(filter RoleFilter) []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	names := make([]string, 0, len(u.doc.Users))
	for name, user := range u.doc.Users {
		switch filter {
		case RoleManagers:
			if !user.IsManager {
				continue
			}
		case RoleWorkers:
			if user.IsManager {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
