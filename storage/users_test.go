package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"depot-api/domain"
)

func newTestUsers(t *testing.T) (*Users, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.json")
	users, err := OpenUsers(path)
	if err != nil {
		t.Fatalf("open users: %v", err)
	}
	return users, path
}

func TestCreateUserAndDuplicate(t *testing.T) {
	users, _ := newTestUsers(t)
	alice := domain.User{Username: "alice", Email: "alice@example.com", HashedPassword: "hash"}
	if _, err := users.Create(alice); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create(alice); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate: expected ErrConflict, got %v", err)
	}
	got, err := users.Get("alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != alice {
		t.Fatalf("stored user differs: %+v", got)
	}
}

func TestGetUnknownUser(t *testing.T) {
	users, _ := newTestUsers(t)
	if _, err := users.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserPatchesOnlyGivenFields(t *testing.T) {
	users, _ := newTestUsers(t)
	if _, err := users.Create(domain.User{Username: "alice", Email: "old@example.com", HashedPassword: "hash"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	disabled := true
	updated, err := users.Update("alice", domain.UserUpdate{Disabled: &disabled})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Disabled {
		t.Fatal("disabled not patched")
	}
	if updated.Email != "old@example.com" || updated.HashedPassword != "hash" {
		t.Fatalf("patch touched other fields: %+v", updated)
	}

	if _, err := users.Update("ghost", domain.UserUpdate{Disabled: &disabled}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	users, path := newTestUsers(t)
	if _, err := users.Create(domain.User{Username: "alice", HashedPassword: "hash"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.Delete("alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	before := readFile(t, path)
	if err := users.Delete("alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if string(before) != string(readFile(t, path)) {
		t.Fatal("failed delete mutated the on-disk document")
	}
}

func TestListUsersByRole(t *testing.T) {
	users, _ := newTestUsers(t)
	seed := []domain.User{
		{Username: "carol", HashedPassword: "h", IsManager: true},
		{Username: "alice", HashedPassword: "h"},
		{Username: "bob", HashedPassword: "h", IsManager: true},
	}
	for _, u := range seed {
		if _, err := users.Create(u); err != nil {
			t.Fatalf("create %s: %v", u.Username, err)
		}
	}
	if got := users.List(RoleAny); !reflect.DeepEqual(got, []string{"alice", "bob", "carol"}) {
		t.Fatalf("all users: %v", got)
	}
	if got := users.List(RoleManagers); !reflect.DeepEqual(got, []string{"bob", "carol"}) {
		t.Fatalf("managers: %v", got)
	}
	if got := users.List(RoleWorkers); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("workers: %v", got)
	}
}

func TestUsersRoundTrip(t *testing.T) {
	users, path := newTestUsers(t)
	want := domain.User{
		Username:       "alice",
		Email:          "alice@example.com",
		FullName:       "Alice Cooper",
		HashedPassword: "hash",
		Disabled:       true,
		IsManager:      true,
	}
	if _, err := users.Create(want); err != nil {
		t.Fatalf("create: %v", err)
	}
	reopened, err := OpenUsers(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get("alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("user changed across reload: %+v vs %+v", got, want)
	}
}
