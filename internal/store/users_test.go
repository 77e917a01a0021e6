package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/menjalnica/internal/db"
	"github.com/erazemk/menjalnica/internal/model"
)

func TestCreateUserDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "alice", "hash", model.StatusNormal)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err = CreateUser(ctx, database, "alice", "hash", model.StatusNormal)
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestDeletedUsernameReusable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.StatusNormal)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	reborn, err := CreateUser(ctx, database, "alice", "hash2", model.StatusNormal)
	if err != nil {
		t.Fatalf("CreateUser after delete: %v", err)
	}
	if reborn.ID == user.ID {
		t.Error("expected a new user row")
	}

	// Lookup should prefer the active account.
	found, _ := GetUserByUsername(ctx, database, "alice")
	if found == nil || found.ID != reborn.ID {
		t.Errorf("expected active user %d, got %+v", reborn.ID, found)
	}
}

func TestSetUserStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "bob", "hash", model.StatusNormal)
	if err := SetUserStatus(ctx, database, user.ID, model.StatusFrozen); err != nil {
		t.Fatalf("SetUserStatus: %v", err)
	}

	frozen, _ := GetUser(ctx, database, user.ID)
	if frozen.Status != model.StatusFrozen {
		t.Errorf("expected frozen, got %q", frozen.Status)
	}
}

func TestCountUsersIncludesDeleted(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.StatusAdmin)
	CreateUser(ctx, database, "bob", "hash", model.StatusNormal)
	DeleteUser(ctx, database, user.ID)

	n, err := CountUsers(ctx, database)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 users, got %d", n)
	}
}
