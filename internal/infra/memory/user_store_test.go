package memory

import (
	"context"
	"errors"
	"testing"

	"strengths-service/internal/domain"
)

func TestUserStoreUniqueness(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()
	if err := store.CreateUser(ctx, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.CreateUser(ctx, domain.User{ID: "u2", Username: "other", Email: "ada@example.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	err = store.CreateUser(ctx, domain.User{ID: "u3", Username: "ada", Email: "new@example.com"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserStoreLookups(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()
	_ = store.CreateUser(ctx, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com"})

	byEmail, err := store.FindUserByEmail(ctx, "ada@example.com")
	if err != nil || byEmail.ID != "u1" {
		t.Fatalf("find by email: %+v %v", byEmail, err)
	}
	byID, err := store.FindUserByID(ctx, "u1")
	if err != nil || byID.Username != "ada" {
		t.Fatalf("find by id: %+v %v", byID, err)
	}
	if _, err := store.FindUserByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
